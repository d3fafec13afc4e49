package chat

import "time"

type RoomStatus string

const (
	RoomStatusActive   RoomStatus = "active"
	RoomStatusClosed   RoomStatus = "closed"
	RoomStatusArchived RoomStatus = "archived"
)

// CanTransitionTo reports whether the status change follows the normal
// lifecycle flow. The schema itself stores a plain string; this is a
// policy-level guarantee enforced at the service boundary.
func (s RoomStatus) CanTransitionTo(target RoomStatus) bool {
	switch s {
	case RoomStatusActive:
		return target == RoomStatusClosed
	case RoomStatusClosed:
		return target == RoomStatusArchived
	default:
		return false
	}
}

// Room is a support conversation between one customer and at most one staff
// manager. CustomerID never changes; ManagerID is set once by auto-assignment
// and changes only through explicit reassignment.
type Room struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CustomerID     uint       `gorm:"index;not null" json:"customer_id"`
	ManagerID      *uint      `gorm:"index" json:"manager_id"`
	Subject        string     `gorm:"size:200;not null" json:"subject"`
	Status         RoomStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	LastActivityAt time.Time  `gorm:"index" json:"last_activity_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Messages []Message `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Room) TableName() string {
	return "chat_rooms"
}

// IsParticipant reports whether the user takes part in the room as its
// customer or its assigned manager.
func (r *Room) IsParticipant(userID uint) bool {
	if r.CustomerID == userID {
		return true
	}
	return r.ManagerID != nil && *r.ManagerID == userID
}

// Counterpart resolves who should be notified about a message from sender.
// An unassigned room has no notification target; nobody guesses the eventual
// assignee.
func (r *Room) Counterpart(senderID uint) *uint {
	if senderID == r.CustomerID {
		return r.ManagerID
	}
	customerID := r.CustomerID
	return &customerID
}
