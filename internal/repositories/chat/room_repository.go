package chat

import (
	"time"

	"gorm.io/gorm"

	"supportchat/internal/models/chat"
)

// StaffRoomFilter narrows the staff room listing.
type StaffRoomFilter string

const (
	FilterAll        StaffRoomFilter = "all"
	FilterUnassigned StaffRoomFilter = "unassigned"
	FilterMine       StaffRoomFilter = "mine"
	FilterActive     StaffRoomFilter = "active"
	FilterClosed     StaffRoomFilter = "closed"
)

// RoomStats backs the staff dashboard counters.
type RoomStats struct {
	Active      int64 `json:"active"`
	Unassigned  int64 `json:"unassigned"`
	Mine        int64 `json:"mine"`
	TotalUnread int64 `json:"total_unread"`
	ClosedToday int64 `json:"closed_today"`
}

type RoomRepository struct {
	DB *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{DB: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *RoomRepository) WithTx(tx *gorm.DB) *RoomRepository {
	return &RoomRepository{DB: tx}
}

func (r *RoomRepository) Create(room *chat.Room) error {
	return r.DB.Create(room).Error
}

func (r *RoomRepository) FindByID(id uint) (*chat.Room, error) {
	var room chat.Room
	if err := r.DB.First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// FindByCustomer lists a customer's own rooms, most recently active first.
func (r *RoomRepository) FindByCustomer(customerID uint) ([]chat.Room, error) {
	var rooms []chat.Room
	err := r.DB.
		Where("customer_id = ?", customerID).
		Order("last_activity_at DESC").
		Find(&rooms).Error
	return rooms, err
}

// FindFiltered lists rooms for staff. managerID is the requesting staff
// member, used by the "mine" filter.
func (r *RoomRepository) FindFiltered(filter StaffRoomFilter, managerID uint) ([]chat.Room, error) {
	q := r.DB.Model(&chat.Room{})

	switch filter {
	case FilterUnassigned:
		q = q.Where("manager_id IS NULL AND status = ?", chat.RoomStatusActive)
	case FilterMine:
		q = q.Where("manager_id = ?", managerID)
	case FilterActive:
		q = q.Where("status = ?", chat.RoomStatusActive)
	case FilterClosed:
		q = q.Where("status = ?", chat.RoomStatusClosed)
	case FilterAll:
		// no filter
	default:
		q = q.Where("status = ? AND (manager_id = ? OR manager_id IS NULL)", chat.RoomStatusActive, managerID)
	}

	var rooms []chat.Room
	err := q.Order("last_activity_at DESC").Find(&rooms).Error
	return rooms, err
}

// ClaimManager assigns the manager only if the room is still unassigned.
// The conditional update makes concurrent claims exactly-once: the winner is
// the single caller that sees a true result.
func (r *RoomRepository) ClaimManager(roomID, managerID uint) (bool, error) {
	res := r.DB.Model(&chat.Room{}).
		Where("id = ? AND manager_id IS NULL", roomID).
		Update("manager_id", managerID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateManager sets the manager unconditionally (explicit reassignment).
func (r *RoomRepository) UpdateManager(roomID, managerID uint) error {
	return r.DB.Model(&chat.Room{}).Where("id = ?", roomID).Update("manager_id", managerID).Error
}

func (r *RoomRepository) UpdateStatus(roomID uint, status chat.RoomStatus) error {
	return r.DB.Model(&chat.Room{}).Where("id = ?", roomID).Update("status", status).Error
}

// TouchLastActivity bumps the room's last-activity timestamp. Called inside
// the PostMessage transaction so message + bump are observed atomically.
func (r *RoomRepository) TouchLastActivity(roomID uint, at time.Time) error {
	return r.DB.Model(&chat.Room{}).Where("id = ?", roomID).Update("last_activity_at", at).Error
}

// Stats computes the staff dashboard counters for one staff member.
func (r *RoomRepository) Stats(managerID uint) (*RoomStats, error) {
	var stats RoomStats

	if err := r.DB.Model(&chat.Room{}).
		Where("status = ?", chat.RoomStatusActive).
		Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&chat.Room{}).
		Where("manager_id IS NULL AND status = ?", chat.RoomStatusActive).
		Count(&stats.Unassigned).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&chat.Room{}).
		Where("manager_id = ? AND status = ?", managerID, chat.RoomStatusActive).
		Count(&stats.Mine).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&chat.Message{}).
		Where("is_read = false AND sender_id IS NOT NULL AND sender_id <> ?", managerID).
		Count(&stats.TotalUnread).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := r.DB.Model(&chat.Room{}).
		Where("status = ? AND updated_at >= ?", chat.RoomStatusClosed, today).
		Count(&stats.ClosedToday).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
