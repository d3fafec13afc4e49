package models

// User is the identity collaborator: the chat core only needs id, display
// name and the staff flag.
type User struct {
	BaseModel
	Name         string `gorm:"size:150;not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	IsStaff      bool   `gorm:"default:false" json:"is_staff"`
}
