package models

import "time"

// Student represents a learner identified by their register number. Incharge
// students may record attendance for the classes they belong to.
type Student struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	RegisterNumber     string    `gorm:"size:64;uniqueIndex;not null" json:"registerNumber"`
	PasswordHash       string    `gorm:"size:255;not null" json:"-"`
	IsIncharge         bool      `gorm:"not null;default:false" json:"isIncharge"`
	MustChangePassword bool      `gorm:"not null" json:"-"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
