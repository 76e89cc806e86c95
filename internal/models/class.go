package models

import "time"

// Class is a course section owned by a faculty member.
type Class struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	Name       string        `gorm:"size:255;not null" json:"name"`
	InchargeID uint          `gorm:"not null;index" json:"inchargeId"`
	Members    []ClassMember `json:"-"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// ClassMember links a student to a class roster.
type ClassMember struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ClassID   uint    `gorm:"not null;uniqueIndex:idx_class_member" json:"classId"`
	StudentID uint    `gorm:"not null;uniqueIndex:idx_class_member;index" json:"studentId"`
	Student   Student `json:"student"`
}

// OwnedBy reports whether the faculty member owns the class.
func (c Class) OwnedBy(facultyID uint) bool {
	return facultyID != 0 && c.InchargeID == facultyID
}
