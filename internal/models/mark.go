package models

import "time"

// Exam identifies an internal assessment.
type Exam string

// Supported internal assessments.
const (
	ExamIA1 Exam = "IA1"
	ExamIA2 Exam = "IA2"
)

// Mark is a student's score for one exam in a class. A class holds at most one
// mark per register number and exam.
type Mark struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ClassID        uint      `gorm:"not null;uniqueIndex:idx_mark_entry" json:"classId"`
	RegisterNumber string    `gorm:"size:64;not null;uniqueIndex:idx_mark_entry" json:"registerNumber"`
	Exam           Exam      `gorm:"size:8;not null;uniqueIndex:idx_mark_entry" json:"exam"`
	Mark           float64   `gorm:"not null" json:"mark"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ParseExam normalises an exam label, defaulting to IA1 like the dashboards do.
func ParseExam(value string) Exam {
	if Exam(value) == ExamIA2 {
		return ExamIA2
	}
	return ExamIA1
}
