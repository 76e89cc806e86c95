package dto

import (
	"time"

	"github.com/noah-isme/rollcall-api/internal/models"
)

// MarkEntry is one student's score in a batch.
type MarkEntry struct {
	RegisterNumber string  `json:"registerNumber" validate:"required,max=64"`
	Mark           float64 `json:"mark" validate:"gt=0,lte=100"`
}

// MarkCreateRequest records marks for a class and exam.
type MarkCreateRequest struct {
	ClassID uint        `json:"classId" validate:"required"`
	Exam    string      `json:"exam" validate:"omitempty,oneof=IA1 IA2"`
	Marks   []MarkEntry `json:"marks" validate:"required,min=1,dive"`
}

// MarkUpdateRequest changes a single score.
type MarkUpdateRequest struct {
	MarkID uint    `json:"markId" validate:"required"`
	Mark   float64 `json:"mark" validate:"gt=0,lte=100"`
}

// MarkResponse serializes a mark.
type MarkResponse struct {
	ID             uint      `json:"id"`
	ClassID        uint      `json:"classId"`
	RegisterNumber string    `json:"registerNumber"`
	Exam           string    `json:"exam"`
	Mark           float64   `json:"mark"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// MarkBatchResponse reports how many marks were written.
type MarkBatchResponse struct {
	Count int            `json:"count"`
	Marks []MarkResponse `json:"marks"`
}

// MarkListResponse lists the marks of a class.
type MarkListResponse struct {
	Marks []MarkResponse `json:"marks"`
}

// NewMarkResponse converts a mark model.
func NewMarkResponse(mark models.Mark) MarkResponse {
	return MarkResponse{
		ID:             mark.ID,
		ClassID:        mark.ClassID,
		RegisterNumber: mark.RegisterNumber,
		Exam:           string(mark.Exam),
		Mark:           mark.Mark,
		UpdatedAt:      mark.UpdatedAt,
	}
}

// NewMarkResponses converts a slice of mark models.
func NewMarkResponses(marks []models.Mark) []MarkResponse {
	responses := make([]MarkResponse, 0, len(marks))
	for _, mark := range marks {
		responses = append(responses, NewMarkResponse(mark))
	}
	return responses
}
