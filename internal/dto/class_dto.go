package dto

import (
	"time"

	"github.com/noah-isme/rollcall-api/internal/models"
)

// ClassCreateRequest creates a class owned by the declared incharge.
type ClassCreateRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=255"`
	InchargeID uint   `json:"inchargeId" validate:"required"`
}

// ClassAddStudentsRequest enrols students by register number.
type ClassAddStudentsRequest struct {
	ClassID         uint     `json:"classId" validate:"required"`
	RegisterNumbers []string `json:"registerNumber" validate:"required,min=1,dive,required,max=64"`
}

// ClassResponse serializes a class.
type ClassResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	InchargeID uint      `json:"inchargeId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ClassListResponse wraps the classes visible to the caller.
type ClassListResponse struct {
	Classes []ClassResponse `json:"class"`
}

// ClassMemberResponse serializes a roster entry.
type ClassMemberResponse struct {
	ID        uint            `json:"id"`
	ClassID   uint            `json:"classId"`
	StudentID uint            `json:"studentId"`
	Student   StudentResponse `json:"student"`
}

// ClassAddStudentsResponse reports the memberships that were created. Register
// numbers that are unknown or already enrolled are listed as skipped.
type ClassAddStudentsResponse struct {
	ClassID uint                  `json:"classId"`
	Added   []ClassMemberResponse `json:"added"`
	Skipped []string              `json:"skipped"`
}

// ClassRosterResponse lists the members of a class.
type ClassRosterResponse struct {
	ClassID      uint              `json:"classId"`
	InchargeID   uint              `json:"inchargeId"`
	ClassMembers []StudentResponse `json:"classMembers"`
}

// NewClassResponse converts a class model.
func NewClassResponse(class models.Class) ClassResponse {
	return ClassResponse{
		ID:         class.ID,
		Name:       class.Name,
		InchargeID: class.InchargeID,
		CreatedAt:  class.CreatedAt,
		UpdatedAt:  class.UpdatedAt,
	}
}

// NewClassResponses converts a slice of class models.
func NewClassResponses(classes []models.Class) []ClassResponse {
	responses := make([]ClassResponse, 0, len(classes))
	for _, class := range classes {
		responses = append(responses, NewClassResponse(class))
	}
	return responses
}
