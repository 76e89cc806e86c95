package dto

import (
	"time"

	"github.com/noah-isme/rollcall-api/internal/models"
)

// FacultySignupRequest registers a faculty account.
type FacultySignupRequest struct {
	Username string `json:"username" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,password"`
}

// FacultySigninRequest authenticates a faculty account.
type FacultySigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PasswordChangeRequest rotates the password of the signed-in faculty member.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
}

// StudentSigninRequest authenticates a student by register number.
type StudentSigninRequest struct {
	RegisterNumber string `json:"registerNumber" validate:"required,max=64"`
	Password       string `json:"password" validate:"required"`
}

// StudentPasswordChangeRequest replaces a student's password, including the
// default one handed out at creation.
type StudentPasswordChangeRequest struct {
	RegisterNumber  string `json:"registerNumber" validate:"required,max=64"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
}

// StudentCreateItem describes one student in a bulk creation request.
type StudentCreateItem struct {
	RegisterNumber string `json:"registerNumber" validate:"required,max=64"`
	IsIncharge     bool   `json:"isIncharge"`
}

// StudentCreateRequest creates student accounts in bulk.
type StudentCreateRequest struct {
	Students []StudentCreateItem `json:"students" validate:"required,min=1,dive"`
}

// StudentCreateResponse lists the created accounts and the register numbers
// that already existed.
type StudentCreateResponse struct {
	Created []StudentResponse `json:"created"`
	Skipped []string          `json:"skipped"`
}

// SessionResponse is returned after a successful sign-in.
type SessionResponse struct {
	JWT        string    `json:"jwt"`
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	IsIncharge *bool     `json:"isIncharge,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// FacultyResponse serializes a faculty account.
type FacultyResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// StudentResponse serializes a student account.
type StudentResponse struct {
	ID             uint   `json:"id"`
	RegisterNumber string `json:"registerNumber"`
	IsIncharge     bool   `json:"isIncharge"`
}

// NewFacultyResponse converts a faculty model.
func NewFacultyResponse(faculty models.Faculty) FacultyResponse {
	return FacultyResponse{
		ID:    faculty.ID,
		Email: faculty.Email,
		Name:  faculty.Name,
	}
}

// NewStudentResponse converts a student model.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:             student.ID,
		RegisterNumber: student.RegisterNumber,
		IsIncharge:     student.IsIncharge,
	}
}

// NewStudentResponses converts a slice of student models.
func NewStudentResponses(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}
