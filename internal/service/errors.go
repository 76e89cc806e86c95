package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/rollcall-api/internal/auth"
)

var (
	// ErrClassNotFound indicates the referenced class does not exist.
	ErrClassNotFound = auth.ErrClassNotFound
	// ErrPostNotFound indicates the referenced post does not exist or belongs to someone else.
	ErrPostNotFound = errors.New("post not found")
	// ErrMarkNotFound indicates the referenced mark does not exist.
	ErrMarkNotFound = errors.New("mark not found")
	// ErrStudentNotFound indicates no student has the given register number or id.
	ErrStudentNotFound = errors.New("student not found")
	// ErrFacultyNotFound indicates no faculty account has the given email or id.
	ErrFacultyNotFound = errors.New("faculty not found")
	// ErrMemberNotFound indicates the student is not on the class roster.
	ErrMemberNotFound = errors.New("student is not a member of the class")
	// ErrEmailTaken indicates a faculty account already uses the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials indicates a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordChangeRequired indicates the student still has the default password.
	ErrPasswordChangeRequired = errors.New("user has to change password before signin")
	// ErrDocumentTooLarge indicates the uploaded document exceeded the size limit.
	ErrDocumentTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrDocumentTypeNotAllowed indicates the document type is not accepted.
	ErrDocumentTypeNotAllowed = errors.New("file type not allowed")
	// ErrStorageUnavailable indicates document storage is not configured.
	ErrStorageUnavailable = errors.New("document storage is not configured")
)

// ValidationError reports field level problems found after struct validation.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", key, e.Fields[key]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
