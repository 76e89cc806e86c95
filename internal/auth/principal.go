package auth

import (
	"errors"
	"strings"
)

var (
	// ErrUnauthorized indicates a missing, expired or tampered session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates a valid session without the required privilege.
	ErrForbidden = errors.New("forbidden, user lacks authorization")
)

// Role is the kind of account behind a session.
type Role string

// Session roles.
const (
	RoleFaculty  Role = "Faculty"
	RoleIncharge Role = "Incharge"
	RoleStudent  Role = "Student"
)

// ParseRole normalises a role claim. Unknown values return false.
func ParseRole(value string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "faculty":
		return RoleFaculty, true
	case "incharge":
		return RoleIncharge, true
	case "student":
		return RoleStudent, true
	default:
		return "", false
	}
}

// StudentRole returns the session role for a student account.
func StudentRole(isIncharge bool) Role {
	if isIncharge {
		return RoleIncharge
	}
	return RoleStudent
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID       uint
	Username string
	Role     Role
}

// IsFaculty reports whether the principal is a faculty member.
func (p Principal) IsFaculty() bool {
	return p.Role == RoleFaculty
}

// IsStudent reports whether the principal is a student, incharge or not.
func (p Principal) IsStudent() bool {
	return p.Role == RoleStudent || p.Role == RoleIncharge
}

// Valid reports whether the principal carries an id and a known role.
func (p Principal) Valid() bool {
	if p.ID == 0 {
		return false
	}
	_, ok := ParseRole(string(p.Role))
	return ok
}
