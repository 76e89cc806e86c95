package auth

import (
	"context"
	"errors"
)

// ErrClassNotFound indicates the target class does not exist.
var ErrClassNotFound = errors.New("class not found")

// Action is an operation a principal attempts on a class.
type Action int

// Class actions, from least to most privileged.
const (
	ActionView Action = iota
	ActionRecordAttendance
	ActionManage
)

func (a Action) String() string {
	switch a {
	case ActionView:
		return "view"
	case ActionRecordAttendance:
		return "record_attendance"
	case ActionManage:
		return "manage"
	default:
		return "unknown"
	}
}

// Membership is a student's current standing in a class roster.
type Membership struct {
	Member     bool
	IsIncharge bool
}

// ClassDirectory answers the lookups the authorizer needs. Implementations
// must read current state; nothing is cached between checks.
type ClassDirectory interface {
	// ClassOwner returns the owning faculty id, or found=false when the class is missing.
	ClassOwner(ctx context.Context, classID uint) (ownerID uint, found bool, err error)
	// Membership reports whether the student is on the roster and their incharge flag.
	Membership(ctx context.Context, classID, studentID uint) (Membership, error)
}

// Authorizer decides whether a principal may act on a class.
type Authorizer struct {
	directory ClassDirectory
}

// NewAuthorizer builds an authorizer backed by the given directory.
func NewAuthorizer(directory ClassDirectory) *Authorizer {
	return &Authorizer{directory: directory}
}

// AuthorizeClass returns nil when the principal may perform action on the
// class, ErrClassNotFound when it does not exist and ErrForbidden otherwise.
// Wrong role and wrong owner both yield ErrForbidden.
func (a *Authorizer) AuthorizeClass(ctx context.Context, principal Principal, classID uint, action Action) error {
	if !principal.Valid() {
		return ErrUnauthorized
	}

	ownerID, found, err := a.directory.ClassOwner(ctx, classID)
	if err != nil {
		return err
	}
	if !found {
		return ErrClassNotFound
	}

	switch principal.Role {
	case RoleFaculty:
		if ownerID == principal.ID {
			return nil
		}
		return ErrForbidden
	case RoleIncharge:
		if action == ActionManage {
			return ErrForbidden
		}
		membership, err := a.directory.Membership(ctx, classID, principal.ID)
		if err != nil {
			return err
		}
		if membership.Member && membership.IsIncharge {
			return nil
		}
		if membership.Member && action == ActionView {
			return nil
		}
		return ErrForbidden
	case RoleStudent:
		if action != ActionView {
			return ErrForbidden
		}
		membership, err := a.directory.Membership(ctx, classID, principal.ID)
		if err != nil {
			return err
		}
		if membership.Member {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}

// AuthorizeClassCreation allows a faculty member to create classes only in
// their own name.
func AuthorizeClassCreation(principal Principal, inchargeID uint) error {
	if !principal.Valid() {
		return ErrUnauthorized
	}
	if principal.Role != RoleFaculty || principal.ID != inchargeID {
		return ErrForbidden
	}
	return nil
}

// RequireFaculty allows only faculty principals.
func RequireFaculty(principal Principal) error {
	if !principal.Valid() {
		return ErrUnauthorized
	}
	if !principal.IsFaculty() {
		return ErrForbidden
	}
	return nil
}
