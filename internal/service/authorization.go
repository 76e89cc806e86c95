package service

import (
	"context"

	"github.com/noah-isme/rollcall-api/internal/auth"
	"github.com/noah-isme/rollcall-api/internal/repository"
)

type classDirectory struct {
	classes repository.ClassRepository
}

// NewClassDirectory exposes the class repository to the authorizer. Every
// lookup goes to the database.
func NewClassDirectory(classes repository.ClassRepository) auth.ClassDirectory {
	return &classDirectory{classes: classes}
}

func (d *classDirectory) ClassOwner(ctx context.Context, classID uint) (uint, bool, error) {
	class, err := d.classes.GetByID(ctx, classID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return class.InchargeID, true, nil
}

func (d *classDirectory) Membership(ctx context.Context, classID, studentID uint) (auth.Membership, error) {
	member, err := d.classes.GetMember(ctx, classID, studentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return auth.Membership{}, nil
		}
		return auth.Membership{}, err
	}
	return auth.Membership{Member: true, IsIncharge: member.Student.IsIncharge}, nil
}
