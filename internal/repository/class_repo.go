package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/rollcall-api/internal/models"
)

// ClassRepository manages classes and their rosters.
type ClassRepository interface {
	Create(ctx context.Context, class *models.Class) error
	GetByID(ctx context.Context, id uint) (models.Class, error)
	ListByIncharge(ctx context.Context, facultyID uint) ([]models.Class, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Class, error)
	FilterOwned(ctx context.Context, facultyID uint, classIDs []uint) ([]uint, error)
	Delete(ctx context.Context, id uint) error
	AddMembers(ctx context.Context, classID uint, studentIDs []uint) ([]models.ClassMember, error)
	RemoveMember(ctx context.Context, classID, studentID uint) error
	Roster(ctx context.Context, classID uint) ([]models.Student, error)
	GetMember(ctx context.Context, classID, studentID uint) (models.ClassMember, error)
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository constructs a class repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return models.Class{}, err
	}
	return class, nil
}

func (r *classRepository) ListByIncharge(ctx context.Context, facultyID uint) ([]models.Class, error) {
	var classes []models.Class
	err := r.db.WithContext(ctx).
		Where("incharge_id = ?", facultyID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&classes).Error
	if err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *classRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Class, error) {
	var classes []models.Class
	err := r.db.WithContext(ctx).
		Joins("JOIN class_members ON class_members.class_id = classes.id").
		Where("class_members.student_id = ?", studentID).
		Order("classes.name ASC").
		Find(&classes).Error
	if err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *classRepository) FilterOwned(ctx context.Context, facultyID uint, classIDs []uint) ([]uint, error) {
	owned := make([]uint, 0, len(classIDs))
	if len(classIDs) == 0 {
		return owned, nil
	}

	err := r.db.WithContext(ctx).
		Model(&models.Class{}).
		Where("incharge_id = ? AND id IN ?", facultyID, classIDs).
		Order("id ASC").
		Pluck("id", &owned).Error
	if err != nil {
		return nil, err
	}
	return owned, nil
}

// Delete removes the class together with its roster, roll calls, post access
// grants and marks.
func (r *classRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		modeIDs := tx.Model(&models.AttendanceMode{}).Select("id").Where("class_id = ?", id)
		if err := tx.Where("attendance_mode_id IN (?)", modeIDs).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}

		children := []interface{}{
			&models.AttendanceMode{},
			&models.ClassMember{},
			&models.PostAccess{},
			&models.Mark{},
		}
		for _, child := range children {
			if err := tx.Where("class_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&models.Class{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AddMembers enrols the students that are not on the roster yet and returns
// the memberships it created. Existing pairs are skipped without error.
func (r *classRepository) AddMembers(ctx context.Context, classID uint, studentIDs []uint) ([]models.ClassMember, error) {
	created := make([]models.ClassMember, 0, len(studentIDs))
	if len(studentIDs) == 0 {
		return created, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []uint
		if err := tx.Model(&models.ClassMember{}).
			Where("class_id = ? AND student_id IN ?", classID, studentIDs).
			Pluck("student_id", &existing).Error; err != nil {
			return err
		}

		enrolled := make(map[uint]struct{}, len(existing))
		for _, id := range existing {
			enrolled[id] = struct{}{}
		}

		pending := make([]models.ClassMember, 0, len(studentIDs))
		for _, studentID := range studentIDs {
			if _, ok := enrolled[studentID]; ok {
				continue
			}
			enrolled[studentID] = struct{}{}
			pending = append(pending, models.ClassMember{ClassID: classID, StudentID: studentID})
		}

		var err error
		created, err = insertMembers(tx, pending)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// insertMembers inserts each membership on its own and returns only the rows
// the database accepted; pairs enrolled concurrently are dropped.
func insertMembers(tx *gorm.DB, members []models.ClassMember) ([]models.ClassMember, error) {
	inserted := make([]models.ClassMember, 0, len(members))
	for _, member := range members {
		result := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&member)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 || member.ID == 0 {
			continue
		}
		inserted = append(inserted, member)
	}
	return inserted, nil
}

func (r *classRepository) RemoveMember(ctx context.Context, classID, studentID uint) error {
	result := r.db.WithContext(ctx).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		Delete(&models.ClassMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *classRepository) Roster(ctx context.Context, classID uint) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).
		Joins("JOIN class_members ON class_members.student_id = students.id").
		Where("class_members.class_id = ?", classID).
		Order("students.register_number ASC").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (r *classRepository) GetMember(ctx context.Context, classID, studentID uint) (models.ClassMember, error) {
	var member models.ClassMember
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("class_id = ? AND student_id = ?", classID, studentID).
		First(&member).Error
	if err != nil {
		return models.ClassMember{}, err
	}
	return member, nil
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
