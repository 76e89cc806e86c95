package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/rollcall-api/internal/models"
)

// StudentRepository provides access to student records.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByRegisterNumber(ctx context.Context, registerNumber string) (models.Student, error)
	ListByRegisterNumbers(ctx context.Context, registerNumbers []string) ([]models.Student, error)
	CreateMany(ctx context.Context, students []models.Student) ([]models.Student, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string, mustChange bool) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetByRegisterNumber(ctx context.Context, registerNumber string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("register_number = ?", registerNumber).First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) ListByRegisterNumbers(ctx context.Context, registerNumbers []string) ([]models.Student, error) {
	students := make([]models.Student, 0, len(registerNumbers))
	if len(registerNumbers) == 0 {
		return students, nil
	}

	err := r.db.WithContext(ctx).
		Where("register_number IN ?", registerNumbers).
		Order("register_number ASC").
		Find(&students).Error
	if err != nil {
		return nil, err
	}

	return students, nil
}

// CreateMany inserts the students whose register numbers are not taken yet
// and returns only the rows it created.
func (r *studentRepository) CreateMany(ctx context.Context, students []models.Student) ([]models.Student, error) {
	created := make([]models.Student, 0, len(students))
	if len(students) == 0 {
		return created, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		numbers := make([]string, 0, len(students))
		for _, student := range students {
			numbers = append(numbers, student.RegisterNumber)
		}

		var existing []string
		if err := tx.Model(&models.Student{}).Where("register_number IN ?", numbers).Pluck("register_number", &existing).Error; err != nil {
			return err
		}
		taken := make(map[string]struct{}, len(existing))
		for _, number := range existing {
			taken[number] = struct{}{}
		}

		for _, student := range students {
			if _, ok := taken[student.RegisterNumber]; ok {
				continue
			}
			taken[student.RegisterNumber] = struct{}{}
			created = append(created, student)
		}

		if len(created) == 0 {
			return nil
		}

		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&created).Error
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *studentRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string, mustChange bool) error {
	result := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password_hash":        passwordHash,
		"must_change_password": mustChange,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
