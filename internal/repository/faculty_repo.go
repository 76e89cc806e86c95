package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/rollcall-api/internal/models"
)

// FacultyRepository provides access to faculty accounts.
type FacultyRepository interface {
	Create(ctx context.Context, faculty *models.Faculty) error
	GetByID(ctx context.Context, id uint) (models.Faculty, error)
	GetByEmail(ctx context.Context, email string) (models.Faculty, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
}

type facultyRepository struct {
	db *gorm.DB
}

// NewFacultyRepository constructs a faculty repository.
func NewFacultyRepository(db *gorm.DB) FacultyRepository {
	return &facultyRepository{db: db}
}

func (r *facultyRepository) Create(ctx context.Context, faculty *models.Faculty) error {
	faculty.Email = strings.ToLower(strings.TrimSpace(faculty.Email))
	return r.db.WithContext(ctx).Create(faculty).Error
}

func (r *facultyRepository) GetByID(ctx context.Context, id uint) (models.Faculty, error) {
	var faculty models.Faculty
	if err := r.db.WithContext(ctx).First(&faculty, id).Error; err != nil {
		return models.Faculty{}, err
	}
	return faculty, nil
}

func (r *facultyRepository) GetByEmail(ctx context.Context, email string) (models.Faculty, error) {
	var faculty models.Faculty
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&faculty).Error
	if err != nil {
		return models.Faculty{}, err
	}
	return faculty, nil
}

func (r *facultyRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&models.Faculty{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
