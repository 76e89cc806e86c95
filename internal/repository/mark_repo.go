package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/rollcall-api/internal/models"
)

// MarkRepository persists internal assessment marks.
type MarkRepository interface {
	Upsert(ctx context.Context, marks []models.Mark) ([]models.Mark, error)
	ListByClass(ctx context.Context, classID uint, exam *models.Exam) ([]models.Mark, error)
	GetByID(ctx context.Context, id uint) (models.Mark, error)
	UpdateMark(ctx context.Context, id uint, mark float64) (models.Mark, error)
	Delete(ctx context.Context, id uint) error
}

type markRepository struct {
	db *gorm.DB
}

// NewMarkRepository constructs a mark repository.
func NewMarkRepository(db *gorm.DB) MarkRepository {
	return &markRepository{db: db}
}

// Upsert writes the marks, replacing the score of any existing entry for the
// same class, register number and exam.
func (r *markRepository) Upsert(ctx context.Context, marks []models.Mark) ([]models.Mark, error) {
	if len(marks) == 0 {
		return []models.Mark{}, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "class_id"}, {Name: "register_number"}, {Name: "exam"}},
			DoUpdates: clause.AssignmentColumns([]string{"mark", "updated_at"}),
		}).Create(&marks).Error
		if err != nil {
			return err
		}

		// Conflicting rows keep their original ids, so read them back.
		for i := range marks {
			var stored models.Mark
			if err := tx.Where("class_id = ? AND register_number = ? AND exam = ?",
				marks[i].ClassID, marks[i].RegisterNumber, marks[i].Exam).
				First(&stored).Error; err != nil {
				return err
			}
			marks[i] = stored
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return marks, nil
}

func (r *markRepository) ListByClass(ctx context.Context, classID uint, exam *models.Exam) ([]models.Mark, error) {
	query := r.db.WithContext(ctx).Where("class_id = ?", classID)
	if exam != nil {
		query = query.Where("exam = ?", *exam)
	}

	var marks []models.Mark
	if err := query.Order("register_number ASC").Order("exam ASC").Find(&marks).Error; err != nil {
		return nil, err
	}
	return marks, nil
}

func (r *markRepository) GetByID(ctx context.Context, id uint) (models.Mark, error) {
	var mark models.Mark
	if err := r.db.WithContext(ctx).First(&mark, id).Error; err != nil {
		return models.Mark{}, err
	}
	return mark, nil
}

func (r *markRepository) UpdateMark(ctx context.Context, id uint, value float64) (models.Mark, error) {
	result := r.db.WithContext(ctx).Model(&models.Mark{}).Where("id = ?", id).Update("mark", value)
	if result.Error != nil {
		return models.Mark{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Mark{}, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *markRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Mark{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
