package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/rollcall-api/internal/models"
)

// PostUpdate carries the mutable fields of a post. Nil fields are left as is.
type PostUpdate struct {
	Title       *string
	Description *string
	ClassIDs    *[]uint
}

// PostRepository persists coursework posts and their class access grants.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, classIDs []uint) error
	GetByID(ctx context.Context, id uint) (models.Post, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]models.Post, int64, error)
	ListForStudent(ctx context.Context, studentID uint, limit, offset int) ([]models.Post, int64, error)
	Update(ctx context.Context, id uint, update PostUpdate) (models.Post, error)
	SetDocument(ctx context.Context, id uint, source string) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository constructs a post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post, classIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Access").Create(post).Error; err != nil {
			return err
		}
		access, err := grantAccess(tx, post.ID, classIDs)
		if err != nil {
			return err
		}
		post.Access = access
		return nil
	})
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Access.Class").First(&post, id).Error; err != nil {
		return models.Post{}, err
	}
	return post, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]models.Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID)
	return r.page(query, limit, offset)
}

func (r *postRepository) ListForStudent(ctx context.Context, studentID uint, limit, offset int) ([]models.Post, int64, error) {
	visible := r.db.Model(&models.PostAccess{}).
		Select("post_accesses.post_id").
		Joins("JOIN class_members ON class_members.class_id = post_accesses.class_id").
		Where("class_members.student_id = ?", studentID)

	query := r.db.WithContext(ctx).Model(&models.Post{}).Where("id IN (?)", visible)
	return r.page(query, limit, offset)
}

func (r *postRepository) page(query *gorm.DB, limit, offset int) ([]models.Post, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var posts []models.Post
	err := query.Preload("Access.Class").
		Order("created_at DESC").
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) Update(ctx context.Context, id uint, update PostUpdate) (models.Post, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if update.Title != nil {
			fields["title"] = *update.Title
		}
		if update.Description != nil {
			fields["description"] = *update.Description
		}
		if len(fields) > 0 {
			if err := tx.Model(&post).Updates(fields).Error; err != nil {
				return err
			}
		}

		if update.ClassIDs != nil {
			if err := tx.Where("post_id = ?", id).Delete(&models.PostAccess{}).Error; err != nil {
				return err
			}
			if _, err := grantAccess(tx, id, *update.ClassIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Post{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *postRepository) SetDocument(ctx context.Context, id uint, source string) error {
	result := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Update("document_source", source)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.PostAccess{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func grantAccess(tx *gorm.DB, postID uint, classIDs []uint) ([]models.PostAccess, error) {
	access := make([]models.PostAccess, 0, len(classIDs))
	seen := make(map[uint]struct{}, len(classIDs))
	for _, classID := range classIDs {
		if _, ok := seen[classID]; ok {
			continue
		}
		seen[classID] = struct{}{}
		access = append(access, models.PostAccess{PostID: postID, ClassID: classID})
	}
	if len(access) == 0 {
		return access, nil
	}

	if err := tx.Omit("Class").Clauses(clause.OnConflict{DoNothing: true}).Create(&access).Error; err != nil {
		return nil, err
	}
	return access, nil
}
