package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog/internal/models"
)

func (r *GormRepo) ListComments(ctx context.Context, blogID uuid.UUID) ([]models.Comment, error) {
	if err := r.blogExists(ctx, blogID); err != nil {
		return nil, err
	}
	var items []models.Comment
	if err := r.DB.WithContext(ctx).Where("blog_id = ?", blogID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetComment(ctx context.Context, blogID, commentID uuid.UUID) (*models.Comment, error) {
	var c models.Comment
	if err := r.DB.WithContext(ctx).Where("id = ? AND blog_id = ?", commentID, blogID).First(&c).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("comment with id %s", commentID))
	}
	return &c, nil
}

func (r *GormRepo) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := r.blogExists(ctx, c.BlogID); err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) UpdateComment(ctx context.Context, c *models.Comment) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

func (r *GormRepo) DeleteComment(ctx context.Context, blogID, commentID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND blog_id = ?", commentID, blogID).Delete(&models.Comment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, fmt.Sprintf("comment with id %s", commentID))
	}
	return nil
}
