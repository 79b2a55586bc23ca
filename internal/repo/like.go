package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog/internal/models"
)

// ToggleLike adds the author's like to the blog, or removes it when present.
func (r *GormRepo) ToggleLike(ctx context.Context, blogID, authorID uuid.UUID) (bool, int64, error) {
	var liked bool
	var count int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var blogs int64
		if err := tx.Model(&models.Blog{}).Where("id = ?", blogID).Count(&blogs).Error; err != nil {
			return err
		}
		if blogs == 0 {
			return blogNotFound(blogID)
		}

		var existing models.Like
		err := tx.Where("blog_id = ? AND author_id = ?", blogID, authorID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.Like{BlogID: blogID, AuthorID: authorID}).Error; err != nil {
				return err
			}
			liked = true
		default:
			return err
		}

		return tx.Model(&models.Like{}).Where("blog_id = ?", blogID).Count(&count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (r *GormRepo) CountLikes(ctx context.Context, blogID uuid.UUID) (int64, error) {
	if err := r.blogExists(ctx, blogID); err != nil {
		return 0, err
	}
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Like{}).Where("blog_id = ?", blogID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
