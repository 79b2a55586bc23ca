package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog/internal/domain"
	"github.com/Skotchmaster/blog/internal/models"
)

type BlogFilter struct {
	Category string
	Title    string
}

type BlogPatch struct {
	Category      *string
	Title         *string
	ReadTimeValue *int
	ReadTimeUnit  *string
	Content       *string
}

func blogNotFound(id uuid.UUID) error {
	return domain.Public(domain.ErrNotFound, fmt.Sprintf("blog with id %s not found", id))
}

func (r *GormRepo) GetBlog(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	var blog models.Blog
	err := r.DB.WithContext(ctx).
		Preload("Authors").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&blog).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("blog with id %s", id))
	}
	return &blog, nil
}

func (r *GormRepo) ListBlogs(ctx context.Context, f BlogFilter, offset, limit int) (int64, []models.Blog, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if f.Category != "" {
			db = db.Where("category = ?", f.Category)
		}
		if f.Title != "" {
			db = db.Where("LOWER(title) LIKE LOWER(?)", "%"+f.Title+"%")
		}
		return db
	}

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Blog{}).Scopes(filter).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Blog
	if err := r.DB.WithContext(ctx).Scopes(filter).Preload("Authors").Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) BlogsByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Blog, error) {
	var items []models.Blog
	err := r.DB.WithContext(ctx).
		Joins("JOIN blog_authors ON blog_authors.blog_id = blogs.id").
		Where("blog_authors.author_id = ?", authorID).
		Preload("Authors").
		Order("blogs.created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CreateBlog stores blog and links it to the given owners, which must exist.
func (r *GormRepo) CreateBlog(ctx context.Context, blog *models.Blog, ownerIDs []uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owners []models.Author
		if err := tx.Where("id IN ?", ownerIDs).Find(&owners).Error; err != nil {
			return err
		}
		if len(owners) != len(ownerIDs) {
			return domain.Public(domain.ErrValidation, "unknown author in authors list")
		}
		blog.Authors = owners
		return tx.Omit("Authors.*").Create(blog).Error
	})
}

func (r *GormRepo) UpdateBlog(ctx context.Context, id uuid.UUID, patch BlogPatch) (*models.Blog, error) {
	blog, err := r.GetBlog(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Category != nil {
		blog.Category = *patch.Category
	}
	if patch.Title != nil {
		blog.Title = *patch.Title
	}
	if patch.ReadTimeValue != nil {
		blog.ReadTimeValue = *patch.ReadTimeValue
	}
	if patch.ReadTimeUnit != nil {
		blog.ReadTimeUnit = *patch.ReadTimeUnit
	}
	if patch.Content != nil {
		blog.Content = *patch.Content
	}

	if err := r.DB.WithContext(ctx).Omit("Authors", "Comments").Save(blog).Error; err != nil {
		return nil, err
	}
	return blog, nil
}

func (r *GormRepo) SetCover(ctx context.Context, id uuid.UUID, cover string) error {
	res := r.DB.WithContext(ctx).Model(&models.Blog{}).Where("id = ?", id).Update("cover", cover)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return blogNotFound(id)
	}
	return nil
}

func (r *GormRepo) DeleteBlog(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("blog_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("blog_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM blog_authors WHERE blog_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Blog{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return blogNotFound(id)
		}
		return nil
	})
}

func (r *GormRepo) blogExists(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Blog{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return blogNotFound(id)
	}
	return nil
}
