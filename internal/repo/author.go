package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog/internal/domain"
	"github.com/Skotchmaster/blog/internal/models"
)

// AuthorPatch carries the fields a profile edit may change. Nil means untouched.
type AuthorPatch struct {
	Name        *string
	Surname     *string
	Email       *string
	DateOfBirth *string
	Avatar      *string
	Password    *string
	Role        *domain.Role
	GoogleID    *string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *GormRepo) FindAuthorByEmail(ctx context.Context, email string) (*models.Author, error) {
	var author models.Author
	if err := r.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&author).Error; err != nil {
		return nil, notFound(err, "author")
	}
	return &author, nil
}

func (r *GormRepo) FindAuthorByID(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	var author models.Author
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&author).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("author with id %s", id))
	}
	return &author, nil
}

func (r *GormRepo) ListAuthors(ctx context.Context, offset, limit int) (int64, []models.Author, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Author{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Author
	if err := r.DB.WithContext(ctx).Order("created_at ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// CreateAuthor stores a new author. The password is hashed here and only the
// digest is persisted; an empty password leaves the author without one, which
// is how federated identities are created.
func (r *GormRepo) CreateAuthor(ctx context.Context, author *models.Author, password string) error {
	author.Email = normalizeEmail(author.Email)
	if password != "" {
		digest, err := r.Hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		author.PasswordHash = &digest
	}

	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Author{}).Where("email = ?", author.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.Public(domain.ErrConflict, "email already in use")
	}

	if err := r.DB.WithContext(ctx).Create(author).Error; err != nil {
		return duplicate(err, "email already in use")
	}
	return nil
}

// UpdateAuthor writes only the patched columns. Refresh state is never part of
// a profile write; it changes through SetRefreshToken and SwapRefreshToken.
func (r *GormRepo) UpdateAuthor(ctx context.Context, id uuid.UUID, patch AuthorPatch) (*models.Author, error) {
	author, err := r.FindAuthorByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cols := map[string]any{}
	if patch.Name != nil {
		cols["name"] = *patch.Name
	}
	if patch.Surname != nil {
		cols["surname"] = *patch.Surname
	}
	if patch.DateOfBirth != nil {
		cols["date_of_birth"] = *patch.DateOfBirth
	}
	if patch.Avatar != nil {
		cols["avatar"] = *patch.Avatar
	}
	if patch.Role != nil {
		cols["role"] = *patch.Role
	}
	if patch.GoogleID != nil {
		cols["google_id"] = *patch.GoogleID
	}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if email != author.Email {
			var count int64
			if err := r.DB.WithContext(ctx).Model(&models.Author{}).
				Where("email = ? AND id <> ?", email, id).
				Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, domain.Public(domain.ErrConflict, "email already in use")
			}
			cols["email"] = email
		}
	}
	if patch.Password != nil {
		digest, err := r.Hasher.Hash(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		cols["password_hash"] = digest
	}

	if len(cols) == 0 {
		return author, nil
	}
	if err := r.DB.WithContext(ctx).Model(&models.Author{}).Where("id = ?", id).Updates(cols).Error; err != nil {
		return nil, duplicate(err, "email already in use")
	}
	return r.FindAuthorByID(ctx, id)
}

// DeleteAuthor removes the author with their likes, comments and blog links.
func (r *GormRepo) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("author_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM blog_authors WHERE author_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Author{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.Public(domain.ErrNotFound, fmt.Sprintf("author with id %s not found", id))
		}
		return nil
	})
}

// CheckCredentials returns the author owning email when plaintext matches the
// stored digest. Unknown email, missing digest and wrong password all yield
// (nil, nil); only store failures produce an error.
func (r *GormRepo) CheckCredentials(ctx context.Context, email, plaintext string) (*models.Author, error) {
	author, err := r.FindAuthorByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.Hasher.Verify(plaintext, r.dummyDigest)
			return nil, nil
		}
		return nil, err
	}
	if author.PasswordHash == nil {
		r.Hasher.Verify(plaintext, r.dummyDigest)
		return nil, nil
	}
	if !r.Hasher.Verify(plaintext, *author.PasswordHash) {
		return nil, nil
	}
	return author, nil
}

// SetRefreshToken overwrites the stored refresh digest; nil clears it.
func (r *GormRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, digest *string) error {
	res := r.DB.WithContext(ctx).Model(&models.Author{}).Where("id = ?", id).Update("refresh_token", digest)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Public(domain.ErrNotFound, fmt.Sprintf("author with id %s not found", id))
	}
	return nil
}

// SwapRefreshToken replaces the stored digest only while it still equals
// expected. It reports false when another writer got there first.
func (r *GormRepo) SwapRefreshToken(ctx context.Context, id uuid.UUID, expected, next string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Author{}).
		Where("id = ? AND refresh_token = ?", id, expected).
		Update("refresh_token", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
