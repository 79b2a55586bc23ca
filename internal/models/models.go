package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog/internal/domain"
)

type Author struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"                     json:"_id"`
	Name         string      `gorm:"not null"                                 json:"name"`
	Surname      string      `gorm:"not null"                                 json:"surname"`
	Email        string      `gorm:"uniqueIndex;not null"                     json:"email"`
	DateOfBirth  string      `                                                json:"dateOfBirth,omitempty"`
	Avatar       string      `                                                json:"avatar,omitempty"`
	PasswordHash *string     `                                                json:"-"`
	Role         domain.Role `gorm:"type:varchar(16);not null;default:user"   json:"role"`
	RefreshToken *string     `                                                json:"-"`
	GoogleID     *string     `gorm:"uniqueIndex"                              json:"googleId,omitempty"`
	CreatedAt    time.Time   `                                                json:"createdAt"`
	UpdatedAt    time.Time   `                                                json:"updatedAt"`
}

func (a *Author) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Role == "" {
		a.Role = domain.RoleUser
	}
	return nil
}

type Blog struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"             json:"_id"`
	Category      string    `gorm:"not null;index"                   json:"category"`
	Title         string    `gorm:"not null"                         json:"title"`
	Cover         string    `                                        json:"cover,omitempty"`
	ReadTimeValue int       `gorm:"not null"                         json:"readTimeValue"`
	ReadTimeUnit  string    `gorm:"not null"                         json:"readTimeUnit"`
	Content       string    `gorm:"not null"                         json:"content"`
	Authors       []Author  `gorm:"many2many:blog_authors"           json:"authors"`
	Comments      []Comment `gorm:"constraint:OnDelete:CASCADE"      json:"comments,omitempty"`
	CreatedAt     time.Time `                                        json:"createdAt"`
	UpdatedAt     time.Time `                                        json:"updatedAt"`
}

func (b *Blog) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// OwnerIDs lists the authors allowed to modify the blog.
func (b *Blog) OwnerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.Authors))
	for _, a := range b.Authors {
		ids = append(ids, a.ID)
	}
	return ids
}

type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"       json:"_id"`
	BlogID    uuid.UUID `gorm:"type:uuid;index;not null"   json:"blogId"`
	AuthorID  uuid.UUID `gorm:"type:uuid;index;not null"   json:"authorId"`
	Comment   string    `gorm:"not null"                   json:"comment"`
	Rate      int       `gorm:"not null"                   json:"rate"`
	CreatedAt time.Time `                                  json:"createdAt"`
	UpdatedAt time.Time `                                  json:"updatedAt"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Like struct {
	ID        uint      `gorm:"primaryKey"                                    json:"id"`
	BlogID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_like_pair"  json:"blogId"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_like_pair"  json:"authorId"`
	CreatedAt time.Time `                                                     json:"createdAt"`
}

// All lists every model for auto-migration.
func All() []any {
	return []any{&Author{}, &Blog{}, &Comment{}, &Like{}}
}
