package repo

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog/internal/domain"
	"github.com/Skotchmaster/blog/internal/hash"
)

type GormRepo struct {
	DB     *gorm.DB
	Hasher hash.Hasher

	// digest compared against when an email is unknown, so a miss costs
	// the same as a wrong password
	dummyDigest string
}

func NewGormRepo(db *gorm.DB, h hash.Hasher) *GormRepo {
	r := &GormRepo{DB: db, Hasher: h}
	if d, err := h.Hash("no-such-author-placeholder"); err == nil {
		r.dummyDigest = d
	}
	return r
}

// notFound converts gorm's miss into the domain sentinel.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Public(domain.ErrNotFound, what+" not found")
	}
	return err
}

func duplicate(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Public(domain.ErrConflict, msg)
	}
	return err
}
