package hash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyPassword = errors.New("empty password")

// Hasher turns secrets into one-way digests and checks them back.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

type Bcrypt struct {
	Cost int
}

func NewBcrypt(cost int) Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Bcrypt{Cost: cost}
}

func (b Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(digest), nil
}

func (b Bcrypt) Verify(password, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
