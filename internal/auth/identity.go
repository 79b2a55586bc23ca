package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/blog/internal/domain"
	"github.com/Skotchmaster/blog/internal/models"
)

// Identity is what a successful strategy hands to gates and handlers.
type Identity struct {
	ID       uuid.UUID
	Role     domain.Role
	Strategy string

	// Author is the full record when the strategy loaded it (basic, federated).
	Author *models.Author
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by WithIdentity, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

func fromAuthor(a *models.Author, strategy string) *Identity {
	return &Identity{ID: a.ID, Role: a.Role, Strategy: strategy, Author: a}
}
