package auth

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/Skotchmaster/blog/internal/domain"
)

var (
	ErrAdminsOnly = domain.Public(domain.ErrForbidden, "Admins only endpoint!")
	ErrNotOwner   = domain.Public(domain.ErrForbidden, "You are not the owner of this resource")

	// ErrNoIdentity means a gate ran before any strategy did.
	ErrNoIdentity = errors.New("authorization gate reached without an identity")
)

func RequireRole(id *Identity, role domain.Role) error {
	if id == nil {
		return ErrNoIdentity
	}
	if id.Role == role {
		return nil
	}
	if role == domain.RoleAdmin {
		return ErrAdminsOnly
	}
	return domain.Public(domain.ErrForbidden, fmt.Sprintf("%s role required", role))
}

// RequireOwnership passes when id is one of owners. Pass a single owner or
// spread a collection: RequireOwnership(id, blog.OwnerIDs()...).
func RequireOwnership(id *Identity, owners ...uuid.UUID) error {
	if id == nil {
		return ErrNoIdentity
	}
	if slices.Contains(owners, id.ID) {
		return nil
	}
	return ErrNotOwner
}
