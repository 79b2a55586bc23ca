package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog/internal/domain"
	"github.com/Skotchmaster/blog/internal/models"
	"github.com/Skotchmaster/blog/internal/tokens"
)

var (
	ErrMissingCredentials = domain.Public(domain.ErrUnauthorized, "Please provide credentials in Authorization header")
	ErrBadCredentials     = domain.Public(domain.ErrUnauthorized, "Credentials are not ok!")
	ErrMissingToken       = domain.Public(domain.ErrUnauthorized, "missing access token")
	ErrUnsupportedScheme  = domain.Public(domain.ErrUnauthorized, "unsupported authorization scheme")
	ErrFederatedLogin     = domain.Public(domain.ErrUnauthorized, "external login failed")
)

// Strategy authenticates one request. Failed attempts return an error and no
// identity; nothing is written on the way out.
type Strategy interface {
	Name() string
	Authenticate(ctx context.Context, r *http.Request) (*Identity, error)
}

type CredentialChecker interface {
	CheckCredentials(ctx context.Context, email, plaintext string) (*models.Author, error)
}

type AccessVerifier interface {
	VerifyAccessToken(raw string) (*tokens.AccessClaims, error)
}

// splitAuthorization returns the scheme and credentials of the Authorization header.
func splitAuthorization(r *http.Request) (scheme, value string, ok bool) {
	h := strings.TrimSpace(r.Header.Get(echo.HeaderAuthorization))
	if h == "" {
		return "", "", false
	}
	scheme, value, _ = strings.Cut(h, " ")
	return scheme, strings.TrimSpace(value), true
}

// Basic checks base64 email:password credentials against the author store.
type Basic struct {
	Store CredentialChecker
}

func (b *Basic) Name() string { return "basic" }

func (b *Basic) Authenticate(ctx context.Context, r *http.Request) (*Identity, error) {
	scheme, value, ok := splitAuthorization(r)
	if !ok {
		return nil, ErrMissingCredentials
	}
	if !strings.EqualFold(scheme, "Basic") || value == "" {
		return nil, ErrBadCredentials
	}

	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, ErrBadCredentials
	}
	email, password, found := strings.Cut(string(raw), ":")
	if !found || email == "" {
		return nil, ErrBadCredentials
	}

	author, err := b.Store.CheckCredentials(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("check credentials: %w", err)
	}
	if author == nil {
		return nil, ErrBadCredentials
	}
	return fromAuthor(author, b.Name()), nil
}

// Bearer accepts a signed access token. It never touches the store.
type Bearer struct {
	Tokens AccessVerifier
}

func (b *Bearer) Name() string { return "bearer" }

func (b *Bearer) Authenticate(_ context.Context, r *http.Request) (*Identity, error) {
	scheme, value, ok := splitAuthorization(r)
	if !ok || !strings.EqualFold(scheme, "Bearer") || value == "" {
		return nil, ErrMissingToken
	}

	claims, err := b.Tokens.VerifyAccessToken(value)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, tokens.ErrInvalidToken
	}
	return &Identity{ID: id, Role: claims.Role, Strategy: b.Name()}, nil
}

// Scheme picks the strategy whose name matches the Authorization scheme.
type Scheme struct {
	Strategies []Strategy
}

func NewScheme(strategies ...Strategy) *Scheme {
	return &Scheme{Strategies: strategies}
}

func (s *Scheme) Name() string { return "scheme" }

func (s *Scheme) Authenticate(ctx context.Context, r *http.Request) (*Identity, error) {
	scheme, _, ok := splitAuthorization(r)
	if !ok {
		return nil, ErrMissingCredentials
	}
	for _, st := range s.Strategies {
		if strings.EqualFold(st.Name(), scheme) {
			return st.Authenticate(ctx, r)
		}
	}
	return nil, ErrUnsupportedScheme
}

// ExternalProfile is what an identity provider knows about the caller.
type ExternalProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
}

// IdentityProvider completes an external login from the callback request.
type IdentityProvider interface {
	Name() string
	Resolve(ctx context.Context, r *http.Request) (*ExternalProfile, error)
}

// AccountLinker maps an external profile onto a local author, creating it on
// first login.
type AccountLinker interface {
	LinkFederated(ctx context.Context, provider string, p ExternalProfile) (*models.Author, error)
}

// Federated authenticates an OAuth callback. The caller then issues tokens the
// same way password login does.
type Federated struct {
	Provider IdentityProvider
	Accounts AccountLinker
}

func (f *Federated) Name() string { return f.Provider.Name() }

func (f *Federated) Authenticate(ctx context.Context, r *http.Request) (*Identity, error) {
	profile, err := f.Provider.Resolve(ctx, r)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrFederatedLogin, err)
	}
	if profile.Email == "" {
		return nil, ErrFederatedLogin
	}

	author, err := f.Accounts.LinkFederated(ctx, f.Provider.Name(), *profile)
	if err != nil {
		return nil, err
	}
	return fromAuthor(author, f.Name()), nil
}
