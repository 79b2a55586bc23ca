package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/blog/internal/auth"
	"github.com/Skotchmaster/blog/internal/domain"
	"github.com/Skotchmaster/blog/internal/events"
	"github.com/Skotchmaster/blog/internal/logging"
	"github.com/Skotchmaster/blog/internal/models"
	"github.com/Skotchmaster/blog/internal/repo"
	"github.com/Skotchmaster/blog/internal/tokens"
)

var ErrEmailNotVerified = domain.Public(domain.ErrUnauthorized, "external email is not verified")

type AuthService struct {
	Repo   *repo.GormRepo
	Tokens *tokens.Service
	Events Publisher
}

type RegisterInput struct {
	Name        string
	Surname     string
	Email       string
	Password    string
	DateOfBirth string
	Avatar      string
}

func (in RegisterInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Surname) == "" ||
		strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return domain.Public(domain.ErrValidation, "name, surname, email and password are required")
	}
	if !strings.Contains(in.Email, "@") {
		return domain.Public(domain.ErrValidation, "email is not valid")
	}
	return nil
}

// Register creates a password account. The role is always user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.Author, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")
	if err := in.validate(); err != nil {
		l.Warn("register_error", "status", 400, "reason", domain.Message(err, ""))
		return nil, err
	}

	author := &models.Author{
		Name:        in.Name,
		Surname:     in.Surname,
		Email:       in.Email,
		DateOfBirth: in.DateOfBirth,
		Avatar:      in.Avatar,
		Role:        domain.RoleUser,
	}
	if err := s.Repo.CreateAuthor(ctx, author, in.Password); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			l.Warn("register_error", "status", 409, "reason", "email already in use")
		} else {
			l.Error("register_error", "status", 500, "error", err)
		}
		return nil, err
	}

	l.Info("register_success", "author_id", author.ID)
	publish(ctx, s.Events, events.TopicAuthors, "author_created", author.ID, author.ID, nil)
	return author, nil
}

// Login answers unknown email and wrong password identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	author, err := s.Repo.CheckCredentials(ctx, email, password)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if author == nil {
		l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		return nil, auth.ErrBadCredentials
	}

	pair, err := s.Tokens.IssueTokenPair(ctx, author)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	l.Info("login_successful", "author_id", author.ID)
	return pair, nil
}

func (s *AuthService) Refresh(ctx context.Context, current string) (*tokens.Pair, error) {
	if strings.TrimSpace(current) == "" {
		return nil, tokens.ErrLoginAgain
	}
	return s.Tokens.RotateFromRefreshToken(ctx, current)
}

func (s *AuthService) Logout(ctx context.Context, id uuid.UUID) error {
	if err := s.Tokens.Revoke(ctx, id); err != nil {
		logging.FromContext(ctx).Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return err
	}
	return nil
}

// LinkFederated finds the author by email, attaching the external subject on
// first use, or creates a password-less author. Only provider-verified emails
// are accepted.
func (s *AuthService) LinkFederated(ctx context.Context, provider string, p auth.ExternalProfile) (*models.Author, error) {
	l := logging.FromContext(ctx).With("svc", "auth.federated", "provider", provider)
	if !p.EmailVerified {
		l.Warn("federated_login_rejected", "status", 401, "reason", "email not verified")
		return nil, ErrEmailNotVerified
	}

	author, err := s.Repo.FindAuthorByEmail(ctx, p.Email)
	switch {
	case err == nil:
		if author.GoogleID == nil && provider == "google" && p.Subject != "" {
			author, err = s.Repo.UpdateAuthor(ctx, author.ID, repo.AuthorPatch{GoogleID: &p.Subject})
			if err != nil {
				return nil, err
			}
		}
		return author, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	author = &models.Author{
		Name:    p.GivenName,
		Surname: p.FamilyName,
		Email:   p.Email,
		Role:    domain.RoleUser,
	}
	if provider == "google" && p.Subject != "" {
		author.GoogleID = &p.Subject
	}
	if err := s.Repo.CreateAuthor(ctx, author, ""); err != nil {
		return nil, err
	}
	l.Info("federated_author_created", "author_id", author.ID)
	publish(ctx, s.Events, events.TopicAuthors, "author_created", author.ID, author.ID, providerData(provider))
	return author, nil
}

func providerData(provider string) map[string]string {
	return map[string]string{"provider": provider}
}

// FederatedLogin issues tokens for an identity a federated strategy produced.
func (s *AuthService) FederatedLogin(ctx context.Context, id *auth.Identity) (*tokens.Pair, error) {
	if id == nil || id.Author == nil {
		return nil, auth.ErrNoIdentity
	}
	return s.Tokens.IssueTokenPair(ctx, id.Author)
}

func (s *AuthService) ListAuthors(ctx context.Context, offset, limit int) (int64, []models.Author, error) {
	return s.Repo.ListAuthors(ctx, offset, limit)
}

func (s *AuthService) GetAuthor(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	return s.Repo.FindAuthorByID(ctx, id)
}

// UpdateProfile applies a self-service edit. Role changes are ignored.
func (s *AuthService) UpdateProfile(ctx context.Context, who *auth.Identity, patch repo.AuthorPatch) (*models.Author, error) {
	if who == nil {
		return nil, auth.ErrNoIdentity
	}
	patch.Role = nil
	patch.GoogleID = nil
	return s.updateAuthor(ctx, who.ID, who.ID, patch)
}

// UpdateAuthorAsAdmin may also change the role.
func (s *AuthService) UpdateAuthorAsAdmin(ctx context.Context, who *auth.Identity, id uuid.UUID, patch repo.AuthorPatch) (*models.Author, error) {
	if err := auth.RequireRole(who, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, domain.Public(domain.ErrValidation, "role must be admin or user")
	}
	patch.GoogleID = nil
	return s.updateAuthor(ctx, who.ID, id, patch)
}

func (s *AuthService) updateAuthor(ctx context.Context, actor, id uuid.UUID, patch repo.AuthorPatch) (*models.Author, error) {
	if patch.Password != nil && *patch.Password == "" {
		return nil, domain.Public(domain.ErrValidation, "password cannot be empty")
	}
	author, err := s.Repo.UpdateAuthor(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, events.TopicAuthors, "author_updated", id, actor, nil)
	return author, nil
}

func (s *AuthService) DeleteAuthor(ctx context.Context, who *auth.Identity, id uuid.UUID) error {
	if who == nil {
		return auth.ErrNoIdentity
	}
	if who.ID != id {
		if err := auth.RequireRole(who, domain.RoleAdmin); err != nil {
			return err
		}
	}
	if err := s.Repo.DeleteAuthor(ctx, id); err != nil {
		return err
	}
	publish(ctx, s.Events, events.TopicAuthors, "author_deleted", id, who.ID, nil)
	return nil
}

func (s *AuthService) Stories(ctx context.Context, id uuid.UUID) ([]models.Blog, error) {
	return s.Repo.BlogsByAuthor(ctx, id)
}
