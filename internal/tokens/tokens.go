package tokens

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/blog/internal/domain"
	"github.com/Skotchmaster/blog/internal/logging"
	"github.com/Skotchmaster/blog/internal/metrics"
	"github.com/Skotchmaster/blog/internal/models"
)

var (
	ErrInvalidToken = domain.Public(domain.ErrUnauthorized, "invalid or expired token")
	ErrLoginAgain   = domain.Public(domain.ErrUnauthorized, "Please log in again!")
)

// Store persists the single live refresh token of each author.
type Store interface {
	FindAuthorByID(ctx context.Context, id uuid.UUID) (*models.Author, error)
	SetRefreshToken(ctx context.Context, id uuid.UUID, digest *string) error
	SwapRefreshToken(ctx context.Context, id uuid.UUID, expected, next string) (bool, error)
}

type Service struct {
	Store         Store
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) CreateAccessToken(id uuid.UUID, role domain.Role) (string, error) {
	now := s.now()
	claims := AccessClaims{
		Role: role,
		Type: typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.AccessTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.AccessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	metrics.TokensIssued.WithLabelValues(typeAccess).Inc()
	return token, nil
}

// CreateRefreshToken signs a refresh token. Each one carries a fresh jti, so
// two tokens minted within the same second still differ.
func (s *Service) CreateRefreshToken(id uuid.UUID) (string, error) {
	now := s.now()
	claims := RefreshClaims{
		Type: typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.RefreshTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.RefreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	metrics.TokensIssued.WithLabelValues(typeRefresh).Inc()
	return token, nil
}

// IssueTokenPair mints both tokens and makes the new refresh token the only
// valid one for the author.
func (s *Service) IssueTokenPair(ctx context.Context, author *models.Author) (*Pair, error) {
	return s.issue(ctx, author, nil)
}

// issue is the single place stored refresh state changes on token issuance.
// With expected set, the write only lands if the stored digest still equals it.
func (s *Service) issue(ctx context.Context, author *models.Author, expected *string) (*Pair, error) {
	access, err := s.CreateAccessToken(author.ID, author.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.CreateRefreshToken(author.ID)
	if err != nil {
		return nil, err
	}

	digest := Digest(refresh)
	if expected == nil {
		if err := s.Store.SetRefreshToken(ctx, author.ID, &digest); err != nil {
			return nil, fmt.Errorf("store refresh token: %w", err)
		}
	} else {
		swapped, err := s.Store.SwapRefreshToken(ctx, author.ID, *expected, digest)
		if err != nil {
			return nil, fmt.Errorf("rotate refresh token: %w", err)
		}
		if !swapped {
			logging.FromContext(ctx).Warn("refresh_rejected", "reason", "concurrent rotation", "author_id", author.ID)
			return nil, ErrLoginAgain
		}
	}

	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) parserOptions() []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
}

func (s *Service) VerifyAccessToken(raw string) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.AccessSecret, nil
	}, s.parserOptions()...)
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != typeAccess || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (s *Service) verifyRefreshToken(raw string) (*RefreshClaims, error) {
	var claims RefreshClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.RefreshSecret, nil
	}, s.parserOptions()...)
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}
	if claims.Type != typeRefresh {
		return nil, errors.New("not a refresh token")
	}
	return &claims, nil
}

// RotateFromRefreshToken trades the author's current refresh token for a new
// pair. Every rejection surfaces as ErrLoginAgain; the reason is only logged.
func (s *Service) RotateFromRefreshToken(ctx context.Context, current string) (*Pair, error) {
	l := logging.FromContext(ctx).With("svc", "tokens.rotate")

	claims, err := s.verifyRefreshToken(current)
	if err != nil {
		l.Warn("refresh_rejected", "reason", "verification failed", "error", err)
		return nil, ErrLoginAgain
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		l.Warn("refresh_rejected", "reason", "bad subject")
		return nil, ErrLoginAgain
	}

	author, err := s.Store.FindAuthorByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.Warn("refresh_rejected", "reason", "author missing", "author_id", id)
			return nil, ErrLoginAgain
		}
		return nil, fmt.Errorf("load author: %w", err)
	}

	presented := Digest(current)
	if author.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*author.RefreshToken), []byte(presented)) != 1 {
		l.Warn("refresh_rejected", "reason", "token does not match stored value", "author_id", id)
		return nil, ErrLoginAgain
	}

	return s.issue(ctx, author, author.RefreshToken)
}

// Revoke drops the author's refresh token, ending the session.
func (s *Service) Revoke(ctx context.Context, id uuid.UUID) error {
	if err := s.Store.SetRefreshToken(ctx, id, nil); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
