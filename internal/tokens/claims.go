package tokens

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/blog/internal/domain"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

type AccessClaims struct {
	Role domain.Role `json:"role"`
	Type string      `json:"typ"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Pair is what login, refresh and federated login hand back to the client.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Digest is the form a refresh token is persisted in.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
