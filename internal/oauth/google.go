package oauth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Skotchmaster/blog/internal/auth"
	"github.com/Skotchmaster/blog/internal/domain"
)

const (
	StateCookie         = "oauth_state"
	defaultUserInfoURL  = "https://openidconnect.googleapis.com/v1/userinfo"
	stateCookieLifetime = 10 * time.Minute
)

var ErrStateMismatch = domain.Public(domain.ErrUnauthorized, "external login failed")

type Google struct {
	Config      *oauth2.Config
	UserInfoURL string
}

// NewGoogle registers <apiURL>/authors/googleRedirect as the callback.
func NewGoogle(clientID, clientSecret, apiURL string) *Google {
	return &Google{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  apiURL + "/authors/googleRedirect",
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		UserInfoURL: defaultUserInfoURL,
	}
}

func (g *Google) Name() string { return "google" }

// Begin returns the consent URL and the state cookie the callback will check.
func (g *Google) Begin(secure bool) (string, *http.Cookie) {
	state := uuid.NewString()
	cookie := &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(stateCookieLifetime),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return g.Config.AuthCodeURL(state), cookie
}

type userInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

// Resolve checks state, exchanges the code and fetches the profile.
func (g *Google) Resolve(ctx context.Context, r *http.Request) (*auth.ExternalProfile, error) {
	q := r.URL.Query()
	cookie, err := r.Cookie(StateCookie)
	if err != nil || cookie.Value == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(q.Get("state"))) != 1 {
		return nil, ErrStateMismatch
	}
	code := q.Get("code")
	if code == "" {
		return nil, ErrStateMismatch
	}

	tok, err := g.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := g.Config.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch userinfo: status %d", res.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &auth.ExternalProfile{
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		GivenName:     info.GivenName,
		FamilyName:    info.FamilyName,
	}, nil
}
