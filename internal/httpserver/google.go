package httpserver

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog/internal/auth"
	"github.com/Skotchmaster/blog/internal/logging"
	"github.com/Skotchmaster/blog/internal/oauth"
	"github.com/Skotchmaster/blog/internal/service"
)

type GoogleHTTP struct {
	Provider *oauth.Google
	Svc      *service.AuthService

	// Strategy guards the callback; NewGoogleHTTP builds it from Provider and Svc.
	Strategy auth.Strategy

	// FEURL receives the tokens as query parameters when set.
	FEURL         string
	SecureCookies bool
}

func NewGoogleHTTP(p *oauth.Google, svc *service.AuthService, feURL string, secure bool) *GoogleHTTP {
	return &GoogleHTTP{
		Provider:      p,
		Svc:           svc,
		Strategy:      &auth.Federated{Provider: p, Accounts: svc},
		FEURL:         feURL,
		SecureCookies: secure,
	}
}

func (h *GoogleHTTP) Begin(c echo.Context) error {
	consent, cookie := h.Provider.Begin(h.SecureCookies)
	c.SetCookie(cookie)
	return c.Redirect(http.StatusFound, consent)
}

// Callback runs after the federated strategy resolved the caller.
func (h *GoogleHTTP) Callback(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "author.google_redirect")

	c.SetCookie(&http.Cookie{
		Name:     oauth.StateCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	pair, err := h.Svc.FederatedLogin(ctx, auth.FromContext(ctx))
	if err != nil {
		return fail(l, "google_login_failed", err)
	}
	l.Info("google_login_successful")

	if h.FEURL == "" {
		return c.JSON(http.StatusOK, pair)
	}
	q := url.Values{"accessToken": {pair.AccessToken}, "refreshToken": {pair.RefreshToken}}
	return c.Redirect(http.StatusFound, h.FEURL+"?"+q.Encode())
}
