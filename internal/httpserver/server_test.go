package httpserver_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog/internal/auth"
	"github.com/Skotchmaster/blog/internal/domain"
	"github.com/Skotchmaster/blog/internal/httpserver"
	"github.com/Skotchmaster/blog/internal/repo"
	"github.com/Skotchmaster/blog/internal/repo/repotest"
	"github.com/Skotchmaster/blog/internal/service"
	"github.com/Skotchmaster/blog/internal/tokens"
)

type memCovers struct{}

func (memCovers) PutCover(_ context.Context, blogID uuid.UUID, filename, _ string, r io.Reader, _ int64) (string, error) {
	_, err := io.ReadAll(r)
	return "http://cdn.local/blogs/cover/" + blogID.String() + "/" + filename, err
}

type stubGoogle struct{}

func (stubGoogle) Name() string { return "google" }

func (stubGoogle) Resolve(_ context.Context, r *http.Request) (*auth.ExternalProfile, error) {
	if r.URL.Query().Get("code") != "ok" {
		return nil, auth.ErrFederatedLogin
	}
	return &auth.ExternalProfile{Subject: "g-1", Email: "grace@x.com", EmailVerified: r.URL.Query().Get("verified") != "no", GivenName: "Grace", FamilyName: "Hopper"}, nil
}

type server struct {
	e    *echo.Echo
	repo *repo.GormRepo
}

func newServer(t *testing.T) *server {
	t.Helper()
	r := repotest.New(t)
	ts := &tokens.Service{
		Store:         r,
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}
	authSvc := &service.AuthService{Repo: r, Tokens: ts}
	blogSvc := &service.BlogService{Repo: r, Covers: memCovers{}}

	bearer := &auth.Bearer{Tokens: ts}
	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		AuthorHandler: &httpserver.AuthorHTTP{Svc: authSvc},
		BlogHandler:   &httpserver.BlogHTTP{Svc: blogSvc},
		GoogleHandler: &httpserver.GoogleHTTP{
			Svc:      authSvc,
			Strategy: &auth.Federated{Provider: stubGoogle{}, Accounts: authSvc},
		},
		Credentials: auth.NewScheme(&auth.Basic{Store: r}, bearer),
		Bearer:      bearer,
		Ready:       func(context.Context) error { return nil },
	})
	return &server{e: e, repo: r}
}

func (s *server) do(t *testing.T, method, path string, body any, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *server) register(t *testing.T, email string) uuid.UUID {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/authors", map[string]string{
		"name": "N", "surname": "S", "email": email, "password": "secret",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[struct {
		ID uuid.UUID `json:"_id"`
	}](t, rec).ID
}

func (s *server) login(t *testing.T, email string) tokens.Pair {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/authors/login", map[string]string{"email": email, "password": "secret"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[tokens.Pair](t, rec)
}

func bearerHeader(p tokens.Pair) string { return "Bearer " + p.AccessToken }

func basicHeader(email, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(email+":"+password))
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[struct {
		Message string `json:"message"`
	}](t, rec).Message
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", nil, "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", nil, "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/metrics", nil, "").Code)
}

func TestRegister_DuplicateAndInvalid(t *testing.T) {
	s := newServer(t)
	s.register(t, "ada@x.com")

	rec := s.do(t, http.MethodPost, "/authors", map[string]string{
		"name": "N", "surname": "S", "email": "ada@x.com", "password": "x",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/authors", map[string]string{"email": "b@x.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_FailuresShareOneShape(t *testing.T) {
	s := newServer(t)
	s.register(t, "ada@x.com")

	unknown := s.do(t, http.MethodPost, "/authors/login", map[string]string{"email": "a@x.com", "password": "secret"}, "")
	wrong := s.do(t, http.MethodPost, "/authors/login", map[string]string{"email": "ada@x.com", "password": "nope"}, "")

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
}

func TestLoginRefreshFlow_OldRefreshTokenFails(t *testing.T) {
	s := newServer(t)
	s.register(t, "ada@x.com")
	first := s.login(t, "ada@x.com")

	rec := s.do(t, http.MethodPost, "/authors/refreshTokens", map[string]string{"currentRefreshToken": first.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[tokens.Pair](t, rec)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	rec = s.do(t, http.MethodPost, "/authors/refreshTokens", map[string]string{"currentRefreshToken": first.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Please log in again!", message(t, rec))

	rec = s.do(t, http.MethodGet, "/authors/me", nil, bearerHeader(second))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout_RevokesSession(t *testing.T) {
	s := newServer(t)
	s.register(t, "ada@x.com")
	pair := s.login(t, "ada@x.com")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/authors/logout", nil, "").Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/authors/logout", nil, bearerHeader(pair)).Code)

	rec := s.do(t, http.MethodPost, "/authors/refreshTokens", map[string]string{"currentRefreshToken": pair.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBasicProtectedRoute(t *testing.T) {
	s := newServer(t)
	id := s.register(t, "ada@x.com")

	rec := s.do(t, http.MethodGet, "/authors/me", nil, basicHeader("ada@x.com", "secret"))
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, id.String(), me["_id"])
	assert.NotContains(t, me, "passwordHash")
	assert.NotContains(t, rec.Body.String(), "secret")

	rec = s.do(t, http.MethodGet, "/authors/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Please provide credentials in Authorization header", message(t, rec))

	rec = s.do(t, http.MethodGet, "/authors/me", nil, basicHeader("ada@x.com", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Credentials are not ok!", message(t, rec))
}

func TestAdminOnlyRoutes(t *testing.T) {
	s := newServer(t)
	target := s.register(t, "target@x.com")
	adminID := s.register(t, "admin@x.com")
	role := domain.RoleAdmin
	_, err := s.repo.UpdateAuthor(context.Background(), adminID, repo.AuthorPatch{Role: &role})
	require.NoError(t, err)

	user := s.login(t, "target@x.com")
	rec := s.do(t, http.MethodPut, "/authors/"+target.String(), map[string]string{"role": "admin"}, bearerHeader(user))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admins only endpoint!", message(t, rec))

	admin := s.login(t, "admin@x.com")
	rec = s.do(t, http.MethodPut, "/authors/"+target.String(), map[string]string{"role": "admin"}, bearerHeader(admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "admin", decode[map[string]any](t, rec)["role"])

	rec = s.do(t, http.MethodDelete, "/authors/"+target.String(), nil, basicHeader("admin@x.com", "secret"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func createBlog(t *testing.T, s *server, pair tokens.Pair, coAuthors ...uuid.UUID) uuid.UUID {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/blogs", map[string]any{
		"category": "tech",
		"title":    "Go",
		"content":  "body",
		"readTime": map[string]any{"value": 2, "unit": "minute"},
		"authors":  coAuthors,
	}, bearerHeader(pair))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[struct {
		ID uuid.UUID `json:"_id"`
	}](t, rec).ID
}

func TestBlogOwnership(t *testing.T) {
	s := newServer(t)
	s.register(t, "a@x.com")
	bID := s.register(t, "b@x.com")
	s.register(t, "c@x.com")
	a, b, c := s.login(t, "a@x.com"), s.login(t, "b@x.com"), s.login(t, "c@x.com")

	rec := s.do(t, http.MethodPost, "/blogs", map[string]any{"title": "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	blog := createBlog(t, s, a, bID)

	rec = s.do(t, http.MethodPut, "/blogs/"+blog.String(), map[string]any{"title": "mine"}, bearerHeader(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/blogs/"+blog.String(), map[string]any{"title": "co-authored"}, bearerHeader(b))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "co-authored", decode[map[string]any](t, rec)["title"])

	rec = s.do(t, http.MethodGet, "/blogs?category=tech", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Meta map[string]any `json:"meta"`
	}](t, rec)
	assert.EqualValues(t, 1, list.Meta["total"])

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodDelete, "/blogs/"+blog.String(), nil, bearerHeader(c)).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/blogs/"+blog.String(), nil, bearerHeader(a)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/blogs/"+blog.String(), nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/blogs/not-a-uuid", nil, "").Code)
}

func TestBlogRoutesRejectBasicCredentials(t *testing.T) {
	s := newServer(t)
	s.register(t, "a@x.com")

	rec := s.do(t, http.MethodPost, "/blogs", map[string]any{"title": "x"}, basicHeader("a@x.com", "secret"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCommentsAndLikes(t *testing.T) {
	s := newServer(t)
	s.register(t, "a@x.com")
	s.register(t, "b@x.com")
	a, b := s.login(t, "a@x.com"), s.login(t, "b@x.com")
	blog := createBlog(t, s, a)
	base := "/blogs/" + blog.String()

	rec := s.do(t, http.MethodPost, base+"/comments", map[string]any{"comment": "nice", "rate": 9}, bearerHeader(b))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/comments", map[string]any{"comment": "nice", "rate": 5}, bearerHeader(b))
	require.Equal(t, http.StatusCreated, rec.Code)
	commentID := decode[map[string]any](t, rec)["_id"].(string)

	rec = s.do(t, http.MethodPut, base+"/comments/"+commentID, map[string]any{"comment": "edited", "rate": 1}, bearerHeader(a))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, base+"/comments", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = s.do(t, http.MethodPost, base+"/likes", nil, bearerHeader(b))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["liked"])

	rec = s.do(t, http.MethodGet, base+"/likes", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, base+"/comments/"+commentID, nil, bearerHeader(b)).Code)
}

func multipartCover(t *testing.T, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="cover"; filename="cover.png"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadCover(t *testing.T) {
	s := newServer(t)
	s.register(t, "a@x.com")
	a := s.login(t, "a@x.com")
	blog := createBlog(t, s, a)

	upload := func(contentType string) *httptest.ResponseRecorder {
		body, ct := multipartCover(t, contentType)
		req := httptest.NewRequest(http.MethodPost, "/blogs/"+blog.String()+"/uploadCover", body)
		req.Header.Set(echo.HeaderContentType, ct)
		req.Header.Set(echo.HeaderAuthorization, bearerHeader(a))
		rec := httptest.NewRecorder()
		s.e.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "upload an image", message(t, rec))

	rec = upload("image/png")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decode[map[string]any](t, rec)["cover"], "blogs/cover/"+blog.String())
}

func TestGoogleRedirect_IssuesPairThroughSharedPath(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/authors/googleRedirect?code=bad", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/authors/googleRedirect?code=ok&verified=no", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "external email is not verified", message(t, rec))

	rec = s.do(t, http.MethodGet, "/authors/googleRedirect?code=ok", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pair := decode[tokens.Pair](t, rec)

	rec = s.do(t, http.MethodGet, "/authors/me", nil, bearerHeader(pair))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "grace@x.com", decode[map[string]any](t, rec)["email"])

	rec = s.do(t, http.MethodPost, "/authors/refreshTokens", map[string]string{"currentRefreshToken": pair.RefreshToken}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
