package httpserver

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog/internal/auth"
	"github.com/Skotchmaster/blog/internal/domain"
	"github.com/Skotchmaster/blog/internal/logging"
	"github.com/Skotchmaster/blog/internal/repo"
	"github.com/Skotchmaster/blog/internal/service"
	"github.com/Skotchmaster/blog/internal/transport"
	"github.com/Skotchmaster/blog/internal/util"
)

type AuthorHTTP struct {
	Svc *service.AuthService
}

func (h *AuthorHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "author.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body", err)
	}

	author, err := h.Svc.Register(ctx, service.RegisterInput{
		Name:        req.Name,
		Surname:     req.Surname,
		Email:       req.Email,
		Password:    req.Password,
		DateOfBirth: req.DateOfBirth,
		Avatar:      req.Avatar,
	})
	if err != nil {
		return fail(l, "register_error", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"_id": author.ID})
}

func (h *AuthorHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "author.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}

	pair, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthorHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "author.refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "refresh_error", "invalid body", err)
	}

	pair, err := h.Svc.Refresh(ctx, req.CurrentRefreshToken)
	if err != nil {
		return fail(l, "refresh_failed", err)
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthorHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "author.logout")

	id := auth.FromContext(ctx)
	if id == nil {
		return fail(l, "logout_failed", auth.ErrNoIdentity)
	}
	if err := h.Svc.Logout(ctx, id.ID); err != nil {
		return fail(l, "logout_failed", err)
	}

	l.Info("successful_logout", "author_id", id.ID)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthorHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "author.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.ListAuthors(ctx, offset, limit)
	if err != nil {
		return fail(l, "list_authors_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *AuthorHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "author.me")

	id := auth.FromContext(ctx)
	if id == nil {
		return fail(l, "me_error", auth.ErrNoIdentity)
	}
	if id.Author != nil {
		return c.JSON(http.StatusOK, id.Author)
	}
	author, err := h.Svc.GetAuthor(ctx, id.ID)
	if err != nil {
		return fail(l, "me_error", err)
	}
	return c.JSON(http.StatusOK, author)
}

func toPatch(req transport.PatchAuthorRequest) repo.AuthorPatch {
	p := repo.AuthorPatch{
		Name:        req.Name,
		Surname:     req.Surname,
		Email:       req.Email,
		Password:    req.Password,
		DateOfBirth: req.DateOfBirth,
		Avatar:      req.Avatar,
	}
	if req.Role != nil {
		r := domain.Role(strings.ToLower(*req.Role))
		p.Role = &r
	}
	return p
}

func (h *AuthorHTTP) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "author.update_me")

	var req transport.PatchAuthorRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_me_error", "invalid body", err)
	}

	author, err := h.Svc.UpdateProfile(ctx, auth.FromContext(ctx), toPatch(req))
	if err != nil {
		return fail(l, "update_me_error", err)
	}
	return c.JSON(http.StatusOK, author)
}

func (h *AuthorHTTP) DeleteMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "author.delete_me")

	id := auth.FromContext(ctx)
	if id == nil {
		return fail(l, "delete_me_error", auth.ErrNoIdentity)
	}
	if err := h.Svc.DeleteAuthor(ctx, id, id.ID); err != nil {
		return fail(l, "delete_me_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthorHTTP) MyStories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "author.my_stories")

	id := auth.FromContext(ctx)
	if id == nil {
		return fail(l, "my_stories_error", auth.ErrNoIdentity)
	}
	blogs, err := h.Svc.Stories(ctx, id.ID)
	if err != nil {
		return fail(l, "my_stories_error", err)
	}
	return c.JSON(http.StatusOK, blogs)
}

func (h *AuthorHTTP) authorID(c echo.Context) (uuid.UUID, error) {
	return pathID(c, "authorId")
}

func (h *AuthorHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "author.get")

	id, err := h.authorID(c)
	if err != nil {
		return badRequest(l, "get_author_error", "id not a uuid", err)
	}
	author, err := h.Svc.GetAuthor(ctx, id)
	if err != nil {
		return fail(l, "get_author_error", err)
	}
	return c.JSON(http.StatusOK, author)
}

func (h *AuthorHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "author.update")

	id, err := h.authorID(c)
	if err != nil {
		return badRequest(l, "update_author_error", "id not a uuid", err)
	}
	var req transport.PatchAuthorRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_author_error", "invalid body", err)
	}

	author, err := h.Svc.UpdateAuthorAsAdmin(ctx, auth.FromContext(ctx), id, toPatch(req))
	if err != nil {
		return fail(l, "update_author_error", err)
	}
	return c.JSON(http.StatusOK, author)
}

func (h *AuthorHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "author.delete")

	id, err := h.authorID(c)
	if err != nil {
		return badRequest(l, "delete_author_error", "id not a uuid", err)
	}
	if err := h.Svc.DeleteAuthor(ctx, auth.FromContext(ctx), id); err != nil {
		return fail(l, "delete_author_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
