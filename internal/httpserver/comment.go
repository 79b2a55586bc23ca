package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog/internal/auth"
	"github.com/Skotchmaster/blog/internal/logging"
	"github.com/Skotchmaster/blog/internal/service"
	"github.com/Skotchmaster/blog/internal/transport"
)

func (h *BlogHTTP) Comments(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.list")

	blogID, err := pathID(c, "blogId")
	if err != nil {
		return badRequest(l, "list_comments_error", "id not a uuid", err)
	}
	items, err := h.Svc.Comments(ctx, blogID)
	if err != nil {
		return fail(l, "list_comments_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *BlogHTTP) Comment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.get")

	blogID, err := pathID(c, "blogId")
	if err != nil {
		return badRequest(l, "get_comment_error", "id not a uuid", err)
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		return badRequest(l, "get_comment_error", "comment id not a uuid", err)
	}
	cm, err := h.Svc.Comment(ctx, blogID, commentID)
	if err != nil {
		return fail(l, "get_comment_error", err)
	}
	return c.JSON(http.StatusOK, cm)
}

func (h *BlogHTTP) AddComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.add")

	blogID, err := pathID(c, "blogId")
	if err != nil {
		return badRequest(l, "add_comment_error", "id not a uuid", err)
	}
	var req transport.CommentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_comment_error", "invalid body", err)
	}

	cm, err := h.Svc.AddComment(ctx, auth.FromContext(ctx), blogID, service.CommentInput{Comment: req.Comment, Rate: req.Rate})
	if err != nil {
		return fail(l, "add_comment_error", err)
	}
	return c.JSON(http.StatusCreated, cm)
}

func (h *BlogHTTP) EditComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.edit")

	blogID, err := pathID(c, "blogId")
	if err != nil {
		return badRequest(l, "edit_comment_error", "id not a uuid", err)
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		return badRequest(l, "edit_comment_error", "comment id not a uuid", err)
	}
	var req transport.CommentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "edit_comment_error", "invalid body", err)
	}

	cm, err := h.Svc.EditComment(ctx, auth.FromContext(ctx), blogID, commentID, service.CommentInput{Comment: req.Comment, Rate: req.Rate})
	if err != nil {
		return fail(l, "edit_comment_error", err)
	}
	return c.JSON(http.StatusOK, cm)
}

func (h *BlogHTTP) RemoveComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.remove")

	blogID, err := pathID(c, "blogId")
	if err != nil {
		return badRequest(l, "remove_comment_error", "id not a uuid", err)
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		return badRequest(l, "remove_comment_error", "comment id not a uuid", err)
	}
	if err := h.Svc.RemoveComment(ctx, auth.FromContext(ctx), blogID, commentID); err != nil {
		return fail(l, "remove_comment_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BlogHTTP) ToggleLike(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "like.toggle")

	blogID, err := pathID(c, "blogId")
	if err != nil {
		return badRequest(l, "toggle_like_error", "id not a uuid", err)
	}
	liked, count, err := h.Svc.ToggleLike(ctx, auth.FromContext(ctx), blogID)
	if err != nil {
		return fail(l, "toggle_like_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"liked": liked, "count": count})
}

func (h *BlogHTTP) CountLikes(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "like.count")

	blogID, err := pathID(c, "blogId")
	if err != nil {
		return badRequest(l, "count_likes_error", "id not a uuid", err)
	}
	count, err := h.Svc.CountLikes(ctx, blogID)
	if err != nil {
		return fail(l, "count_likes_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}
