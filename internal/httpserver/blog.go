package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog/internal/auth"
	"github.com/Skotchmaster/blog/internal/logging"
	"github.com/Skotchmaster/blog/internal/repo"
	"github.com/Skotchmaster/blog/internal/service"
	"github.com/Skotchmaster/blog/internal/transport"
	"github.com/Skotchmaster/blog/internal/util"
)

// maxCoverSize caps uploadCover bodies.
const maxCoverSize = 10 << 20

type BlogHTTP struct {
	Svc *service.BlogService
}

func (h *BlogHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	filter := repo.BlogFilter{Category: c.QueryParam("category"), Title: c.QueryParam("title")}
	total, items, err := h.Svc.List(ctx, filter, offset, limit)
	if err != nil {
		return fail(l, "list_blogs_error", err)
	}

	l.Info("list_blogs_success")
	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *BlogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	res, err := h.Svc.Search(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search_blogs_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": res.Items,
		"meta": util.Meta(page, limit, offset, res.Total),
	})
}

func (h *BlogHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.get")

	id, err := pathID(c, "blogId")
	if err != nil {
		return badRequest(l, "get_blog_error", "id not a uuid", err)
	}
	blog, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_blog_error", err)
	}
	return c.JSON(http.StatusOK, blog)
}

func (h *BlogHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.create")

	var req transport.CreateBlogRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_blog_error", "invalid body", err)
	}

	blog, err := h.Svc.Create(ctx, auth.FromContext(ctx), service.BlogInput{
		Category:      req.Category,
		Title:         req.Title,
		Cover:         req.Cover,
		ReadTimeValue: req.ReadTime.Value,
		ReadTimeUnit:  req.ReadTime.Unit,
		Content:       req.Content,
		CoAuthors:     req.Authors,
	})
	if err != nil {
		return fail(l, "create_blog_error", err)
	}

	l.Info("create_blog_success", "blog_id", blog.ID)
	return c.JSON(http.StatusCreated, blog)
}

func (h *BlogHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.update")

	id, err := pathID(c, "blogId")
	if err != nil {
		return badRequest(l, "update_blog_error", "id not a uuid", err)
	}
	var req transport.PatchBlogRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_blog_error", "invalid body", err)
	}

	patch := repo.BlogPatch{Category: req.Category, Title: req.Title, Content: req.Content}
	if req.ReadTime != nil {
		patch.ReadTimeValue = req.ReadTime.Value
		patch.ReadTimeUnit = req.ReadTime.Unit
	}

	blog, err := h.Svc.Update(ctx, auth.FromContext(ctx), id, patch)
	if err != nil {
		return fail(l, "update_blog_error", err)
	}
	return c.JSON(http.StatusOK, blog)
}

func (h *BlogHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.delete")

	id, err := pathID(c, "blogId")
	if err != nil {
		return badRequest(l, "delete_blog_error", "id not a uuid", err)
	}
	if err := h.Svc.Delete(ctx, auth.FromContext(ctx), id); err != nil {
		return fail(l, "delete_blog_error", err)
	}

	l.Info("delete_blog_success", "blog_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *BlogHTTP) UploadCover(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.upload_cover")

	id, err := pathID(c, "blogId")
	if err != nil {
		return badRequest(l, "upload_cover_error", "id not a uuid", err)
	}

	fh, err := c.FormFile("cover")
	if err != nil {
		return fail(l, "upload_cover_error", service.ErrNotAnImage)
	}
	if fh.Size > maxCoverSize {
		return badRequest(l, "upload_cover_error", "cover is too large", nil)
	}
	f, err := fh.Open()
	if err != nil {
		return fail(l, "upload_cover_error", err)
	}
	defer f.Close()

	blog, err := h.Svc.UploadCover(ctx, auth.FromContext(ctx), id, service.CoverUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return fail(l, "upload_cover_error", err)
	}
	return c.JSON(http.StatusOK, blog)
}
