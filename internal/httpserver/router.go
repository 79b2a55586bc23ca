package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog/internal/auth"
	"github.com/Skotchmaster/blog/internal/domain"
	"github.com/Skotchmaster/blog/internal/metrics"
)

type Deps struct {
	AuthorHandler *AuthorHTTP
	BlogHandler   *BlogHTTP

	// GoogleHandler is nil when Google login is not configured.
	GoogleHandler *GoogleHTTP

	// Credentials accepts Basic or Bearer; Bearer accepts tokens only.
	Credentials auth.Strategy
	Bearer      auth.Strategy

	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", metrics.Handler())

	anyAuth := auth.Authenticate(d.Credentials)
	bearer := auth.Authenticate(d.Bearer)
	adminOnly := auth.RequireRoleMiddleware(domain.RoleAdmin)

	authors := e.Group("/authors")
	authors.POST("", d.AuthorHandler.Register)
	authors.POST("/login", d.AuthorHandler.Login)
	authors.POST("/refreshTokens", d.AuthorHandler.Refresh)
	authors.POST("/logout", d.AuthorHandler.Logout, bearer)

	if d.GoogleHandler != nil {
		authors.GET("/googleLogin", d.GoogleHandler.Begin)
		authors.GET("/googleRedirect", d.GoogleHandler.Callback, auth.Authenticate(d.GoogleHandler.Strategy))
	}

	authors.GET("", d.AuthorHandler.List, anyAuth)
	authors.GET("/me", d.AuthorHandler.Me, anyAuth)
	authors.PUT("/me", d.AuthorHandler.UpdateMe, anyAuth)
	authors.DELETE("/me", d.AuthorHandler.DeleteMe, anyAuth)
	authors.GET("/me/stories", d.AuthorHandler.MyStories, anyAuth)
	authors.GET("/:authorId", d.AuthorHandler.Get, anyAuth)
	authors.PUT("/:authorId", d.AuthorHandler.Update, anyAuth, adminOnly)
	authors.DELETE("/:authorId", d.AuthorHandler.Delete, anyAuth, adminOnly)

	blogs := e.Group("/blogs")
	blogs.GET("", d.BlogHandler.List)
	blogs.GET("/search", d.BlogHandler.Search)
	blogs.GET("/:blogId", d.BlogHandler.Get)
	blogs.POST("", d.BlogHandler.Create, bearer)
	blogs.PUT("/:blogId", d.BlogHandler.Update, bearer)
	blogs.DELETE("/:blogId", d.BlogHandler.Delete, bearer)
	blogs.POST("/:blogId/uploadCover", d.BlogHandler.UploadCover, bearer)

	blogs.GET("/:blogId/comments", d.BlogHandler.Comments)
	blogs.GET("/:blogId/comments/:commentId", d.BlogHandler.Comment)
	blogs.POST("/:blogId/comments", d.BlogHandler.AddComment, bearer)
	blogs.PUT("/:blogId/comments/:commentId", d.BlogHandler.EditComment, bearer)
	blogs.DELETE("/:blogId/comments/:commentId", d.BlogHandler.RemoveComment, bearer)

	blogs.GET("/:blogId/likes", d.BlogHandler.CountLikes)
	blogs.POST("/:blogId/likes", d.BlogHandler.ToggleLike, bearer)
}
