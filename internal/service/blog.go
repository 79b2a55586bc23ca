package service

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/blog/internal/auth"
	"github.com/Skotchmaster/blog/internal/domain"
	"github.com/Skotchmaster/blog/internal/events"
	"github.com/Skotchmaster/blog/internal/logging"
	"github.com/Skotchmaster/blog/internal/models"
	"github.com/Skotchmaster/blog/internal/repo"
	"github.com/Skotchmaster/blog/internal/search"
)

var (
	ErrSearchDisabled  = domain.Public(domain.ErrUnavailable, "search is not configured")
	ErrStorageDisabled = domain.Public(domain.ErrUnavailable, "cover storage is not configured")
	ErrNotAnImage      = domain.Public(domain.ErrValidation, "upload an image")
	ErrNotCommentOwner = domain.Public(domain.ErrForbidden, "You can only change your own comments")
)

type SearchIndex interface {
	Put(ctx context.Context, doc search.Document) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, q string, offset, limit int) (search.Results, error)
}

type BlogCache interface {
	GetBlog(ctx context.Context, id uuid.UUID) (*models.Blog, error)
	SetBlog(ctx context.Context, b *models.Blog) error
	DeleteBlog(ctx context.Context, id uuid.UUID) error
}

type CoverStore interface {
	PutCover(ctx context.Context, blogID uuid.UUID, filename, contentType string, r io.Reader, size int64) (string, error)
}

// BlogService owns blogs, comments and likes. Index, Cache, Covers and
// Events are optional.
type BlogService struct {
	Repo   *repo.GormRepo
	Index  SearchIndex
	Cache  BlogCache
	Covers CoverStore
	Events Publisher
}

type BlogInput struct {
	Category      string
	Title         string
	Cover         string
	ReadTimeValue int
	ReadTimeUnit  string
	Content       string
	CoAuthors     []uuid.UUID
}

func (in BlogInput) validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Category) == "" || strings.TrimSpace(in.Content) == "" {
		return domain.Public(domain.ErrValidation, "category, title and content are required")
	}
	if in.ReadTimeValue < 0 {
		return domain.Public(domain.ErrValidation, "readTime value cannot be negative")
	}
	return nil
}

func (s *BlogService) List(ctx context.Context, f repo.BlogFilter, offset, limit int) (int64, []models.Blog, error) {
	return s.Repo.ListBlogs(ctx, f, offset, limit)
}

func (s *BlogService) Search(ctx context.Context, q string, offset, limit int) (search.Results, error) {
	if s.Index == nil {
		return search.Results{}, ErrSearchDisabled
	}
	return s.Index.Search(ctx, q, offset, limit)
}

// Get reads through the cache when one is configured.
func (s *BlogService) Get(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	l := logging.FromContext(ctx).With("svc", "blog.get")
	if s.Cache != nil {
		cached, err := s.Cache.GetBlog(ctx, id)
		if err != nil {
			l.Warn("cache_read_failed", "blog_id", id, "error", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	blog, err := s.Repo.GetBlog(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.SetBlog(ctx, blog); err != nil {
			l.Warn("cache_write_failed", "blog_id", id, "error", err)
		}
	}
	return blog, nil
}

// Create makes the caller an owner, together with any co-authors.
func (s *BlogService) Create(ctx context.Context, who *auth.Identity, in BlogInput) (*models.Blog, error) {
	if who == nil {
		return nil, auth.ErrNoIdentity
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	owners := []uuid.UUID{who.ID}
	for _, id := range in.CoAuthors {
		if !slices.Contains(owners, id) {
			owners = append(owners, id)
		}
	}

	blog := &models.Blog{
		Category:      in.Category,
		Title:         in.Title,
		Cover:         in.Cover,
		ReadTimeValue: in.ReadTimeValue,
		ReadTimeUnit:  in.ReadTimeUnit,
		Content:       in.Content,
	}
	if err := s.Repo.CreateBlog(ctx, blog, owners); err != nil {
		return nil, err
	}

	s.indexBlog(ctx, blog)
	publish(ctx, s.Events, events.TopicBlogs, "blog_created", blog.ID, who.ID, map[string]any{"authors": blog.OwnerIDs()})
	return blog, nil
}

// owned loads the blog from the store and checks who may modify it.
func (s *BlogService) owned(ctx context.Context, who *auth.Identity, id uuid.UUID) (*models.Blog, error) {
	if who == nil {
		return nil, auth.ErrNoIdentity
	}
	blog, err := s.Repo.GetBlog(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwnership(who, blog.OwnerIDs()...); err != nil {
		logging.FromContext(ctx).Warn("blog_forbidden", "status", 403, "blog_id", id, "author_id", who.ID)
		return nil, err
	}
	return blog, nil
}

func (s *BlogService) Update(ctx context.Context, who *auth.Identity, id uuid.UUID, patch repo.BlogPatch) (*models.Blog, error) {
	if _, err := s.owned(ctx, who, id); err != nil {
		return nil, err
	}
	if patch.ReadTimeValue != nil && *patch.ReadTimeValue < 0 {
		return nil, domain.Public(domain.ErrValidation, "readTime value cannot be negative")
	}
	for _, f := range []*string{patch.Title, patch.Category, patch.Content} {
		if f != nil && strings.TrimSpace(*f) == "" {
			return nil, domain.Public(domain.ErrValidation, "category, title and content cannot be empty")
		}
	}

	blog, err := s.Repo.UpdateBlog(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.indexBlog(ctx, blog)
	publish(ctx, s.Events, events.TopicBlogs, "blog_updated", id, who.ID, nil)
	return blog, nil
}

func (s *BlogService) Delete(ctx context.Context, who *auth.Identity, id uuid.UUID) error {
	if _, err := s.owned(ctx, who, id); err != nil {
		return err
	}
	if err := s.Repo.DeleteBlog(ctx, id); err != nil {
		return err
	}
	s.unindexBlog(ctx, id)
	publish(ctx, s.Events, events.TopicBlogs, "blog_deleted", id, who.ID, nil)
	return nil
}

type CoverUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (s *BlogService) UploadCover(ctx context.Context, who *auth.Identity, id uuid.UUID, up CoverUpload) (*models.Blog, error) {
	if s.Covers == nil {
		return nil, ErrStorageDisabled
	}
	if up.Body == nil || !strings.HasPrefix(strings.ToLower(up.ContentType), "image/") {
		return nil, ErrNotAnImage
	}
	if _, err := s.owned(ctx, who, id); err != nil {
		return nil, err
	}

	url, err := s.Covers.PutCover(ctx, id, up.Filename, up.ContentType, up.Body, up.Size)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetCover(ctx, id, url); err != nil {
		return nil, err
	}

	blog, err := s.Repo.GetBlog(ctx, id)
	if err != nil {
		return nil, err
	}
	s.indexBlog(ctx, blog)
	publish(ctx, s.Events, events.TopicBlogs, "blog_cover_uploaded", id, who.ID, map[string]string{"cover": url})
	return blog, nil
}

// indexBlog drops the cached copy and reindexes. Failures are only logged.
func (s *BlogService) indexBlog(ctx context.Context, blog *models.Blog) {
	l := logging.FromContext(ctx)
	if s.Cache != nil {
		if err := s.Cache.DeleteBlog(ctx, blog.ID); err != nil {
			l.Warn("cache_invalidate_failed", "blog_id", blog.ID, "error", err)
		}
	}
	if s.Index != nil {
		if err := s.Index.Put(ctx, search.FromBlog(blog)); err != nil {
			l.Error("search_index_failed", "blog_id", blog.ID, "error", err)
		}
	}
}

func (s *BlogService) unindexBlog(ctx context.Context, id uuid.UUID) {
	l := logging.FromContext(ctx)
	if s.Cache != nil {
		if err := s.Cache.DeleteBlog(ctx, id); err != nil {
			l.Warn("cache_invalidate_failed", "blog_id", id, "error", err)
		}
	}
	if s.Index != nil {
		if err := s.Index.Remove(ctx, id.String()); err != nil {
			l.Error("search_remove_failed", "blog_id", id, "error", err)
		}
	}
}

func (s *BlogService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.DeleteBlog(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_failed", "blog_id", id, "error", err)
	}
}
