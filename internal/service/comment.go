package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/blog/internal/auth"
	"github.com/Skotchmaster/blog/internal/domain"
	"github.com/Skotchmaster/blog/internal/events"
	"github.com/Skotchmaster/blog/internal/models"
)

type CommentInput struct {
	Comment string
	Rate    int
}

func (in CommentInput) validate() error {
	if strings.TrimSpace(in.Comment) == "" {
		return domain.Public(domain.ErrValidation, "comment is required")
	}
	if in.Rate < 1 || in.Rate > 5 {
		return domain.Public(domain.ErrValidation, "rate must be between 1 and 5")
	}
	return nil
}

func (s *BlogService) Comments(ctx context.Context, blogID uuid.UUID) ([]models.Comment, error) {
	return s.Repo.ListComments(ctx, blogID)
}

func (s *BlogService) Comment(ctx context.Context, blogID, commentID uuid.UUID) (*models.Comment, error) {
	return s.Repo.GetComment(ctx, blogID, commentID)
}

func (s *BlogService) AddComment(ctx context.Context, who *auth.Identity, blogID uuid.UUID, in CommentInput) (*models.Comment, error) {
	if who == nil {
		return nil, auth.ErrNoIdentity
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &models.Comment{BlogID: blogID, AuthorID: who.ID, Comment: in.Comment, Rate: in.Rate}
	if err := s.Repo.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx, blogID)
	publish(ctx, s.Events, events.TopicBlogs, "comment_added", blogID, who.ID, map[string]string{"comment_id": c.ID.String()})
	return c, nil
}

// ownComment loads the comment and checks who wrote it.
func (s *BlogService) ownComment(ctx context.Context, who *auth.Identity, blogID, commentID uuid.UUID) (*models.Comment, error) {
	if who == nil {
		return nil, auth.ErrNoIdentity
	}
	c, err := s.Repo.GetComment(ctx, blogID, commentID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwnership(who, c.AuthorID); err != nil {
		return nil, ErrNotCommentOwner
	}
	return c, nil
}

func (s *BlogService) EditComment(ctx context.Context, who *auth.Identity, blogID, commentID uuid.UUID, in CommentInput) (*models.Comment, error) {
	c, err := s.ownComment(ctx, who, blogID, commentID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	c.Comment = in.Comment
	c.Rate = in.Rate
	if err := s.Repo.UpdateComment(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx, blogID)
	return c, nil
}

func (s *BlogService) RemoveComment(ctx context.Context, who *auth.Identity, blogID, commentID uuid.UUID) error {
	if _, err := s.ownComment(ctx, who, blogID, commentID); err != nil {
		return err
	}
	if err := s.Repo.DeleteComment(ctx, blogID, commentID); err != nil {
		return err
	}
	s.invalidate(ctx, blogID)
	publish(ctx, s.Events, events.TopicBlogs, "comment_removed", blogID, who.ID, map[string]string{"comment_id": commentID.String()})
	return nil
}

func (s *BlogService) ToggleLike(ctx context.Context, who *auth.Identity, blogID uuid.UUID) (bool, int64, error) {
	if who == nil {
		return false, 0, auth.ErrNoIdentity
	}
	liked, count, err := s.Repo.ToggleLike(ctx, blogID, who.ID)
	if err != nil {
		return false, 0, err
	}
	typ := "blog_unliked"
	if liked {
		typ = "blog_liked"
	}
	publish(ctx, s.Events, events.TopicBlogs, typ, blogID, who.ID, nil)
	return liked, count, nil
}

func (s *BlogService) CountLikes(ctx context.Context, blogID uuid.UUID) (int64, error) {
	return s.Repo.CountLikes(ctx, blogID)
}
