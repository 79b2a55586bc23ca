package service_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog/internal/auth"
	"github.com/Skotchmaster/blog/internal/domain"
	"github.com/Skotchmaster/blog/internal/events"
	"github.com/Skotchmaster/blog/internal/models"
	"github.com/Skotchmaster/blog/internal/repo"
	"github.com/Skotchmaster/blog/internal/repo/repotest"
	"github.com/Skotchmaster/blog/internal/search"
	"github.com/Skotchmaster/blog/internal/service"
	"github.com/Skotchmaster/blog/internal/tokens"
)

type published struct {
	topic string
	event events.Event
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, _ string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, event: event.(events.Event)})
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, p := range f.sent {
		out = append(out, p.event.Type)
	}
	return out
}

type fakeIndex struct {
	docs    map[string]search.Document
	removed []string
}

func newFakeIndex() *fakeIndex { return &fakeIndex{docs: map[string]search.Document{}} }

func (f *fakeIndex) Put(_ context.Context, doc search.Document) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndex) Remove(_ context.Context, id string) error {
	delete(f.docs, id)
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, q string, _, _ int) (search.Results, error) {
	out := search.Results{Items: []search.Document{}}
	for _, d := range f.docs {
		if d.Title == q {
			out.Items = append(out.Items, d)
		}
	}
	out.Total = int64(len(out.Items))
	return out, nil
}

type fakeCache struct {
	blogs   map[uuid.UUID]*models.Blog
	gets    int
	deletes int
	failGet bool
}

func newFakeCache() *fakeCache { return &fakeCache{blogs: map[uuid.UUID]*models.Blog{}} }

func (f *fakeCache) GetBlog(_ context.Context, id uuid.UUID) (*models.Blog, error) {
	f.gets++
	if f.failGet {
		return nil, errors.New("redis down")
	}
	return f.blogs[id], nil
}

func (f *fakeCache) SetBlog(_ context.Context, b *models.Blog) error {
	cp := *b
	f.blogs[b.ID] = &cp
	return nil
}

func (f *fakeCache) DeleteBlog(_ context.Context, id uuid.UUID) error {
	f.deletes++
	delete(f.blogs, id)
	return nil
}

type fakeCovers struct {
	keys []string
}

func (f *fakeCovers) PutCover(_ context.Context, blogID uuid.UUID, filename, _ string, r io.Reader, _ int64) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	key := "blogs/cover/" + blogID.String() + "/" + filename
	f.keys = append(f.keys, key)
	return "http://cdn.local/covers/" + key, nil
}

type env struct {
	repo   *repo.GormRepo
	tokens *tokens.Service
	events *fakePublisher
	auth   *service.AuthService
	blogs  *service.BlogService
	index  *fakeIndex
	cache  *fakeCache
	covers *fakeCovers
}

func newEnv(t *testing.T) *env {
	t.Helper()
	r := repotest.New(t)
	ts := &tokens.Service{
		Store:         r,
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}
	pub := &fakePublisher{}
	e := &env{
		repo:   r,
		tokens: ts,
		events: pub,
		index:  newFakeIndex(),
		cache:  newFakeCache(),
		covers: &fakeCovers{},
	}
	e.auth = &service.AuthService{Repo: r, Tokens: ts, Events: pub}
	e.blogs = &service.BlogService{Repo: r, Index: e.index, Cache: e.cache, Covers: e.covers, Events: pub}
	return e
}

func (e *env) register(t *testing.T, email string) (*models.Author, *auth.Identity) {
	t.Helper()
	a, err := e.auth.Register(context.Background(), service.RegisterInput{
		Name: "N", Surname: "S", Email: email, Password: "secret",
	})
	require.NoError(t, err)
	return a, &auth.Identity{ID: a.ID, Role: a.Role, Strategy: "bearer"}
}

func (e *env) admin(t *testing.T, email string) *auth.Identity {
	t.Helper()
	a, _ := e.register(t, email)
	role := domain.RoleAdmin
	_, err := e.repo.UpdateAuthor(context.Background(), a.ID, repo.AuthorPatch{Role: &role})
	require.NoError(t, err)
	return &auth.Identity{ID: a.ID, Role: domain.RoleAdmin, Strategy: "bearer"}
}

func ptr[T any](v T) *T { return &v }
