package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/blog/internal/models"
)

// Document is the indexed projection of a blog.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	Cover     string    `json:"cover,omitempty"`
	AuthorIDs []string  `json:"author_ids"`
	CreatedAt time.Time `json:"created_at"`
}

func FromBlog(b *models.Blog) Document {
	ids := make([]string, 0, len(b.Authors))
	for _, id := range b.OwnerIDs() {
		ids = append(ids, id.String())
	}
	return Document{
		ID:        b.ID.String(),
		Title:     b.Title,
		Category:  b.Category,
		Content:   b.Content,
		Cover:     b.Cover,
		AuthorIDs: ids,
		CreatedAt: b.CreatedAt,
	}
}

type Results struct {
	Total int64      `json:"total"`
	Items []Document `json:"items"`
}

type Index struct {
	client *elasticsearch.Client
	name   string
}

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

// NewIndex connects and checks the cluster answers before returning.
func NewIndex(cfg Config) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error response %s: %s", res.Status(), body)
	}

	return &Index{client: client, name: cfg.Index}, nil
}

func (i *Index) Put(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	res, err := i.client.Index(i.name, bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(doc.ID),
	)
	if err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index document %s: %s", doc.ID, res.Status())
	}
	return nil
}

// Remove deletes a document; a missing one is not an error.
func (i *Index) Remove(ctx context.Context, id string) error {
	res, err := i.client.Delete(i.name, id, i.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete document %s: %s", id, res.Status())
	}
	return nil
}

func buildQuery(q string, offset, limit int) map[string]any {
	return map[string]any{
		"from": offset,
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^2", "category", "content"},
				"fuzziness": "AUTO",
			},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (i *Index) Search(ctx context.Context, rawQ string, offset, limit int) (Results, error) {
	q := strings.TrimSpace(rawQ)
	if q == "" {
		return Results{Items: []Document{}}, nil
	}

	body, err := json.Marshal(buildQuery(q, offset, limit))
	if err != nil {
		return Results{}, err
	}
	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.name),
		i.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return Results{}, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return Results{}, fmt.Errorf("search: %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return Results{}, fmt.Errorf("decode search response: %w", err)
	}
	out := Results{Total: parsed.Hits.Total.Value, Items: make([]Document, 0, len(parsed.Hits.Hits))}
	for _, h := range parsed.Hits.Hits {
		out.Items = append(out.Items, h.Source)
	}
	return out, nil
}
