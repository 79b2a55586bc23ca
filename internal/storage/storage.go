package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// PublicURL is prepended to bucket/key in returned links. Empty means
	// the endpoint itself.
	PublicURL string
}

// Client stores blog covers in an S3-compatible bucket.
type Client struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func New(cfg Config) (*Client, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		public = scheme + "://" + endpoint
	}
	return &Client{client: client, bucket: cfg.Bucket, publicURL: public}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", c.bucket, err)
		}
	}
	return nil
}

// CoverKey is blogs/cover/<blogID>/<random><ext of filename>.
func CoverKey(blogID uuid.UUID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("blogs", "cover", blogID.String(), uuid.NewString()+ext)
}

func (c *Client) URL(key string) string {
	return c.publicURL + "/" + c.bucket + "/" + key
}

// PutCover uploads the image and returns its public URL.
func (c *Client) PutCover(ctx context.Context, blogID uuid.UUID, filename, contentType string, r io.Reader, size int64) (string, error) {
	key := CoverKey(blogID, filename)
	_, err := c.client.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return c.URL(key), nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.client.BucketExists(ctx, c.bucket)
	return err
}
