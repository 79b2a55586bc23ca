package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTSecret       []byte
	RefreshSecret   []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	RedisAddr    string
	BlogCacheTTL time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	GoogleID     string
	GoogleSecret string
	APIURL       string
	FEURL        string

	CORSOrigins []string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "blog"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		RefreshSecret: []byte(os.Getenv("REFRESH_SECRET")),
		BcryptCost:    EnvIntDefault("BCRYPT_COST", bcrypt.DefaultCost),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "blogs"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    EnvDefault("MINIO_BUCKET", "blog-covers"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),

		GoogleID:     os.Getenv("GOOGLE_ID"),
		GoogleSecret: os.Getenv("GOOGLE_SECRET"),
		APIURL:       strings.TrimRight(os.Getenv("API_URL"), "/"),
		FEURL:        os.Getenv("FE_URL"),

		CORSOrigins: CSV(strings.Join([]string{os.Getenv("FE_DEV_URL"), os.Getenv("FE_PROD_URL")}, ",")),
	}

	var err error
	if cfg.AccessTokenTTL, err = ParseTTL(os.Getenv("ACCESS_TOKEN_TTL")); err != nil {
		return nil, fmt.Errorf("ACCESS_TOKEN_TTL: %w", err)
	}
	if cfg.RefreshTokenTTL, err = ParseTTL(os.Getenv("REFRESH_TOKEN_TTL")); err != nil {
		return nil, fmt.Errorf("REFRESH_TOKEN_TTL: %w", err)
	}
	if cfg.BlogCacheTTL, err = ParseTTL(EnvDefault("BLOG_CACHE_TTL", "5m")); err != nil {
		return nil, fmt.Errorf("BLOG_CACHE_TTL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("missing required env DATABASE_URL"))
	}
	if len(c.JWTSecret) == 0 {
		errs = append(errs, errors.New("missing required env JWT_SECRET"))
	}
	if len(c.RefreshSecret) == 0 {
		errs = append(errs, errors.New("missing required env REFRESH_SECRET"))
	}
	if len(c.JWTSecret) > 0 && bytes.Equal(c.JWTSecret, c.RefreshSecret) {
		errs = append(errs, errors.New("JWT_SECRET and REFRESH_SECRET must differ"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleID != "" && c.GoogleSecret != "" && c.APIURL != ""
}

func (c *Config) MinioEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != ""
}

// ParseTTL accepts Go durations plus a whole-day form such as "1d".
func ParseTTL(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
