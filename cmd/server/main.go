package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/blog/internal/auth"
	"github.com/Skotchmaster/blog/internal/cache"
	"github.com/Skotchmaster/blog/internal/config"
	"github.com/Skotchmaster/blog/internal/events"
	"github.com/Skotchmaster/blog/internal/hash"
	"github.com/Skotchmaster/blog/internal/httpserver"
	"github.com/Skotchmaster/blog/internal/logging"
	"github.com/Skotchmaster/blog/internal/metrics"
	loggingmw "github.com/Skotchmaster/blog/internal/middleware/logging"
	"github.com/Skotchmaster/blog/internal/oauth"
	"github.com/Skotchmaster/blog/internal/repo"
	"github.com/Skotchmaster/blog/internal/search"
	"github.com/Skotchmaster/blog/internal/service"
	"github.com/Skotchmaster/blog/internal/storage"
	"github.com/Skotchmaster/blog/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.OpenDB(initCtx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}

	gormRepo := repo.NewGormRepo(db, hash.NewBcrypt(cfg.BcryptCost))
	tokenSvc := &tokens.Service{
		Store:         gormRepo,
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}

	authSvc := &service.AuthService{Repo: gormRepo, Tokens: tokenSvc}
	blogSvc := &service.BlogService{Repo: gormRepo}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		authSvc.Events = producer
		blogSvc.Events = producer
	}

	if cfg.ESURL != "" {
		idx, err := search.NewIndex(search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword, Index: cfg.ESIndex})
		if err != nil {
			logger.Warn("search_disabled", "error", err)
		} else {
			blogSvc.Index = idx
		}
	}

	var blogCache *cache.BlogCache
	if cfg.RedisAddr != "" {
		blogCache, err = cache.New(initCtx, cfg.RedisAddr, cfg.BlogCacheTTL)
		if err != nil {
			logger.Warn("cache_disabled", "error", err)
		} else {
			blogSvc.Cache = blogCache
		}
	}

	if cfg.MinioEnabled() {
		covers, err := storage.New(storage.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err == nil {
			err = covers.EnsureBucket(initCtx)
		}
		if err != nil {
			logger.Warn("cover_storage_disabled", "error", err)
		} else {
			blogSvc.Covers = covers
		}
	}
	cancel()

	var googleHandler *httpserver.GoogleHTTP
	if cfg.GoogleEnabled() {
		provider := oauth.NewGoogle(cfg.GoogleID, cfg.GoogleSecret, cfg.APIURL)
		googleHandler = httpserver.NewGoogleHTTP(provider, authSvc, cfg.FEURL, strings.HasPrefix(cfg.APIURL, "https://"))
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("db handle: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	if len(cfg.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	} else {
		e.Use(echomw.CORS())
	}
	e.Use(metrics.Middleware())
	e.Use(loggingmw.RequestLogger(logger))

	bearer := &auth.Bearer{Tokens: tokenSvc}
	httpserver.Register(e, &httpserver.Deps{
		AuthorHandler: &httpserver.AuthorHTTP{Svc: authSvc},
		BlogHandler:   &httpserver.BlogHTTP{Svc: blogSvc},
		GoogleHandler: googleHandler,
		Credentials:   auth.NewScheme(&auth.Basic{Store: gormRepo}, bearer),
		Bearer:        bearer,
		Ready:         sqlDB.PingContext,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting_down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("db_close_error", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if blogCache != nil {
		if err := blogCache.Close(); err != nil {
			logger.Error("redis_close_error", "error", err)
		}
	}

	logger.Info("shutdown_complete")
}
