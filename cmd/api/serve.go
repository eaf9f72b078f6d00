package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/auth"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/config"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/handlers"
	httpserver "github.com/hardingsamueljohn-a11y/CineLink/internal/http"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/social"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/store"
	"github.com/hardingsamueljohn-a11y/CineLink/internal/tmdb"
)

const shutdownTimeout = 15 * time.Second

func newLogger(level string) log.Logger {
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
	)
	return log.NewFilter(logger, log.FilterLevel(log.ParseLevel(level)))
}

func openDB(ctx context.Context, cfg config.Config, logger log.Logger) (*gorm.DB, func(), error) {
	db, err := store.Open(ctx, cfg.DatabaseURL, store.Options{MaxOpenConns: cfg.DatabaseMaxOpenConns}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

func runMigrate(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)
	db, cleanup, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := store.Migrate(db); err != nil {
		return err
	}
	log.NewHelper(logger).Info("schema up to date")
	return nil
}

// catalogCache prefers redis and falls back to the in-process cache when
// REDIS_ADDR is unset or unreachable.
func catalogCache(ctx context.Context, cfg config.Config, l *log.Helper) (tmdb.Cache, func()) {
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		})
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pctx).Err(); err != nil {
			l.Warnf("failed to connect to redis, using memory cache: %v", err)
			_ = rdb.Close()
		} else {
			l.Info("redis connected successfully")
			return tmdb.NewRedisCache(rdb, cfg.CatalogCacheTTL), func() { _ = rdb.Close() }
		}
	}
	return tmdb.NewMemoryCache(cfg.CatalogCacheTTL), func() {}
}

func runServe(ctx context.Context, migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)
	l := log.NewHelper(log.With(logger, "module", "main"))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()
	if migrate {
		if err := store.Migrate(db); err != nil {
			return err
		}
	}

	tmdbClient := tmdb.New(cfg.TMDBAPIKey, cfg.TMDBBaseURL)
	tmdbClient.Language = cfg.TMDBLanguage
	tmdbClient.Region = cfg.TMDBRegion
	cacheStore, closeCache := catalogCache(ctx, cfg, l)
	defer closeCache()
	catalog := tmdb.NewCachedClient(tmdbClient, cacheStore, logger)

	svc := social.NewService(store.New(db), catalog, social.Config{
		StoreTimeout:   cfg.StoreTimeout,
		CatalogTimeout: cfg.CatalogTimeout,
		TimelineLimit:  cfg.TimelineLimit,
	}, logger)
	api := handlers.NewAPI(catalog, svc, logger)

	verifier := &auth.SupabaseVerifier{
		PublicKeyPEMOrJWKS: cfg.SupabaseJWTPublicKey,
		JWKSURL:            cfg.SupabaseJWKSURL,
		Secret:             cfg.SupabaseJWTSecret,
		Audience:           cfg.SupabaseJWTAudience,
		Issuer:             cfg.SupabaseJWTIssuer,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpserver.NewServer(api.Mount(verifier)).Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		l.Infof("listening on %s", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	l.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
