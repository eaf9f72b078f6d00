package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/models"
)

const sqlitePrefix = "sqlite://"

// Options tunes the connection pool and SQL logging.
type Options struct {
	MaxOpenConns  int
	SlowThreshold time.Duration
	LogLevel      gormlogger.LogLevel
}

// gormWriter routes gorm's SQL log through the service logger.
type gormWriter struct{ h *log.Helper }

func (w gormWriter) Printf(format string, args ...any) { w.h.Infof(format, args...) }

// Open connects to postgres, or to SQLite when dsn starts with "sqlite://".
func Open(ctx context.Context, dsn string, opts Options, logger log.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, sqlitePrefix) {
		dialector = sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix))
	} else {
		dialector = postgres.Open(dsn)
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = gormlogger.Warn
	}
	if opts.SlowThreshold == 0 {
		opts.SlowThreshold = time.Second
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(gormWriter{h: log.NewHelper(log.With(logger, "module", "gorm"))}, gormlogger.Config{
			SlowThreshold:             opts.SlowThreshold,
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB(): %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		sqlDB.SetMaxIdleConns(opts.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table, including the composite unique keys
// that back review, wishlist and follow uniqueness.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
