package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"encuesta/internal/bootstrap/config"
	"encuesta/internal/bootstrap/logging"
	"encuesta/internal/errs"
)

// opener builds the gorm dialector for one backend. Backends differ only here;
// everything above the *gorm.DB is dialect-agnostic.
type opener func(ctx context.Context, cfg config.DatabaseConfig) (gorm.Dialector, error)

var openers = map[string]opener{
	config.DriverSQLite:   openSQLite,
	config.DriverPostgres: openPostgres,
}

func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.database"))

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	open, ok := openers[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	dialector, err := open(logCtx, cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, errs.Wrapf(err, "open %s db", driver)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errs.Wrap(err, "get sql db")
	}
	maxOpen := cfg.MaxOpenConns
	if driver == config.DriverSQLite && isMemoryDSN(cfg.DSN) {
		// each connection to :memory: is a separate database
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	logging.Info(logCtx, "database opened", slog.String("driver", driver), slog.String("dsn", redactDSN(cfg.DSN)))
	return db, nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig) (gorm.Dialector, error) {
	if err := ensureSQLiteDirectory(ctx, cfg.DSN); err != nil {
		return nil, errs.Wrap(err, "ensure sqlite directory")
	}
	return gormsqlite.Open(WithSQLitePragmas(cfg.DSN)), nil
}

func openPostgres(_ context.Context, cfg config.DatabaseConfig) (gorm.Dialector, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	return postgres.Open(cfg.DSN), nil
}

// WithSQLitePragmas appends foreign key enforcement and a busy timeout to a
// sqlite DSN unless the caller already configured them.
func WithSQLitePragmas(dsn string) string {
	pragmas := []struct{ name, value string }{
		{name: "foreign_keys", value: "foreign_keys(1)"},
		{name: "busy_timeout", value: "busy_timeout(5000)"},
	}

	out := dsn
	for _, p := range pragmas {
		if hasSQLitePragma(out, p.name) {
			continue
		}
		sep := "?"
		if strings.Contains(out, "?") {
			sep = "&"
		}
		out += sep + "_pragma=" + p.value
	}
	return out
}

// hasSQLitePragma reports whether the DSN query already sets the named pragma.
// The file path is not inspected.
func hasSQLitePragma(dsn, name string) bool {
	idx := strings.Index(dsn, "?")
	if idx < 0 {
		return false
	}
	for _, param := range strings.Split(dsn[idx+1:], "&") {
		value, ok := strings.CutPrefix(param, "_pragma=")
		if !ok {
			continue
		}
		if unescaped, err := url.QueryUnescape(value); err == nil {
			value = unescaped
		}
		value = strings.ToLower(strings.TrimSpace(value))
		if value == name || strings.HasPrefix(value, name+"(") || strings.HasPrefix(value, name+"=") {
			return true
		}
	}
	return false
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// redactDSN hides the password of URL-style DSNs before logging.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}

func ensureSQLiteDirectory(ctx context.Context, dsn string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	candidate := strings.TrimSpace(dsn)
	if candidate == "" || isMemoryDSN(candidate) {
		return nil
	}

	if strings.HasPrefix(strings.ToLower(candidate), "file:") {
		candidate = candidate[len("file:"):]
	}
	if idx := strings.Index(candidate, "?"); idx >= 0 {
		candidate = candidate[:idx]
	}

	dir := filepath.Dir(candidate)
	if dir == "" || dir == "." {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrapf(err, "create sqlite directory %q", dir)
	}

	logging.Info(ctx, "sqlite directory ensured", slog.String("dir", dir))
	return nil
}
