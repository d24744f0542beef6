// Package catalog queries the CCDB project catalog for projects and
// microscopy products.
//
// The production catalog lives in PostgreSQL (lib/pq). A SQLite file with the
// same tables can stand in for it as a local mirror; CreateSQLite builds one.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ncmirtools/internal/config"
	"ncmirtools/internal/logging"
)

// ErrCatalogNotFound reports a sqlite catalog path that does not exist.
var ErrCatalogNotFound = errors.New("catalog database not found")

// Store wraps a catalog connection.
type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open connects to the catalog described by settings and verifies the
// connection.
func Open(ctx context.Context, settings config.Database, logger *slog.Logger) (*Store, error) {
	logger = logging.NewComponentLogger(logger, "catalog")

	var (
		db  *sql.DB
		err error
	)
	switch settings.Driver {
	case "sqlite":
		if _, statErr := os.Stat(settings.Path); statErr != nil {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, settings.Path)
		}
		db, err = openSQLite(settings.Path)
	case "postgres":
		db, err = sql.Open("postgres", postgresURL(settings))
		if err == nil {
			db.SetMaxOpenConns(2)
			db.SetConnMaxLifetime(5 * time.Minute)
		}
	default:
		return nil, fmt.Errorf("database.driver: unsupported value %q", settings.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s catalog: %w", settings.Driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s catalog: %w", settings.Driver, err)
	}
	logger.Debug("catalog connected",
		logging.String("driver", settings.Driver),
		logging.String("host", settings.Host),
		logging.String("database", settings.Name),
	)
	return &Store{db: db, driver: settings.Driver, logger: logger}, nil
}

// OpenFromConfig validates the [database] section and opens the catalog.
func OpenFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	settings, err := cfg.DatabaseSettings()
	if err != nil {
		return nil, err
	}
	return Open(ctx, settings, logger)
}

// CreateSQLite creates (or opens) a SQLite catalog at path and ensures the
// catalog tables exist.
func CreateSQLite(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite catalog: %w", err)
	}
	store := &Store{db: db, driver: "sqlite", logger: logging.NewComponentLogger(logger, "catalog")}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}
	return db, nil
}

func postgresURL(settings config.Database) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   settings.Host,
		Path:   "/" + settings.Name,
	}
	if settings.Port > 0 {
		u.Host = settings.Host + ":" + strconv.Itoa(settings.Port)
	}
	if settings.Password != "" {
		u.User = url.UserPassword(settings.User, settings.Password)
	} else {
		u.User = url.User(settings.User)
	}
	q := url.Values{}
	if settings.SSLMode != "" {
		q.Set("sslmode", settings.SSLMode)
	}
	q.Set("application_name", "ncmirtools")
	u.RawQuery = q.Encode()
	return u.String()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind rewrites ? placeholders into the $n form lib/pq expects.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy retries op while a local mirror is being rewritten underneath us.
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
