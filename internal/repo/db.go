// Package repo implements the local durable store of the check daemon,
// backed by GORM over SQLite (pure Go driver). This file contains database
// bootstrapping: opening the file, PRAGMAs, the version-guarded schema
// migration and the lazily opened Store shared by every operation.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/panopto-checks/internal/domain"
)

// SchemaVersion is stored in PRAGMA user_version once the schema exists.
const SchemaVersion = 1

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Options tunes how OpenSQLite builds the GORM handle.
type Options struct {
	// Tracing installs the OpenTelemetry GORM plugin.
	Tracing bool
	// LogLevel is the GORM logger level; zero means silent.
	LogLevel logger.LogLevel
}

// connPragmas run on every pooled connection the driver opens.
var connPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// withPragmas appends connPragmas to the DSN as _pragma parameters.
func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(dsn)
	for _, p := range connPragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// OpenSQLite opens (or creates) a SQLite database. PRAGMAs travel in the DSN
// so each connection of the pool gets them.
func OpenSQLite(path string, opts Options) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	file, _, _ := strings.Cut(path, "?")
	if dir := filepath.Dir(strings.TrimPrefix(file, "file:")); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	lvl := opts.LogLevel
	if lvl == 0 {
		lvl = logger.Silent
	}
	db, err := gorm.Open(sqlite.Open(withPragmas(path)), &gorm.Config{
		Logger: logger.Default.LogMode(lvl),
	})
	if err != nil {
		return nil, err
	}

	if opts.Tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("gorm tracing: %w", err)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// Migrate creates both collections exactly once. The user_version check and
// the DDL share one transaction, so a failure leaves the version untouched
// and is reported to the caller.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var version int
		if err := tx.Raw("PRAGMA user_version").Row().Scan(&version); err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if version >= SchemaVersion {
			return nil
		}
		if err := tx.AutoMigrate(&domain.RegisteredEvent{}, &domain.IssuedCheck{}); err != nil {
			return fmt.Errorf("create collections: %w", err)
		}
		m := tx.Migrator()
		for _, tbl := range []any{&domain.RegisteredEvent{}, &domain.IssuedCheck{}} {
			if !m.HasTable(tbl) {
				return fmt.Errorf("collection for %T missing after migration", tbl)
			}
		}
		if err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)).Error; err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
		return nil
	})
}

// Store is the lazily opened database handle of the worker. Open is safe to
// call repeatedly and from several goroutines; the first successful call
// opens and migrates, later calls return the same handle. A failed open is
// not cached, so the next call retries.
type Store struct {
	path string
	opts Options

	mu sync.Mutex
	db *gorm.DB
}

// NewStore returns a Store for the SQLite database at path.
func NewStore(path string, opts Options) *Store {
	return &Store{path: path, opts: opts}
}

// NewStoreFromDB wraps an already opened and migrated handle.
func NewStoreFromDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open returns the shared handle, opening and migrating it on first use.
func (s *Store) Open(ctx context.Context) (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	db, err := OpenSQLite(s.path, s.opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		if sqlDB, derr := db.DB(); derr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("open store: %w", err)
	}
	s.db = db
	return db, nil
}

// Close releases the underlying connection pool if it was opened.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.db = nil
	return sqlDB.Close()
}
