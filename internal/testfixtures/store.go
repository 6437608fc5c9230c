package testfixtures

import (
	"context"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/panopto-checks/internal/repo"
)

// NewStore returns a Store over a private, migrated in-memory database and
// the raw handle, so tests can seed rows or register failing callbacks.
func NewStore(t testing.TB) (*repo.Store, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo.NewStoreFromDB(db), db
}

// Day is the calendar date used by scenario tests.
const Day = "2025-05-08"
