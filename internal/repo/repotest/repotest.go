// Package repotest opens an in-memory store for tests.
package repotest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/blog/internal/config"
	"github.com/Skotchmaster/blog/internal/hash"
	"github.com/Skotchmaster/blog/internal/repo"
)

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	// every pooled connection to :memory: is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// New returns a repo over a fresh in-memory database with a fast hasher.
func New(t *testing.T) *repo.GormRepo {
	t.Helper()
	return repo.NewGormRepo(InitTestDB(t), hash.NewBcrypt(bcrypt.MinCost))
}
