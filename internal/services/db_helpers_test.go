package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/infrastructure/repositories"
)

// setupTestDB opens a migrated in-memory SQLite database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(repositories.Models()...))
	return db
}

// seedUsers stores users and returns them with ids assigned.
func seedUsers(t *testing.T, repo domain.UserRepository, users ...*domain.User) []*domain.User {
	t.Helper()
	for _, u := range users {
		require.NoError(t, repo.Create(context.Background(), u))
	}
	return users
}
