package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/krudrav/solace/backend/models"
	"github.com/krudrav/solace/backend/repository"
)

func newTestRepo(t *testing.T) *repository.GORMRepository {
	t.Helper()

	// Shared-cache in-memory database with a unique name per test; a single
	// connection keeps concurrent access serialized and lock-free
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	repo := repository.NewGORMRepository(db)
	require.NoError(t, repo.AutoMigrate())
	return repo
}

func createTestUser(t *testing.T, repo *repository.GORMRepository, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:    email,
		Password: "hashed-password",
		FullName: "Test User",
		Role:     "user",
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}
