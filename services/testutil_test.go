package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/veilboard/veilboard/models"
)

// newTestDB opens an isolated in-memory database with the production schema.
// TranslateError is on, matching the MySQL setup, so duplicate-key handling
// behaves the same as in production.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and shared.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.CheckIn{},
		&models.Post{},
		&models.Comment{},
		&models.Message{},
	))
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func setVip(t *testing.T, db *gorm.DB, userID uint, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", userID).
		Update("vip_expires_at", expiresAt).Error)
}

var testBase = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
