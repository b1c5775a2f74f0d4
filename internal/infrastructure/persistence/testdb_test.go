package persistence

import (
	"testing"

	"github.com/authbase/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the full schema
// migrated. Each call returns an isolated database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.AppModel{},
		&models.AppConfigModel{},
		&models.AppHostModel{},
		&models.AppUserModel{},
		&models.CredentialModel{},
		&models.EntitlementModel{},
		&models.ReconcileJobModel{},
	)
	require.NoError(t, err)

	return db
}
