package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/authbase/backend/internal/domain/app"
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockAppRepository creates a GormAppRepository over a mocked postgres
// connection so the generated SQL can be asserted directly.
func newMockAppRepository(t *testing.T) (*GormAppRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormAppRepository(gormDB), mock, mockDB
}

func renamedApp(t *testing.T) *app.App {
	a, err := app.NewApp(uuid.New(), "Acme Portal")
	require.NoError(t, err)
	require.NoError(t, a.Rename("Acme Portal v2"))
	return a
}

func TestGormAppRepository_UpdateSQL(t *testing.T) {
	t.Run("guards the write with the previous version", func(t *testing.T) {
		repo, mock, mockDB := newMockAppRepository(t)
		defer mockDB.Close()

		a := renamedApp(t)

		mock.ExpectExec(`UPDATE "apps" SET .+ WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Update(context.Background(), a)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero matched rows is a concurrency conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockAppRepository(t)
		defer mockDB.Close()

		a := renamedApp(t)

		mock.ExpectExec(`UPDATE "apps" SET .+ WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(context.Background(), a)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver errors pass through unchanged", func(t *testing.T) {
		repo, mock, mockDB := newMockAppRepository(t)
		defer mockDB.Close()

		a := renamedApp(t)

		mock.ExpectExec(`UPDATE "apps" SET .+ WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnError(sql.ErrConnDone)

		err := repo.Update(context.Background(), a)

		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAppRepository_DeleteSQL(t *testing.T) {
	repo, mock, mockDB := newMockAppRepository(t)
	defer mockDB.Close()

	id := uuid.New()

	mock.ExpectExec(`DELETE FROM "apps" WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), id)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
