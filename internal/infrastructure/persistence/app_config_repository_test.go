package persistence

import (
	"context"
	"testing"

	"github.com/authbase/backend/internal/domain/app"
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormAppConfigRepository_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormAppConfigRepository(db)
	ctx := context.Background()
	appID := uuid.New()

	enabled := true
	clientID := "cid-123"
	clientSecret := "sec-456"
	minStrength := 3

	rec := app.NewConfigRecord(appID)
	require.NoError(t, rec.Apply(app.Config{
		MinPasswordStrength: &minStrength,
		Providers: map[string]app.ProviderSettings{
			"google": {Enabled: &enabled, ClientID: &clientID, ClientSecret: &clientSecret},
		},
	}))
	require.NoError(t, repo.Create(ctx, rec))

	found, err := repo.FindByAppID(ctx, appID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, found.ID)
	assert.Equal(t, appID, found.AppID)
	assert.Equal(t, rec.Version, found.Version)

	resolved := found.Config.Resolve()
	assert.Equal(t, 3, resolved.MinPasswordStrength)
	provider, err := resolved.ProviderForLogin("google")
	require.NoError(t, err)
	assert.Equal(t, "cid-123", provider.ClientID)
}

func TestGormAppConfigRepository_Update(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormAppConfigRepository(db)
	ctx := context.Background()
	appID := uuid.New()

	rec := app.NewConfigRecord(appID)
	require.NoError(t, repo.Create(ctx, rec))

	t.Run("saves when the stored version matches", func(t *testing.T) {
		required := true
		require.NoError(t, rec.Apply(app.Config{RequireMFA: &required}))
		require.NoError(t, repo.Update(ctx, rec))

		found, err := repo.FindByAppID(ctx, appID)
		require.NoError(t, err)
		assert.Equal(t, rec.Version, found.Version)
		assert.True(t, found.Config.Resolve().RequireMFA)
	})

	t.Run("stale version is a concurrency conflict", func(t *testing.T) {
		stale := app.NewConfigRecord(appID)
		stale.ID = rec.ID
		required := false
		require.NoError(t, stale.Apply(app.Config{RequireMFA: &required}))

		err := repo.Update(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormAppConfigRepository_DeleteByAppID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormAppConfigRepository(db)
	ctx := context.Background()
	appID := uuid.New()

	require.NoError(t, repo.Create(ctx, app.NewConfigRecord(appID)))
	require.NoError(t, repo.DeleteByAppID(ctx, appID))

	_, err := repo.FindByAppID(ctx, appID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
