package account

import (
	"testing"

	"github.com/authbase/backend/internal/domain/app"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordCredential(t *testing.T) {
	t.Run("hashes the password", func(t *testing.T) {
		c, err := NewPasswordCredential(uuid.New(), uuid.New(), "Alice@Example.com", "correct horse battery")

		require.NoError(t, err)
		assert.Equal(t, CredentialKindPassword, c.Kind)
		assert.Equal(t, "alice@example.com", c.Email)
		assert.NotEqual(t, "correct horse battery", c.PasswordHash)
		assert.True(t, c.VerifyPassword("correct horse battery"))
		assert.False(t, c.VerifyPassword("wrong"))
	})

	t.Run("records estimated strength", func(t *testing.T) {
		c, err := NewPasswordCredential(uuid.New(), uuid.New(), "a@example.com", "Tr0ub4dor&3longer")

		require.NoError(t, err)
		assert.Equal(t, EstimateStrength("Tr0ub4dor&3longer"), c.Strength)
	})

	t.Run("fails with invalid email", func(t *testing.T) {
		c, err := NewPasswordCredential(uuid.New(), uuid.New(), "nope", "correct horse battery")

		assert.Error(t, err)
		assert.Nil(t, c)
	})
}

func TestNewOauthCredential(t *testing.T) {
	t.Run("normalizes provider and provider email", func(t *testing.T) {
		c, err := NewOauthCredential(uuid.New(), uuid.New(), " Google ", "ext-1", "Alice@Gmail.com")

		require.NoError(t, err)
		assert.Equal(t, "google", c.Provider)
		assert.Equal(t, "alice@gmail.com", c.ProviderEmail)
	})

	t.Run("fails without provider or external id", func(t *testing.T) {
		_, err := NewOauthCredential(uuid.New(), uuid.New(), "", "ext-1", "")
		assert.Error(t, err)

		_, err = NewOauthCredential(uuid.New(), uuid.New(), "google", "  ", "")
		assert.Error(t, err)
	})
}

func TestCredential_SetPassword(t *testing.T) {
	t.Run("replaces the hash", func(t *testing.T) {
		c, err := NewPasswordCredential(uuid.New(), uuid.New(), "a@example.com", "old password 123")
		require.NoError(t, err)

		require.NoError(t, c.SetPassword("new password 456"))

		assert.False(t, c.VerifyPassword("old password 123"))
		assert.True(t, c.VerifyPassword("new password 456"))
	})

	t.Run("rejected on non-password credential", func(t *testing.T) {
		c, err := NewOauthCredential(uuid.New(), uuid.New(), "google", "ext-1", "")
		require.NoError(t, err)

		assert.Error(t, c.SetPassword("whatever password"))
	})
}

func TestCredential_VerifyPassword(t *testing.T) {
	t.Run("always false on non-password variants", func(t *testing.T) {
		oauth, err := NewOauthCredential(uuid.New(), uuid.New(), "google", "ext-1", "")
		require.NoError(t, err)

		assert.False(t, oauth.VerifyPassword("anything"))
	})
}

func TestCredential_UsableWith(t *testing.T) {
	enabled := true
	cid := "cid"
	sec := "sec"

	cfgWith := func(p map[string]app.ProviderSettings) app.Resolved {
		return app.Config{Providers: p}.Resolve()
	}

	t.Run("password credential is always usable", func(t *testing.T) {
		c, err := NewPasswordCredential(uuid.New(), uuid.New(), "a@example.com", "correct horse battery")
		require.NoError(t, err)

		assert.NoError(t, c.UsableWith(app.Config{}.Resolve()))
	})

	t.Run("oauth credential requires an enabled complete provider", func(t *testing.T) {
		c, err := NewOauthCredential(uuid.New(), uuid.New(), "google", "ext-1", "")
		require.NoError(t, err)

		err = c.UsableWith(cfgWith(nil))
		assert.ErrorIs(t, err, app.ErrLoginMethodDisabled)

		err = c.UsableWith(cfgWith(map[string]app.ProviderSettings{
			"google": {Enabled: &enabled},
		}))
		assert.ErrorIs(t, err, app.ErrIncompleteConfig)

		err = c.UsableWith(cfgWith(map[string]app.ProviderSettings{
			"google": {Enabled: &enabled, ClientID: &cid, ClientSecret: &sec},
		}))
		assert.NoError(t, err)
	})

	t.Run("totp credential requires completed enrollment", func(t *testing.T) {
		c, err := NewTotpCredential(uuid.New(), uuid.New(), "vault/ref/1")
		require.NoError(t, err)

		assert.Error(t, c.UsableWith(app.Config{}.Resolve()))

		require.NoError(t, c.CompleteEnrollment())
		assert.NoError(t, c.UsableWith(app.Config{}.Resolve()))
	})
}
