package account

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateStrength(t *testing.T) {
	tests := []struct {
		password string
		want     int
	}{
		{"short", 0},
		{"password", 0},
		{"PASSWORD1", 0},
		{"12345678", 0},
		{"aaaaaaaa", 1},
		{"aaaaaaaaaaaa", 2},
		{"Abcdef12", 2},
		{"Abcdefgh1234", 3},
		{"Abcdef12!x", 3},
		{"Tr0ub4dor&3longer", 4},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateStrength(tt.password))
		})
	}
}

func TestCheckPasswordStrength(t *testing.T) {
	t.Run("accepts password at or above minimum", func(t *testing.T) {
		assert.NoError(t, CheckPasswordStrength("Abcdefgh1234", 3))
		assert.NoError(t, CheckPasswordStrength("aaaaaaaa", 0))
	})

	t.Run("rejects weak password", func(t *testing.T) {
		err := CheckPasswordStrength("aaaaaaaa", 2)

		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("rejects empty password regardless of minimum", func(t *testing.T) {
		assert.Error(t, CheckPasswordStrength("", 0))
	})

	t.Run("rejects overlong password", func(t *testing.T) {
		assert.Error(t, CheckPasswordStrength(strings.Repeat("Aa1!", 40), 0))
	})
}
