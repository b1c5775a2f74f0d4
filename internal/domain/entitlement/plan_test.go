package entitlement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanTier_Label(t *testing.T) {
	assert.Equal(t, "BASIC", TierFree.Label())
	assert.Equal(t, "PRO", TierPro.Label())
	assert.Equal(t, "PREMIUM", TierPremium.Label())
	assert.Equal(t, "UNKNOWN", PlanTier(7).Label())
}

func TestPlanTier_Code(t *testing.T) {
	assert.Equal(t, "T0", TierFree.Code())
	assert.Equal(t, "T1", TierPro.Code())
	assert.Equal(t, "T2", TierPremium.Code())
	assert.Equal(t, "UNKNOWN", PlanTier(7).Code())
}

func TestPlanTier_IsValid(t *testing.T) {
	assert.True(t, TierFree.IsValid())
	assert.True(t, TierPremium.IsValid())
	assert.False(t, PlanTier(-1).IsValid())
	assert.False(t, PlanTier(3).IsValid())
}

func TestPlanTier_AtLeast(t *testing.T) {
	assert.True(t, TierPremium.AtLeast(TierPro))
	assert.True(t, TierPro.AtLeast(TierPro))
	assert.False(t, TierFree.AtLeast(TierPro))
}

func TestTierFromLabel(t *testing.T) {
	t.Run("parses known labels case-insensitively", func(t *testing.T) {
		for label, want := range map[string]PlanTier{
			"BASIC":   TierFree,
			"free":    TierFree,
			" pro ":   TierPro,
			"Premium": TierPremium,
			"t0":      TierFree,
			"T1":      TierPro,
			"T2":      TierPremium,
		} {
			got, err := TierFromLabel(label)
			require.NoError(t, err, label)
			assert.Equal(t, want, got, label)
		}
	})

	t.Run("rejects unknown label", func(t *testing.T) {
		_, err := TierFromLabel("ENTERPRISE")

		assert.ErrorIs(t, err, ErrUnknownPlan)
	})
}

func TestApplyTaxRate(t *testing.T) {
	tests := []struct {
		name     string
		subtotal int64
		rate     string
		want     int64
	}{
		{"zero rate", 1000, "0", 0},
		{"whole percent", 1000, "19", 190},
		{"rounds half up", 1990, "9.5", 189},
		{"fractional rate", 999, "7.7", 77},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := decimal.NewFromString(tt.rate)
			require.NoError(t, err)

			assert.Equal(t, tt.want, ApplyTaxRate(tt.subtotal, rate))
		})
	}
}
