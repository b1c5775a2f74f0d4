package entitlement

import (
	"strings"

	"github.com/authbase/backend/internal/domain/shared"
)

// PlanTier is an ordered subscription level. Higher tiers strictly include
// the capabilities of lower ones.
type PlanTier int

const (
	TierFree    PlanTier = 0
	TierPro     PlanTier = 1
	TierPremium PlanTier = 2
)

// Display labels used on the external billing system's price metadata
const (
	LabelFree    = "BASIC"
	LabelPro     = "PRO"
	LabelPremium = "PREMIUM"
)

var ErrUnknownPlan = shared.NewDomainError("UNKNOWN_PLAN", "Unknown plan tier")

// Label returns the billing-facing display label for the tier
func (t PlanTier) Label() string {
	switch t {
	case TierFree:
		return LabelFree
	case TierPro:
		return LabelPro
	case TierPremium:
		return LabelPremium
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether the tier is one of the known levels
func (t PlanTier) IsValid() bool {
	return t >= TierFree && t <= TierPremium
}

// AtLeast reports whether the tier meets or exceeds the given minimum
func (t PlanTier) AtLeast(min PlanTier) bool {
	return t >= min
}

// Code returns the short tier identifier used in API payloads and price
// lookup keys.
func (t PlanTier) Code() string {
	switch t {
	case TierFree:
		return "T0"
	case TierPro:
		return "T1"
	case TierPremium:
		return "T2"
	default:
		return "UNKNOWN"
	}
}

// TierFromLabel parses a billing display label or short tier code into a
// tier.
func TierFromLabel(label string) (PlanTier, error) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case LabelFree, "FREE", "T0":
		return TierFree, nil
	case LabelPro, "T1":
		return TierPro, nil
	case LabelPremium, "T2":
		return TierPremium, nil
	default:
		return TierFree, ErrUnknownPlan
	}
}
