package account

import (
	"strings"

	"github.com/authbase/backend/internal/domain/shared"
)

// ErrWeakPassword rejects passwords below the app's configured minimum strength
var ErrWeakPassword = shared.NewDomainError("WEAK_PASSWORD", "Password does not meet the app's minimum strength")

// A short list of passwords that always score zero regardless of shape
var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"12345678":   {},
	"123456789":  {},
	"qwerty123":  {},
	"letmein123": {},
	"iloveyou1":  {},
}

// EstimateStrength scores a password on the 0..4 scale used by
// minPasswordStrength. The heuristic rewards length and character variety;
// known-common passwords always score 0.
func EstimateStrength(password string) int {
	if len(password) < 8 {
		return 0
	}
	if _, common := commonPasswords[strings.ToLower(password)]; common {
		return 0
	}

	classes := 0
	if strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz") {
		classes++
	}
	if strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		classes++
	}
	if strings.ContainsAny(password, "0123456789") {
		classes++
	}
	if strings.IndexFunc(password, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9')
	}) >= 0 {
		classes++
	}

	score := 1
	if len(password) >= 12 {
		score++
	}
	if classes >= 3 {
		score++
	}
	if classes == 4 && len(password) >= 10 {
		score++
	}
	if score > 4 {
		score = 4
	}
	return score
}

// CheckPasswordStrength validates a candidate password against the minimum
// strength from the app's resolved config.
func CheckPasswordStrength(password string, minStrength int) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}
	if EstimateStrength(password) < minStrength {
		return ErrWeakPassword
	}
	return nil
}
