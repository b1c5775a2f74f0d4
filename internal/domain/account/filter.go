package account

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Filter narrows a directory listing. Conditions compose with logical AND;
// the zero value matches every user.
type Filter struct {
	// Email matches users by exact (case-insensitive) email
	Email string
	// HasPassword keeps only users holding a password credential
	HasPassword bool
	// HasOauth keeps only users holding at least one OAuth credential
	HasOauth bool
	// OauthProviders keeps users holding an OAuth credential from any of
	// the listed providers
	OauthProviders []string
}

// IsZero reports whether the filter matches everything
func (f Filter) IsZero() bool {
	return f.Email == "" && !f.HasPassword && !f.HasOauth && len(f.OauthProviders) == 0
}

// Normalized returns the filter with canonical casing and provider order,
// so equivalent filters fingerprint identically.
func (f Filter) Normalized() Filter {
	out := Filter{
		Email:       strings.ToLower(strings.TrimSpace(f.Email)),
		HasPassword: f.HasPassword,
		HasOauth:    f.HasOauth,
	}
	if len(f.OauthProviders) > 0 {
		out.OauthProviders = make([]string, len(f.OauthProviders))
		for i, p := range f.OauthProviders {
			out.OauthProviders[i] = strings.ToLower(strings.TrimSpace(p))
		}
		sort.Strings(out.OauthProviders)
	}
	return out
}

// Fingerprint returns a stable digest of the normalized filter. Cursors carry
// it so a cursor minted under one filter is rejected under another.
func (f Filter) Fingerprint() string {
	n := f.Normalized()
	var sb strings.Builder
	sb.WriteString("email=")
	sb.WriteString(n.Email)
	sb.WriteString(";pw=")
	if n.HasPassword {
		sb.WriteString("1")
	}
	sb.WriteString(";oauth=")
	if n.HasOauth {
		sb.WriteString("1")
	}
	sb.WriteString(";providers=")
	sb.WriteString(strings.Join(n.OauthProviders, ","))

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:8])
}

// Matches evaluates the filter against an in-memory user with credentials
// loaded. Listing queries push the same predicate into SQL; this form backs
// verification and small in-process checks.
func (f Filter) Matches(u *User) bool {
	n := f.Normalized()

	if n.Email != "" && strings.ToLower(u.Email) != n.Email {
		return false
	}
	if n.HasPassword && u.PasswordCredential() == nil {
		return false
	}
	if n.HasOauth {
		found := false
		for i := range u.Credentials {
			if u.Credentials[i].Kind == CredentialKindOauth {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(n.OauthProviders) > 0 {
		found := false
		for _, p := range n.OauthProviders {
			if u.OauthCredential(p) != nil {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
