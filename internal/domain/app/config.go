package app

import (
	"sort"
	"strings"
	"time"

	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ConfigSchemaVersion is the current config document schema version.
// Version 1 allowed minPasswordStrength to be absent; version 2 treats it as
// required, with absent values resolved to the baseline at read time.
const ConfigSchemaVersion = 2

// Password strength scale bounds (zxcvbn-style 0..4)
const (
	MinPasswordStrengthFloor   = 0
	MinPasswordStrengthCeil    = 4
	DefaultMinPasswordStrength = 2
)

// Config-specific errors
var (
	ErrInvalidConfig    = shared.NewDomainError("INVALID_CONFIG", "Config value out of valid range")
	ErrIncompleteConfig = shared.NewDomainError("INCOMPLETE_CONFIG", "Login provider is enabled but missing client credentials")
)

// ProviderSettings holds the optional OAuth settings for one provider.
// All fields are optional; completeness is validated at login time, not at
// config write time.
type ProviderSettings struct {
	Enabled      *bool    `json:"enabled,omitempty"`
	ClientID     *string  `json:"client_id,omitempty"`
	ClientSecret *string  `json:"client_secret,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	RedirectURL  *string  `json:"redirect_url,omitempty"`
}

// Config is the versioned bag of optional per-app settings. Fields absent
// from older documents default to "feature disabled" at read time, never to
// an unsafe value.
type Config struct {
	SchemaVersion            int                         `json:"schema_version"`
	VerifyEmail              *bool                       `json:"verify_email,omitempty"`
	RequireVerification      *bool                       `json:"require_verification,omitempty"`
	VerificationTargetURI    *string                     `json:"verification_target_uri,omitempty"`
	VerificationRedirectURI  *string                     `json:"verification_redirect_uri,omitempty"`
	ResetPasswordURI         *string                     `json:"reset_password_uri,omitempty"`
	ResetPasswordRedirectURI *string                     `json:"reset_password_redirect_uri,omitempty"`
	MinPasswordStrength      *int                        `json:"min_password_strength,omitempty"`
	RequireMFA               *bool                       `json:"require_mfa,omitempty"`
	AllowHTTP                *bool                       `json:"allow_http,omitempty"`
	Providers                map[string]ProviderSettings `json:"providers,omitempty"`
}

// DefaultConfig returns the all-defaults document created alongside a new app
func DefaultConfig() Config {
	return Config{
		SchemaVersion: ConfigSchemaVersion,
		Providers:     make(map[string]ProviderSettings),
	}
}

// Merge overlays the patch onto the config. Unspecified (nil) patch fields
// retain their prior values. MinPasswordStrength outside the valid range is
// rejected; everything else, including partially configured providers, is
// accepted as written.
func (c *Config) Merge(patch Config) error {
	if patch.MinPasswordStrength != nil {
		s := *patch.MinPasswordStrength
		if s < MinPasswordStrengthFloor || s > MinPasswordStrengthCeil {
			return ErrInvalidConfig
		}
	}

	if patch.VerifyEmail != nil {
		c.VerifyEmail = patch.VerifyEmail
	}
	if patch.RequireVerification != nil {
		c.RequireVerification = patch.RequireVerification
	}
	if patch.VerificationTargetURI != nil {
		c.VerificationTargetURI = patch.VerificationTargetURI
	}
	if patch.VerificationRedirectURI != nil {
		c.VerificationRedirectURI = patch.VerificationRedirectURI
	}
	if patch.ResetPasswordURI != nil {
		c.ResetPasswordURI = patch.ResetPasswordURI
	}
	if patch.ResetPasswordRedirectURI != nil {
		c.ResetPasswordRedirectURI = patch.ResetPasswordRedirectURI
	}
	if patch.MinPasswordStrength != nil {
		c.MinPasswordStrength = patch.MinPasswordStrength
	}
	if patch.RequireMFA != nil {
		c.RequireMFA = patch.RequireMFA
	}
	if patch.AllowHTTP != nil {
		c.AllowHTTP = patch.AllowHTTP
	}

	for name, settings := range patch.Providers {
		if c.Providers == nil {
			c.Providers = make(map[string]ProviderSettings)
		}
		current := c.Providers[strings.ToLower(name)]
		if settings.Enabled != nil {
			current.Enabled = settings.Enabled
		}
		if settings.ClientID != nil {
			current.ClientID = settings.ClientID
		}
		if settings.ClientSecret != nil {
			current.ClientSecret = settings.ClientSecret
		}
		if settings.Scopes != nil {
			current.Scopes = settings.Scopes
		}
		if settings.RedirectURL != nil {
			current.RedirectURL = settings.RedirectURL
		}
		c.Providers[strings.ToLower(name)] = current
	}

	c.SchemaVersion = ConfigSchemaVersion

	return nil
}

// ResolvedProvider is the effective view of one provider's settings
type ResolvedProvider struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	Scopes       []string
	RedirectURL  string
}

// Complete reports whether the provider can actually serve a login attempt
func (p ResolvedProvider) Complete() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// Resolved is the read view of a config document with every default applied
type Resolved struct {
	VerifyEmail              bool
	RequireVerification      bool
	VerificationTargetURI    string
	VerificationRedirectURI  string
	ResetPasswordURI         string
	ResetPasswordRedirectURI string
	MinPasswordStrength      int
	RequireMFA               bool
	AllowHTTP                bool
	Providers                map[string]ResolvedProvider
}

// Resolve applies read-time default resolution to the stored document.
// Documents written before minPasswordStrength became required receive the
// baseline value; the stored document is not rewritten.
func (c Config) Resolve() Resolved {
	r := Resolved{
		VerifyEmail:              boolOrFalse(c.VerifyEmail),
		RequireVerification:      boolOrFalse(c.RequireVerification),
		VerificationTargetURI:    strOrEmpty(c.VerificationTargetURI),
		VerificationRedirectURI:  strOrEmpty(c.VerificationRedirectURI),
		ResetPasswordURI:         strOrEmpty(c.ResetPasswordURI),
		ResetPasswordRedirectURI: strOrEmpty(c.ResetPasswordRedirectURI),
		MinPasswordStrength:      DefaultMinPasswordStrength,
		RequireMFA:               boolOrFalse(c.RequireMFA),
		AllowHTTP:                boolOrFalse(c.AllowHTTP),
		Providers:                make(map[string]ResolvedProvider, len(c.Providers)),
	}

	if c.MinPasswordStrength != nil {
		r.MinPasswordStrength = clampStrength(*c.MinPasswordStrength)
	}

	for name, settings := range c.Providers {
		r.Providers[strings.ToLower(name)] = ResolvedProvider{
			Enabled:      boolOrFalse(settings.Enabled),
			ClientID:     strOrEmpty(settings.ClientID),
			ClientSecret: strOrEmpty(settings.ClientSecret),
			Scopes:       settings.Scopes,
			RedirectURL:  strOrEmpty(settings.RedirectURL),
		}
	}

	return r
}

// ProviderForLogin returns the provider settings required to serve a login
// attempt. Disabled providers return ErrLoginMethodDisabled; enabled but
// incompletely configured providers fail here, at use time, with
// ErrIncompleteConfig.
func (r Resolved) ProviderForLogin(name string) (ResolvedProvider, error) {
	p, ok := r.Providers[strings.ToLower(name)]
	if !ok || !p.Enabled {
		return ResolvedProvider{}, ErrLoginMethodDisabled
	}
	if !p.Complete() {
		return ResolvedProvider{}, ErrIncompleteConfig
	}
	return p, nil
}

// EnabledProviders returns the names of enabled providers in sorted order
func (r Resolved) EnabledProviders() []string {
	names := make([]string, 0, len(r.Providers))
	for name, p := range r.Providers {
		if p.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ErrLoginMethodDisabled rejects authentication through a disabled method.
// Historical credentials of a disabled kind remain stored but unusable.
var ErrLoginMethodDisabled = shared.NewDomainError("LOGIN_METHOD_DISABLED", "This login method is disabled for the app")

// ConfigRecord is the persistent wrapper around the config document,
// carrying its own version for optimistic concurrency on writes.
type ConfigRecord struct {
	shared.AppScopedAggregateRoot
	Config Config
}

// NewConfigRecord creates the all-defaults config record for a new app
func NewConfigRecord(appID uuid.UUID) *ConfigRecord {
	return &ConfigRecord{
		AppScopedAggregateRoot: shared.NewAppScopedAggregateRoot(appID),
		Config:                 DefaultConfig(),
	}
}

// Apply merges a patch into the stored document and bumps the record
// version. Invalid patches leave the record untouched.
func (r *ConfigRecord) Apply(patch Config) error {
	if err := r.Config.Merge(patch); err != nil {
		return err
	}

	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewAppConfigUpdatedEvent(r.AppID))

	return nil
}

func boolOrFalse(v *bool) bool {
	return v != nil && *v
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func clampStrength(s int) int {
	if s < MinPasswordStrengthFloor {
		return MinPasswordStrengthFloor
	}
	if s > MinPasswordStrengthCeil {
		return MinPasswordStrengthCeil
	}
	return s
}
