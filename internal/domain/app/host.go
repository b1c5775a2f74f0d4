package app

import (
	"strings"

	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrDuplicateHost rejects adding a hostname the app already whitelists
var ErrDuplicateHost = shared.NewDomainError("DUPLICATE_HOST", "Hostname is already registered for this app")

// Host is a hostname permitted to initiate authentication flows for an app.
// An app with zero hosts is valid; it simply accepts no authenticated traffic.
type Host struct {
	shared.BaseEntity
	AppID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Hostname string    `gorm:"type:varchar(253);not null"`
}

// TableName returns the table name for GORM
func (Host) TableName() string {
	return "app_hosts"
}

// NewHost creates a new host entry. Hostnames are stored lowercased so
// uniqueness per app is case-insensitive.
func NewHost(appID uuid.UUID, hostname string) (*Host, error) {
	normalized, err := NormalizeHostname(hostname)
	if err != nil {
		return nil, err
	}

	return &Host{
		BaseEntity: shared.NewBaseEntity(),
		AppID:      appID,
		Hostname:   normalized,
	}, nil
}

// NormalizeHostname lowercases and validates a hostname
func NormalizeHostname(hostname string) (string, error) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return "", shared.NewDomainError("INVALID_HOSTNAME", "Hostname cannot be empty")
	}
	if len(hostname) > 253 {
		return "", shared.NewDomainError("INVALID_HOSTNAME", "Hostname cannot exceed 253 characters")
	}
	for _, r := range hostname {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == ':') {
			return "", shared.NewDomainError("INVALID_HOSTNAME", "Hostname contains invalid characters")
		}
	}
	return hostname, nil
}
