package account

import (
	"regexp"
	"strings"
	"time"

	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Credential-set errors
var (
	ErrDuplicateCredential = shared.NewDomainError("DUPLICATE_CREDENTIAL", "User already holds a credential of this kind")
	ErrLastCredential      = shared.NewDomainError("INVARIANT_VIOLATION", "Cannot remove a user's last credential")
)

// User is an end-user account owned by an App. The owning app id is
// immutable after creation. A user must hold at least one credential at all
// times, except transiently while the user is being created or deleted.
type User struct {
	shared.AppScopedAggregateRoot
	Email         string `gorm:"type:varchar(200);not null"`
	VerifiedEmail bool   `gorm:"not null;default:false"`
	FirstName     string `gorm:"type:varchar(100)"`
	LastName      string `gorm:"type:varchar(100)"`
	Credentials   []Credential
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "app_users"
}

// NewUser creates a new app user. The user has no credentials yet; the
// caller must attach one before the enclosing transaction commits.
func NewUser(appID uuid.UUID, email string) (*User, error) {
	if appID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_APP_ID", "App id cannot be empty")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user := &User{
		AppScopedAggregateRoot: shared.NewAppScopedAggregateRoot(appID),
		Email:                  email,
		Credentials:            make([]Credential, 0, 1),
	}

	user.AddDomainEvent(NewUserCreatedEvent(user))

	return user, nil
}

// SetProfile sets the optional profile names
func (u *User) SetProfile(firstName, lastName string) error {
	if len(firstName) > 100 || len(lastName) > 100 {
		return shared.NewDomainError("INVALID_PROFILE", "Profile name cannot exceed 100 characters")
	}

	u.FirstName = strings.TrimSpace(firstName)
	u.LastName = strings.TrimSpace(lastName)
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// MarkEmailVerified records that the user's email address was verified
func (u *User) MarkEmailVerified() {
	if u.VerifiedEmail {
		return
	}
	u.VerifiedEmail = true
	for i := range u.Credentials {
		if u.Credentials[i].Kind == CredentialKindPassword {
			u.Credentials[i].EmailVerified = true
		}
	}
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	u.AddDomainEvent(NewUserEmailVerifiedEvent(u))
}

// AddCredential attaches a credential to the user, enforcing per-kind
// uniqueness: at most one password, at most one TOTP, and at most one OAuth
// credential per provider.
func (u *User) AddCredential(c Credential) error {
	if c.UserID != u.ID {
		return shared.NewDomainError("INVALID_CREDENTIAL", "Credential does not belong to this user")
	}

	for i := range u.Credentials {
		existing := &u.Credentials[i]
		switch c.Kind {
		case CredentialKindPassword, CredentialKindTotp:
			if existing.Kind == c.Kind {
				return ErrDuplicateCredential
			}
		case CredentialKindOauth:
			if existing.Kind == CredentialKindOauth && existing.Provider == c.Provider {
				return ErrDuplicateCredential
			}
		}
	}

	u.Credentials = append(u.Credentials, c)
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	u.AddDomainEvent(NewCredentialAddedEvent(u, &c))

	return nil
}

// RemoveCredential detaches a credential. Removing the last one violates the
// non-empty credential invariant; user deletion bypasses this method and
// removes the whole set in one transaction.
func (u *User) RemoveCredential(credentialID uuid.UUID) (*Credential, error) {
	idx := -1
	for i := range u.Credentials {
		if u.Credentials[i].ID == credentialID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, shared.ErrNotFound
	}
	if len(u.Credentials) == 1 {
		return nil, ErrLastCredential
	}

	removed := u.Credentials[idx]
	u.Credentials = append(u.Credentials[:idx], u.Credentials[idx+1:]...)
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	u.AddDomainEvent(NewCredentialRemovedEvent(u, &removed))

	return &removed, nil
}

// PasswordCredential returns the user's password credential, if any
func (u *User) PasswordCredential() *Credential {
	for i := range u.Credentials {
		if u.Credentials[i].Kind == CredentialKindPassword {
			return &u.Credentials[i]
		}
	}
	return nil
}

// OauthCredential returns the user's credential for the given provider, if any
func (u *User) OauthCredential(provider string) *Credential {
	provider = strings.ToLower(provider)
	for i := range u.Credentials {
		if u.Credentials[i].Kind == CredentialKindOauth && u.Credentials[i].Provider == provider {
			return &u.Credentials[i]
		}
	}
	return nil
}

// TotpCredential returns the user's TOTP credential, if any
func (u *User) TotpCredential() *Credential {
	for i := range u.Credentials {
		if u.Credentials[i].Kind == CredentialKindTotp {
			return &u.Credentials[i]
		}
	}
	return nil
}

// HasEnrolledTotp reports whether MFA enforcement can be satisfied
func (u *User) HasEnrolledTotp() bool {
	c := u.TotpCredential()
	return c != nil && c.Enrolled
}

// DisplayName returns the profile name or the email local part
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
