package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenPurpose names what a signed token authorizes
type TokenPurpose string

const (
	PurposeSession           TokenPurpose = "session"
	PurposeEmailVerification TokenPurpose = "email_verification"
	PurposePasswordReset     TokenPurpose = "password_reset"
)

// TokenClaims is the validated content of an app-scoped token
type TokenClaims struct {
	AppID   uuid.UUID
	UserID  uuid.UUID
	Purpose TokenPurpose
}

// TokenIssuer signs and validates tokens with an app's own secret, so
// rotating the secret invalidates every outstanding token for that app.
type TokenIssuer interface {
	Issue(secret string, appID, userID uuid.UUID, purpose TokenPurpose) (token string, expiresAt time.Time, err error)
	Validate(ctx context.Context, secret, token string, purpose TokenPurpose) (*TokenClaims, error)
	Revoke(ctx context.Context, token string) error
}

// MailKind selects the email template
type MailKind string

const (
	MailKindVerification  MailKind = "verification"
	MailKindPasswordReset MailKind = "password_reset"
)

// MailRequest describes one email to deliver
type MailRequest struct {
	Kind      MailKind
	AppID     uuid.UUID
	To        string
	TargetURI string
	Token     string
}

// Mailer queues emails for asynchronous delivery
type Mailer interface {
	Enqueue(ctx context.Context, req MailRequest) error
}
