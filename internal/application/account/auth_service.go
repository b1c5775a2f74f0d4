package account

import (
	"context"
	"time"

	"github.com/authbase/backend/internal/domain/account"
	"github.com/authbase/backend/internal/domain/app"
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Authentication errors
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Email or password is incorrect")
	ErrEmailNotVerified   = shared.NewDomainError("EMAIL_NOT_VERIFIED", "Email must be verified before signing in")
	ErrMFARequired        = shared.NewDomainError("MFA_REQUIRED", "A second factor is required to complete sign-in")
	ErrOriginNotAllowed   = shared.NewDomainError("ORIGIN_NOT_ALLOWED", "Request origin is not whitelisted for this app")
)

// AuthService authenticates app users and manages password recovery
type AuthService struct {
	userRepo       account.UserRepository
	credRepo       account.CredentialRepository
	appRepo        app.Repository
	configRepo     app.ConfigRepository
	hostRepo       app.HostRepository
	tokens         TokenIssuer
	mailer         Mailer
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo account.UserRepository,
	credRepo account.CredentialRepository,
	appRepo app.Repository,
	configRepo app.ConfigRepository,
	hostRepo app.HostRepository,
	tokens TokenIssuer,
	mailer Mailer,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		credRepo:       credRepo,
		appRepo:        appRepo,
		configRepo:     configRepo,
		hostRepo:       hostRepo,
		tokens:         tokens,
		mailer:         mailer,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// AuthenticateInput contains input for a password sign-in attempt
type AuthenticateInput struct {
	AppID    uuid.UUID
	Email    string
	Password string
	Origin   string
}

// OauthSignInInput contains input for an OAuth sign-in attempt
type OauthSignInInput struct {
	AppID      uuid.UUID
	Provider   string
	ExternalID string
	Origin     string
}

// AuthResult is the outcome of a successful first factor
type AuthResult struct {
	UserID      uuid.UUID `json:"user_id"`
	Token       string    `json:"token,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	MFARequired bool      `json:"mfa_required"`
}

// FindForAuth resolves the credential a password sign-in attempt should be
// checked against. At most one password credential may exist per email
// within an app; finding more is data corruption and is surfaced, never
// silently repaired.
func (s *AuthService) FindForAuth(ctx context.Context, appID uuid.UUID, email string) (*account.Credential, error) {
	creds, err := s.credRepo.FindPasswordByEmail(ctx, appID, email)
	if err != nil {
		return nil, err
	}
	if len(creds) > 1 {
		s.logger.Error("Multiple password credentials for one email",
			zap.String("app_id", appID.String()),
			zap.String("email", email),
			zap.Int("count", len(creds)))
		return nil, shared.ErrDataConflict
	}
	if len(creds) == 0 {
		return nil, shared.ErrNotFound
	}
	return creds[0], nil
}

// Authenticate performs a password sign-in. The attempt is checked against
// the app's resolved configuration at the moment of the attempt, so config
// changes apply to existing credentials immediately.
func (s *AuthService) Authenticate(ctx context.Context, input AuthenticateInput) (*AuthResult, error) {
	a, err := s.appRepo.FindByID(ctx, input.AppID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolvedConfig(ctx, input.AppID)
	if err != nil {
		return nil, err
	}

	if err := s.checkOrigin(ctx, input.AppID, input.Origin); err != nil {
		return nil, err
	}

	cred, err := s.FindForAuth(ctx, input.AppID, input.Email)
	if err != nil {
		if shared.IsDomainError(err, "NOT_FOUND") {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cred.UsableWith(resolved); err != nil {
		return nil, err
	}
	if !cred.VerifyPassword(input.Password) {
		return nil, ErrInvalidCredentials
	}
	if resolved.RequireVerification && !cred.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	user, err := s.userRepo.FindByID(ctx, cred.UserID)
	if err != nil {
		return nil, err
	}

	if resolved.RequireMFA {
		if !user.HasEnrolledTotp() {
			return nil, ErrMFARequired
		}
		return &AuthResult{UserID: user.ID, MFARequired: true}, nil
	}

	return s.issueSession(a, user)
}

// AuthenticateOauth performs an OAuth sign-in. The provider must be enabled
// and fully configured; exactly one credential may hold the provider
// account within the app.
func (s *AuthService) AuthenticateOauth(ctx context.Context, input OauthSignInInput) (*AuthResult, error) {
	a, err := s.appRepo.FindByID(ctx, input.AppID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolvedConfig(ctx, input.AppID)
	if err != nil {
		return nil, err
	}
	if _, err := resolved.ProviderForLogin(input.Provider); err != nil {
		return nil, err
	}

	if err := s.checkOrigin(ctx, input.AppID, input.Origin); err != nil {
		return nil, err
	}

	creds, err := s.credRepo.FindOauthByExternalID(ctx, input.AppID, input.Provider, input.ExternalID)
	if err != nil {
		return nil, err
	}
	if len(creds) > 1 {
		s.logger.Error("Multiple credentials for one provider account",
			zap.String("app_id", input.AppID.String()),
			zap.String("provider", input.Provider))
		return nil, shared.ErrDataConflict
	}
	if len(creds) == 0 {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByID(ctx, creds[0].UserID)
	if err != nil {
		return nil, err
	}

	if resolved.RequireMFA {
		if !user.HasEnrolledTotp() {
			return nil, ErrMFARequired
		}
		return &AuthResult{UserID: user.ID, MFARequired: true}, nil
	}

	return s.issueSession(a, user)
}

// CompleteMFA finishes a sign-in whose first factor succeeded. The caller
// verifies the TOTP code against the credential's secret out of band and
// reports the outcome here.
func (s *AuthService) CompleteMFA(ctx context.Context, appID, userID uuid.UUID, codeValid bool) (*AuthResult, error) {
	if !codeValid {
		return nil, ErrInvalidCredentials
	}

	a, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.AppID != appID {
		return nil, shared.ErrNotFound
	}
	if !user.HasEnrolledTotp() {
		return nil, ErrMFARequired
	}

	return s.issueSession(a, user)
}

// ValidateSession validates a session token against the app's current
// secret. Tokens signed before a secret rotation fail here.
func (s *AuthService) ValidateSession(ctx context.Context, appID uuid.UUID, token string) (*TokenClaims, error) {
	a, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	return s.tokens.Validate(ctx, a.Secret, token, PurposeSession)
}

// SignOut revokes a session token before its natural expiry
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// RequestPasswordReset queues a reset email for the password credential
// registered under the address. Unknown addresses are a silent no-op so the
// endpoint does not leak which emails exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, appID uuid.UUID, email string) error {
	cred, err := s.FindForAuth(ctx, appID, email)
	if err != nil {
		if shared.IsDomainError(err, "NOT_FOUND") {
			return nil
		}
		return err
	}

	a, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return err
	}
	resolved, err := s.resolvedConfig(ctx, appID)
	if err != nil {
		return err
	}

	token, _, err := s.tokens.Issue(a.Secret, appID, cred.UserID, PurposePasswordReset)
	if err != nil {
		return err
	}

	if err := s.mailer.Enqueue(ctx, MailRequest{
		Kind:      MailKindPasswordReset,
		AppID:     appID,
		To:        cred.Email,
		TargetURI: resolved.ResetPasswordURI,
		Token:     token,
	}); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		user, err := s.userRepo.FindByID(ctx, cred.UserID)
		if err == nil {
			if err := s.eventPublisher.Publish(ctx, account.NewPasswordResetRequestedEvent(user)); err != nil {
				s.logger.Warn("Failed to publish reset requested event", zap.Error(err))
			}
		}
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password behind the
// user's password credential. The new password must meet the app's current
// minimum strength.
func (s *AuthService) ResetPassword(ctx context.Context, appID uuid.UUID, token, newPassword string) error {
	a, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return err
	}

	claims, err := s.tokens.Validate(ctx, a.Secret, token, PurposePasswordReset)
	if err != nil {
		return err
	}
	if claims.AppID != appID {
		return shared.ErrInvalidInput
	}

	resolved, err := s.resolvedConfig(ctx, appID)
	if err != nil {
		return err
	}
	if err := account.CheckPasswordStrength(newPassword, resolved.MinPasswordStrength); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	cred := user.PasswordCredential()
	if cred == nil {
		return shared.ErrNotFound
	}

	if err := cred.SetPassword(newPassword); err != nil {
		return err
	}
	if err := s.credRepo.Update(ctx, cred); err != nil {
		return err
	}

	if err := s.tokens.Revoke(ctx, token); err != nil {
		s.logger.Warn("Failed to revoke reset token", zap.Error(err))
	}

	s.logger.Info("Password reset completed",
		zap.String("app_id", appID.String()),
		zap.String("user_id", user.ID.String()))
	return nil
}

func (s *AuthService) issueSession(a *app.App, user *account.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(a.Secret, a.ID, user.ID, PurposeSession)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// checkOrigin enforces the app's hostname whitelist when an origin is
// supplied. Server-to-server calls carry no origin and skip the check.
func (s *AuthService) checkOrigin(ctx context.Context, appID uuid.UUID, origin string) error {
	if origin == "" {
		return nil
	}
	hostname, err := app.NormalizeHostname(origin)
	if err != nil {
		return ErrOriginNotAllowed
	}
	ok, err := s.hostRepo.ExistsByHostname(ctx, appID, hostname)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOriginNotAllowed
	}
	return nil
}

func (s *AuthService) resolvedConfig(ctx context.Context, appID uuid.UUID) (app.Resolved, error) {
	record, err := s.configRepo.FindByAppID(ctx, appID)
	if err != nil {
		return app.Resolved{}, err
	}
	return record.Config.Resolve(), nil
}
