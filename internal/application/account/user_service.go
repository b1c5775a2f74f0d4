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

// UserService handles app user lifecycle and credential management
type UserService struct {
	uow            shared.UnitOfWork
	userRepo       account.UserRepository
	credRepo       account.CredentialRepository
	appRepo        app.Repository
	configRepo     app.ConfigRepository
	tokens         TokenIssuer
	mailer         Mailer
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	uow shared.UnitOfWork,
	userRepo account.UserRepository,
	credRepo account.CredentialRepository,
	appRepo app.Repository,
	configRepo app.ConfigRepository,
	tokens TokenIssuer,
	mailer Mailer,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		uow:            uow,
		userRepo:       userRepo,
		credRepo:       credRepo,
		appRepo:        appRepo,
		configRepo:     configRepo,
		tokens:         tokens,
		mailer:         mailer,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// AddUserInput contains input for registering an app user with a password
type AddUserInput struct {
	AppID     uuid.UUID
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AddOauthUserInput contains input for registering an app user through an
// OAuth provider
type AddOauthUserInput struct {
	AppID      uuid.UUID
	Email      string
	Provider   string
	ExternalID string
	FirstName  string
	LastName   string
}

// CredentialDTO represents credential data transfer object
type CredentialDTO struct {
	ID            uuid.UUID              `json:"id"`
	Kind          account.CredentialKind `json:"kind"`
	Email         string                 `json:"email,omitempty"`
	EmailVerified bool                   `json:"email_verified,omitempty"`
	Provider      string                 `json:"provider,omitempty"`
	Enrolled      bool                   `json:"enrolled,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// UserDTO represents app user data transfer object
type UserDTO struct {
	ID            uuid.UUID       `json:"id"`
	AppID         uuid.UUID       `json:"app_id"`
	Email         string          `json:"email"`
	VerifiedEmail bool            `json:"verified_email"`
	FirstName     string          `json:"first_name,omitempty"`
	LastName      string          `json:"last_name,omitempty"`
	Credentials   []CredentialDTO `json:"credentials"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AddUser registers an app user with a password credential. The password
// must meet the app's configured minimum strength. When email verification
// is enabled for the app, a verification email is queued.
func (s *UserService) AddUser(ctx context.Context, input AddUserInput) (*UserDTO, error) {
	resolved, err := s.resolvedConfig(ctx, input.AppID)
	if err != nil {
		return nil, err
	}

	if err := account.CheckPasswordStrength(input.Password, resolved.MinPasswordStrength); err != nil {
		return nil, err
	}

	user, err := account.NewUser(input.AppID, input.Email)
	if err != nil {
		return nil, err
	}
	if input.FirstName != "" || input.LastName != "" {
		if err := user.SetProfile(input.FirstName, input.LastName); err != nil {
			return nil, err
		}
	}

	cred, err := account.NewPasswordCredential(user.ID, input.AppID, user.Email, input.Password)
	if err != nil {
		return nil, err
	}
	if err := user.AddCredential(*cred); err != nil {
		return nil, err
	}

	if err := s.uow.Execute(ctx, func(ctx context.Context) error {
		return s.userRepo.Create(ctx, user)
	}); err != nil {
		s.logger.Error("Failed to create app user", zap.Error(err))
		return nil, err
	}

	if resolved.VerifyEmail {
		if err := s.sendVerification(ctx, user, resolved); err != nil {
			s.logger.Warn("Failed to queue verification email",
				zap.String("user_id", user.ID.String()),
				zap.Error(err))
		}
	}

	s.publishEvents(ctx, user.GetDomainEvents())
	user.ClearDomainEvents()

	return toUserDTO(user), nil
}

// AddOauthUser registers an app user whose identity comes from an OAuth
// provider. The provider must be enabled and fully configured for the app.
func (s *UserService) AddOauthUser(ctx context.Context, input AddOauthUserInput) (*UserDTO, error) {
	resolved, err := s.resolvedConfig(ctx, input.AppID)
	if err != nil {
		return nil, err
	}
	if _, err := resolved.ProviderForLogin(input.Provider); err != nil {
		return nil, err
	}

	user, err := account.NewUser(input.AppID, input.Email)
	if err != nil {
		return nil, err
	}
	if input.FirstName != "" || input.LastName != "" {
		if err := user.SetProfile(input.FirstName, input.LastName); err != nil {
			return nil, err
		}
	}

	cred, err := account.NewOauthCredential(user.ID, input.AppID, input.Provider, input.ExternalID, input.Email)
	if err != nil {
		return nil, err
	}
	if err := user.AddCredential(*cred); err != nil {
		return nil, err
	}

	if err := s.uow.Execute(ctx, func(ctx context.Context) error {
		return s.userRepo.Create(ctx, user)
	}); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, user.GetDomainEvents())
	user.ClearDomainEvents()

	return toUserDTO(user), nil
}

// Get retrieves a user with its credentials
func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserDTO(user), nil
}

// Delete removes a user together with all of its credentials. This is the
// only path that may empty a user's credential set; the user row goes with
// it in the same transaction.
func (s *UserService) Delete(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.uow.Execute(ctx, func(ctx context.Context) error {
		return s.userRepo.Delete(ctx, userID)
	}); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, account.NewUserDeletedEvent(user)); err != nil {
			s.logger.Warn("Failed to publish user deleted event", zap.Error(err))
		}
	}

	s.logger.Info("Deleted app user",
		zap.String("app_id", user.AppID.String()),
		zap.String("user_id", userID.String()))
	return nil
}

// AddPasswordCredential attaches a password to an existing user, subject to
// the app's minimum strength and the one-password-per-user rule.
func (s *UserService) AddPasswordCredential(ctx context.Context, userID uuid.UUID, password string) (*CredentialDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolvedConfig(ctx, user.AppID)
	if err != nil {
		return nil, err
	}
	if err := account.CheckPasswordStrength(password, resolved.MinPasswordStrength); err != nil {
		return nil, err
	}

	cred, err := account.NewPasswordCredential(user.ID, user.AppID, user.Email, password)
	if err != nil {
		return nil, err
	}
	if user.VerifiedEmail {
		cred.EmailVerified = true
	}

	return s.attachCredential(ctx, user, cred)
}

// AddOauthCredential links an OAuth provider account to an existing user
func (s *UserService) AddOauthCredential(ctx context.Context, userID uuid.UUID, provider, externalID, providerEmail string) (*CredentialDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolvedConfig(ctx, user.AppID)
	if err != nil {
		return nil, err
	}
	if _, err := resolved.ProviderForLogin(provider); err != nil {
		return nil, err
	}

	cred, err := account.NewOauthCredential(user.ID, user.AppID, provider, externalID, providerEmail)
	if err != nil {
		return nil, err
	}

	return s.attachCredential(ctx, user, cred)
}

// EnrollTotp attaches a TOTP credential in the unenrolled state. The
// credential only satisfies MFA once enrollment is confirmed.
func (s *UserService) EnrollTotp(ctx context.Context, userID uuid.UUID, secretRef string) (*CredentialDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	cred, err := account.NewTotpCredential(user.ID, user.AppID, secretRef)
	if err != nil {
		return nil, err
	}

	return s.attachCredential(ctx, user, cred)
}

// ConfirmTotpEnrollment marks the user's TOTP credential as enrolled after
// the first successful code exchange.
func (s *UserService) ConfirmTotpEnrollment(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	cred := user.TotpCredential()
	if cred == nil {
		return shared.ErrNotFound
	}
	if err := cred.CompleteEnrollment(); err != nil {
		return err
	}

	return s.credRepo.Update(ctx, cred)
}

// RemoveCredential detaches a credential from a user. A user's last
// credential cannot be removed; delete the user instead.
func (s *UserService) RemoveCredential(ctx context.Context, userID, credentialID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	removed, err := user.RemoveCredential(credentialID)
	if err != nil {
		return err
	}

	if err := s.uow.Execute(ctx, func(ctx context.Context) error {
		if err := s.credRepo.Delete(ctx, removed.ID); err != nil {
			return err
		}
		return s.userRepo.Update(ctx, user)
	}); err != nil {
		return err
	}

	s.publishEvents(ctx, user.GetDomainEvents())
	user.ClearDomainEvents()
	return nil
}

// VerifyEmail consumes a verification token and marks the user's email as
// verified. The token is validated against the owning app's current secret.
func (s *UserService) VerifyEmail(ctx context.Context, appID uuid.UUID, token string) (*UserDTO, error) {
	a, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}

	claims, err := s.tokens.Validate(ctx, a.Secret, token, PurposeEmailVerification)
	if err != nil {
		return nil, err
	}
	if claims.AppID != appID {
		return nil, shared.ErrInvalidInput
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user.AppID != appID {
		return nil, shared.ErrNotFound
	}

	user.MarkEmailVerified()

	if err := s.uow.Execute(ctx, func(ctx context.Context) error {
		if pc := user.PasswordCredential(); pc != nil {
			if err := s.credRepo.Update(ctx, pc); err != nil {
				return err
			}
		}
		return s.userRepo.Update(ctx, user)
	}); err != nil {
		return nil, err
	}

	if err := s.tokens.Revoke(ctx, token); err != nil {
		s.logger.Warn("Failed to revoke verification token", zap.Error(err))
	}

	s.publishEvents(ctx, user.GetDomainEvents())
	user.ClearDomainEvents()

	return toUserDTO(user), nil
}

func (s *UserService) attachCredential(ctx context.Context, user *account.User, cred *account.Credential) (*CredentialDTO, error) {
	if err := user.AddCredential(*cred); err != nil {
		return nil, err
	}

	if err := s.uow.Execute(ctx, func(ctx context.Context) error {
		if err := s.credRepo.Create(ctx, cred); err != nil {
			return err
		}
		return s.userRepo.Update(ctx, user)
	}); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, user.GetDomainEvents())
	user.ClearDomainEvents()

	dto := toCredentialDTO(cred)
	return &dto, nil
}

func (s *UserService) sendVerification(ctx context.Context, user *account.User, resolved app.Resolved) error {
	a, err := s.appRepo.FindByID(ctx, user.AppID)
	if err != nil {
		return err
	}

	token, _, err := s.tokens.Issue(a.Secret, user.AppID, user.ID, PurposeEmailVerification)
	if err != nil {
		return err
	}

	return s.mailer.Enqueue(ctx, MailRequest{
		Kind:      MailKindVerification,
		AppID:     user.AppID,
		To:        user.Email,
		TargetURI: resolved.VerificationTargetURI,
		Token:     token,
	})
}

func (s *UserService) resolvedConfig(ctx context.Context, appID uuid.UUID) (app.Resolved, error) {
	record, err := s.configRepo.FindByAppID(ctx, appID)
	if err != nil {
		return app.Resolved{}, err
	}
	return record.Config.Resolve(), nil
}

func (s *UserService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range events {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
}

func toUserDTO(u *account.User) *UserDTO {
	creds := make([]CredentialDTO, 0, len(u.Credentials))
	for i := range u.Credentials {
		creds = append(creds, toCredentialDTO(&u.Credentials[i]))
	}
	return &UserDTO{
		ID:            u.ID,
		AppID:         u.AppID,
		Email:         u.Email,
		VerifiedEmail: u.VerifiedEmail,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Credentials:   creds,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func toCredentialDTO(c *account.Credential) CredentialDTO {
	return CredentialDTO{
		ID:            c.ID,
		Kind:          c.Kind,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		Provider:      c.Provider,
		Enrolled:      c.Enrolled,
		CreatedAt:     c.CreatedAt,
	}
}
