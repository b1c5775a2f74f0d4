package account

import (
	"context"
	"sync"
	"time"

	"github.com/authbase/backend/internal/domain/account"
	"github.com/authbase/backend/internal/domain/app"
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// fakeUnitOfWork executes the function directly without a transaction
type fakeUnitOfWork struct{}

func (fakeUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// recordingMailer captures queued mail requests
type recordingMailer struct {
	mu       sync.Mutex
	requests []MailRequest
}

func (m *recordingMailer) Enqueue(ctx context.Context, req MailRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return nil
}

func (m *recordingMailer) Requests() []MailRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MailRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// MockTokenIssuer is a mock implementation of TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(secret string, appID, userID uuid.UUID, purpose TokenPurpose) (string, time.Time, error) {
	args := m.Called(secret, appID, userID, purpose)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenIssuer) Validate(ctx context.Context, secret, token string, purpose TokenPurpose) (*TokenClaims, error) {
	args := m.Called(ctx, secret, token, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TokenClaims), args.Error(1)
}

func (m *MockTokenIssuer) Revoke(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of account.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *account.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *account.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteByAppID(ctx context.Context, appID uuid.UUID) error {
	args := m.Called(ctx, appID)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, appID uuid.UUID, email string) ([]*account.User, error) {
	args := m.Called(ctx, appID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.User), args.Error(1)
}

func (m *MockUserRepository) CountByAppID(ctx context.Context, appID uuid.UUID) (int64, error) {
	args := m.Called(ctx, appID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, appID uuid.UUID, filter account.Filter, after *account.Cursor, limit int) ([]*account.User, error) {
	args := m.Called(ctx, appID, filter, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.User), args.Error(1)
}

// MockCredentialRepository is a mock implementation of account.CredentialRepository
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) Create(ctx context.Context, credential *account.Credential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *MockCredentialRepository) Update(ctx context.Context, credential *account.Credential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *MockCredentialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCredentialRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Credential, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Credential), args.Error(1)
}

func (m *MockCredentialRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*account.Credential, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Credential), args.Error(1)
}

func (m *MockCredentialRepository) FindPasswordByEmail(ctx context.Context, appID uuid.UUID, email string) ([]*account.Credential, error) {
	args := m.Called(ctx, appID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Credential), args.Error(1)
}

func (m *MockCredentialRepository) FindOauthByExternalID(ctx context.Context, appID uuid.UUID, provider, externalID string) ([]*account.Credential, error) {
	args := m.Called(ctx, appID, provider, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Credential), args.Error(1)
}

// MockAppRepository is a mock implementation of app.Repository
type MockAppRepository struct {
	mock.Mock
}

func (m *MockAppRepository) Create(ctx context.Context, a *app.App) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAppRepository) Update(ctx context.Context, a *app.App) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAppRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAppRepository) FindByID(ctx context.Context, id uuid.UUID) (*app.App, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*app.App), args.Error(1)
}

func (m *MockAppRepository) FindByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]*app.App, error) {
	args := m.Called(ctx, ownerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*app.App), args.Error(1)
}

// MockConfigRepository is a mock implementation of app.ConfigRepository
type MockConfigRepository struct {
	mock.Mock
}

func (m *MockConfigRepository) Create(ctx context.Context, rec *app.ConfigRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockConfigRepository) Update(ctx context.Context, rec *app.ConfigRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockConfigRepository) FindByAppID(ctx context.Context, appID uuid.UUID) (*app.ConfigRecord, error) {
	args := m.Called(ctx, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*app.ConfigRecord), args.Error(1)
}

func (m *MockConfigRepository) DeleteByAppID(ctx context.Context, appID uuid.UUID) error {
	args := m.Called(ctx, appID)
	return args.Error(0)
}

// MockHostRepository is a mock implementation of app.HostRepository
type MockHostRepository struct {
	mock.Mock
}

func (m *MockHostRepository) Create(ctx context.Context, h *app.Host) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *MockHostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockHostRepository) DeleteByAppID(ctx context.Context, appID uuid.UUID) error {
	args := m.Called(ctx, appID)
	return args.Error(0)
}

func (m *MockHostRepository) FindByID(ctx context.Context, id uuid.UUID) (*app.Host, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*app.Host), args.Error(1)
}

func (m *MockHostRepository) FindByAppID(ctx context.Context, appID uuid.UUID) ([]*app.Host, error) {
	args := m.Called(ctx, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*app.Host), args.Error(1)
}

func (m *MockHostRepository) ExistsByHostname(ctx context.Context, appID uuid.UUID, hostname string) (bool, error) {
	args := m.Called(ctx, appID, hostname)
	return args.Bool(0), args.Error(1)
}

// configRecordWith builds a stored config record from a patch
func configRecordWith(appID uuid.UUID, patch app.Config) *app.ConfigRecord {
	rec := app.NewConfigRecord(appID)
	if err := rec.Apply(patch); err != nil {
		panic(err)
	}
	rec.ClearDomainEvents()
	return rec
}
