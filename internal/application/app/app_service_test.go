package app

import (
	"context"
	"sync"
	"testing"

	"github.com/authbase/backend/internal/domain/account"
	"github.com/authbase/backend/internal/domain/app"
	"github.com/authbase/backend/internal/domain/entitlement"
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

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

// fakeUnitOfWork executes the function directly without a transaction
type fakeUnitOfWork struct{}

func (fakeUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
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

// MockEntitlementRepository is a mock implementation of entitlement.Repository
type MockEntitlementRepository struct {
	mock.Mock
}

func (m *MockEntitlementRepository) Create(ctx context.Context, ent *entitlement.Entitlement) error {
	args := m.Called(ctx, ent)
	return args.Error(0)
}

func (m *MockEntitlementRepository) Update(ctx context.Context, ent *entitlement.Entitlement) error {
	args := m.Called(ctx, ent)
	return args.Error(0)
}

func (m *MockEntitlementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEntitlementRepository) DeleteByAppID(ctx context.Context, appID uuid.UUID) error {
	args := m.Called(ctx, appID)
	return args.Error(0)
}

func (m *MockEntitlementRepository) FindByAppID(ctx context.Context, appID uuid.UUID) (*entitlement.Entitlement, error) {
	args := m.Called(ctx, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.Entitlement), args.Error(1)
}

func (m *MockEntitlementRepository) FindByCustomerRef(ctx context.Context, customerRef string) (*entitlement.Entitlement, error) {
	args := m.Called(ctx, customerRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.Entitlement), args.Error(1)
}

// MockJobRepository is a mock implementation of entitlement.JobRepository
type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Create(ctx context.Context, job *entitlement.ReconcileJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepository) Update(ctx context.Context, job *entitlement.ReconcileJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepository) FindDue(ctx context.Context, limit int) ([]*entitlement.ReconcileJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entitlement.ReconcileJob), args.Error(1)
}

func (m *MockJobRepository) FindByAppID(ctx context.Context, appID uuid.UUID) ([]*entitlement.ReconcileJob, error) {
	args := m.Called(ctx, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entitlement.ReconcileJob), args.Error(1)
}

type serviceMocks struct {
	appRepo  *MockAppRepository
	cfgRepo  *MockConfigRepository
	hostRepo *MockHostRepository
	userRepo *MockUserRepository
	entRepo  *MockEntitlementRepository
	jobRepo  *MockJobRepository
	events   *MockEventPublisher
}

func newService(t *testing.T) (*AppService, *serviceMocks) {
	t.Helper()
	m := &serviceMocks{
		appRepo:  new(MockAppRepository),
		cfgRepo:  new(MockConfigRepository),
		hostRepo: new(MockHostRepository),
		userRepo: new(MockUserRepository),
		entRepo:  new(MockEntitlementRepository),
		jobRepo:  new(MockJobRepository),
		events:   NewMockEventPublisher(),
	}
	svc := NewAppService(fakeUnitOfWork{}, m.appRepo, m.cfgRepo, m.hostRepo, m.userRepo, m.entRepo, m.jobRepo, m.events, zap.NewNop())
	return svc, m
}

func TestAppService_Create(t *testing.T) {
	t.Run("provisions app with config and hosts", func(t *testing.T) {
		svc, m := newService(t)
		m.appRepo.On("Create", mock.Anything, mock.AnythingOfType("*app.App")).Return(nil)
		m.cfgRepo.On("Create", mock.Anything, mock.AnythingOfType("*app.ConfigRecord")).Return(nil)
		m.hostRepo.On("ExistsByHostname", mock.Anything, mock.Anything, "app.example.com").Return(false, nil)
		m.hostRepo.On("Create", mock.Anything, mock.AnythingOfType("*app.Host")).Return(nil)

		dto, err := svc.Create(context.Background(), CreateAppInput{
			OwnerUserID: uuid.New(),
			Name:        "My Service",
			Hostnames:   []string{"App.Example.COM"},
		})

		require.NoError(t, err)
		assert.Equal(t, "My Service", dto.Name)
		assert.Equal(t, []string{"app.example.com"}, dto.Hostnames)
		assert.Equal(t, entitlement.LabelFree, dto.PlanLabel)
		assert.NotEmpty(t, dto.Secret)
		assert.Len(t, m.events.GetEventsByType(app.EventTypeAppCreated), 1)
		m.appRepo.AssertExpectations(t)
		m.cfgRepo.AssertExpectations(t)
		m.hostRepo.AssertExpectations(t)
	})

	t.Run("rejects duplicate hostname", func(t *testing.T) {
		svc, m := newService(t)
		m.appRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.cfgRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.hostRepo.On("ExistsByHostname", mock.Anything, mock.Anything, "app.example.com").Return(true, nil)

		_, err := svc.Create(context.Background(), CreateAppInput{
			OwnerUserID: uuid.New(),
			Name:        "My Service",
			Hostnames:   []string{"app.example.com"},
		})

		assert.ErrorIs(t, err, app.ErrDuplicateHost)
	})

	t.Run("rejects invalid hostname before touching storage", func(t *testing.T) {
		svc, m := newService(t)

		_, err := svc.Create(context.Background(), CreateAppInput{
			OwnerUserID: uuid.New(),
			Name:        "My Service",
			Hostnames:   []string{"bad host"},
		})

		assert.Error(t, err)
		m.appRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAppService_Get(t *testing.T) {
	t.Run("assembles composite view", func(t *testing.T) {
		svc, m := newService(t)
		a, err := app.NewApp(uuid.New(), "My Service")
		require.NoError(t, err)
		h, err := app.NewHost(a.ID, "app.example.com")
		require.NoError(t, err)
		ent, err := entitlement.NewEntitlement(a.ID, "cus_1")
		require.NoError(t, err)
		require.NoError(t, ent.RecordConsent("seti_1"))
		require.NoError(t, ent.Subscribe("sub_1", entitlement.TierPro))

		m.appRepo.On("FindByID", mock.Anything, a.ID).Return(a, nil)
		m.hostRepo.On("FindByAppID", mock.Anything, a.ID).Return([]*app.Host{h}, nil)
		m.userRepo.On("CountByAppID", mock.Anything, a.ID).Return(int64(42), nil)
		m.entRepo.On("FindByAppID", mock.Anything, a.ID).Return(ent, nil)

		dto, err := svc.Get(context.Background(), a.ID)

		require.NoError(t, err)
		assert.Equal(t, int64(42), dto.UserCount)
		assert.Equal(t, entitlement.LabelPro, dto.PlanLabel)
		assert.Equal(t, []string{"app.example.com"}, dto.Hostnames)
	})

	t.Run("missing entitlement defaults to free plan", func(t *testing.T) {
		svc, m := newService(t)
		a, err := app.NewApp(uuid.New(), "My Service")
		require.NoError(t, err)

		m.appRepo.On("FindByID", mock.Anything, a.ID).Return(a, nil)
		m.hostRepo.On("FindByAppID", mock.Anything, a.ID).Return([]*app.Host{}, nil)
		m.userRepo.On("CountByAppID", mock.Anything, a.ID).Return(int64(0), nil)
		m.entRepo.On("FindByAppID", mock.Anything, a.ID).Return(nil, shared.ErrNotFound)

		dto, err := svc.Get(context.Background(), a.ID)

		require.NoError(t, err)
		assert.Equal(t, entitlement.LabelFree, dto.PlanLabel)
	})

	t.Run("unknown app", func(t *testing.T) {
		svc, m := newService(t)
		id := uuid.New()
		m.appRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := svc.Get(context.Background(), id)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestAppService_RotateSecret(t *testing.T) {
	svc, m := newService(t)
	a, err := app.NewApp(uuid.New(), "My Service")
	require.NoError(t, err)
	old := a.Secret

	m.appRepo.On("FindByID", mock.Anything, a.ID).Return(a, nil)
	m.appRepo.On("Update", mock.Anything, a).Return(nil)

	secret, err := svc.RotateSecret(context.Background(), a.ID)

	require.NoError(t, err)
	assert.NotEqual(t, old, secret)
	assert.Len(t, m.events.GetEventsByType(app.EventTypeAppSecretRotated), 1)
}

func TestAppService_SetConfig(t *testing.T) {
	verify := true

	t.Run("merges patch at expected version", func(t *testing.T) {
		svc, m := newService(t)
		rec := app.NewConfigRecord(uuid.New())
		m.cfgRepo.On("FindByAppID", mock.Anything, rec.AppID).Return(rec, nil)
		m.cfgRepo.On("Update", mock.Anything, rec).Return(nil)

		dto, err := svc.SetConfig(context.Background(), SetConfigInput{
			AppID:           rec.AppID,
			ExpectedVersion: 1,
			Patch:           app.Config{VerifyEmail: &verify},
		})

		require.NoError(t, err)
		assert.Equal(t, 2, dto.Version)
		assert.True(t, dto.Resolved.VerifyEmail)
	})

	t.Run("stale expected version conflicts", func(t *testing.T) {
		svc, m := newService(t)
		rec := app.NewConfigRecord(uuid.New())
		m.cfgRepo.On("FindByAppID", mock.Anything, rec.AppID).Return(rec, nil)

		_, err := svc.SetConfig(context.Background(), SetConfigInput{
			AppID:           rec.AppID,
			ExpectedVersion: 5,
			Patch:           app.Config{VerifyEmail: &verify},
		})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		m.cfgRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestAppService_Hosts(t *testing.T) {
	t.Run("add host rejects duplicates", func(t *testing.T) {
		svc, m := newService(t)
		a, err := app.NewApp(uuid.New(), "My Service")
		require.NoError(t, err)
		m.appRepo.On("FindByID", mock.Anything, a.ID).Return(a, nil)
		m.hostRepo.On("ExistsByHostname", mock.Anything, a.ID, "app.example.com").Return(true, nil)

		_, err = svc.AddHost(context.Background(), a.ID, "App.Example.com")

		assert.ErrorIs(t, err, app.ErrDuplicateHost)
	})

	t.Run("remove host scoped to owning app", func(t *testing.T) {
		svc, m := newService(t)
		h, err := app.NewHost(uuid.New(), "app.example.com")
		require.NoError(t, err)
		m.hostRepo.On("FindByID", mock.Anything, h.ID).Return(h, nil)

		err = svc.RemoveHost(context.Background(), uuid.New(), h.ID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		m.hostRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestAppService_Delete(t *testing.T) {
	t.Run("cascades and enqueues billing cleanup", func(t *testing.T) {
		svc, m := newService(t)
		a, err := app.NewApp(uuid.New(), "My Service")
		require.NoError(t, err)
		ent, err := entitlement.NewEntitlement(a.ID, "cus_1")
		require.NoError(t, err)
		require.NoError(t, ent.RecordConsent("seti_1"))
		require.NoError(t, ent.Subscribe("sub_1", entitlement.TierPro))

		m.appRepo.On("FindByID", mock.Anything, a.ID).Return(a, nil)
		m.entRepo.On("FindByAppID", mock.Anything, a.ID).Return(ent, nil)
		m.userRepo.On("DeleteByAppID", mock.Anything, a.ID).Return(nil)
		m.hostRepo.On("DeleteByAppID", mock.Anything, a.ID).Return(nil)
		m.cfgRepo.On("DeleteByAppID", mock.Anything, a.ID).Return(nil)
		m.entRepo.On("DeleteByAppID", mock.Anything, a.ID).Return(nil)
		m.jobRepo.On("Create", mock.Anything, mock.MatchedBy(func(j *entitlement.ReconcileJob) bool {
			return j.AppID == a.ID && j.CustomerRef == "cus_1" && j.SubscriptionRef == "sub_1"
		})).Return(nil)
		m.appRepo.On("Delete", mock.Anything, a.ID).Return(nil)

		err = svc.Delete(context.Background(), a.ID)

		require.NoError(t, err)
		assert.Len(t, m.events.GetEventsByType(app.EventTypeAppDeleted), 1)
		m.jobRepo.AssertExpectations(t)
	})

	t.Run("no billing job without an entitlement", func(t *testing.T) {
		svc, m := newService(t)
		a, err := app.NewApp(uuid.New(), "My Service")
		require.NoError(t, err)

		m.appRepo.On("FindByID", mock.Anything, a.ID).Return(a, nil)
		m.entRepo.On("FindByAppID", mock.Anything, a.ID).Return(nil, shared.ErrNotFound)
		m.userRepo.On("DeleteByAppID", mock.Anything, a.ID).Return(nil)
		m.hostRepo.On("DeleteByAppID", mock.Anything, a.ID).Return(nil)
		m.cfgRepo.On("DeleteByAppID", mock.Anything, a.ID).Return(nil)
		m.appRepo.On("Delete", mock.Anything, a.ID).Return(nil)

		err = svc.Delete(context.Background(), a.ID)

		require.NoError(t, err)
		m.jobRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.entRepo.AssertNotCalled(t, "DeleteByAppID", mock.Anything, mock.Anything)
	})
}
