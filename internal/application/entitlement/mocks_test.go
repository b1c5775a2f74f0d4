package entitlement

import (
	"context"
	"sync"

	"github.com/authbase/backend/internal/domain/app"
	"github.com/authbase/backend/internal/domain/entitlement"
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher collects published events for assertions
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
	var out []shared.DomainEvent
	for _, e := range m.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

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

type MockBillingGateway struct {
	mock.Mock
}

func (m *MockBillingGateway) CreateCustomer(ctx context.Context, appID uuid.UUID, email, name string) (string, error) {
	args := m.Called(ctx, appID, email, name)
	return args.String(0), args.Error(1)
}

func (m *MockBillingGateway) CreateSubscription(ctx context.Context, customerRef string, tier entitlement.PlanTier) (string, error) {
	args := m.Called(ctx, customerRef, tier)
	return args.String(0), args.Error(1)
}

func (m *MockBillingGateway) UpdateSubscription(ctx context.Context, subscriptionRef string, tier entitlement.PlanTier) error {
	args := m.Called(ctx, subscriptionRef, tier)
	return args.Error(0)
}

func (m *MockBillingGateway) CancelSubscription(ctx context.Context, subscriptionRef string) error {
	args := m.Called(ctx, subscriptionRef)
	return args.Error(0)
}

func (m *MockBillingGateway) DeleteCustomer(ctx context.Context, customerRef string) error {
	args := m.Called(ctx, customerRef)
	return args.Error(0)
}

func (m *MockBillingGateway) ProjectUpcomingInvoice(ctx context.Context, customerRef string) (*entitlement.InvoiceProjection, error) {
	args := m.Called(ctx, customerRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.InvoiceProjection), args.Error(1)
}

func (m *MockBillingGateway) CreateConsent(ctx context.Context, customerRef string) (string, string, error) {
	args := m.Called(ctx, customerRef)
	return args.String(0), args.String(1), args.Error(2)
}
