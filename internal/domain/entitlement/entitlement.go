package entitlement

import (
	"strings"
	"time"

	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Status is the lifecycle state of an app's billing relationship
type Status string

const (
	// StatusPending means a customer exists but no subscription yet
	StatusPending Status = "pending"
	// StatusActive means a subscription is live on the billing system
	StatusActive Status = "active"
	// StatusCanceled means the subscription was terminated
	StatusCanceled Status = "canceled"
)

var (
	ErrNoCustomer       = shared.NewDomainError("NO_BILLING_CUSTOMER", "App has no billing customer yet")
	ErrConsentRequired  = shared.NewDomainError("CONSENT_REQUIRED", "A payment method consent is required before subscribing")
	ErrAlreadyActive    = shared.NewDomainError("ALREADY_SUBSCRIBED", "App already holds an active subscription for this plan")
	ErrInvalidReference = shared.NewDomainError("INVALID_BILLING_REF", "Billing reference cannot be empty")
)

// Entitlement links an app to its customer and subscription records on the
// external billing system. Exactly one entitlement exists per app.
type Entitlement struct {
	shared.AppScopedAggregateRoot
	CustomerRef     string   `gorm:"type:varchar(100);uniqueIndex"`
	SubscriptionRef string   `gorm:"type:varchar(100)"`
	Tier            PlanTier `gorm:"not null;default:0"`
	Status          Status   `gorm:"type:varchar(20);not null"`
	ConsentRef      string   `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (Entitlement) TableName() string {
	return "billing_entitlements"
}

// NewEntitlement creates the billing record for an app after the customer has
// been registered on the external system.
func NewEntitlement(appID uuid.UUID, customerRef string) (*Entitlement, error) {
	if appID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_APP_ID", "App id cannot be empty")
	}
	customerRef = strings.TrimSpace(customerRef)
	if customerRef == "" {
		return nil, ErrInvalidReference
	}

	ent := &Entitlement{
		AppScopedAggregateRoot: shared.NewAppScopedAggregateRoot(appID),
		CustomerRef:            customerRef,
		Tier:                   TierFree,
		Status:                 StatusPending,
	}

	ent.AddDomainEvent(NewCustomerRegisteredEvent(ent))

	return ent, nil
}

// RecordConsent stores the payment method consent obtained from the user
func (e *Entitlement) RecordConsent(consentRef string) error {
	consentRef = strings.TrimSpace(consentRef)
	if consentRef == "" {
		return ErrInvalidReference
	}

	e.ConsentRef = consentRef
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	return nil
}

// HasConsent reports whether a payment method consent is on file
func (e *Entitlement) HasConsent() bool {
	return e.ConsentRef != ""
}

// Subscribe records a newly created subscription. Paid tiers require a
// payment method consent to be on file first.
func (e *Entitlement) Subscribe(subscriptionRef string, tier PlanTier) error {
	subscriptionRef = strings.TrimSpace(subscriptionRef)
	if subscriptionRef == "" {
		return ErrInvalidReference
	}
	if !tier.IsValid() {
		return ErrUnknownPlan
	}
	if tier > TierFree && !e.HasConsent() {
		return ErrConsentRequired
	}

	previous := e.Tier
	e.SubscriptionRef = subscriptionRef
	e.Tier = tier
	e.Status = StatusActive
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	e.AddDomainEvent(NewPlanChangedEvent(e, previous))

	return nil
}

// ChangeTier moves an active subscription to a different tier. Changing to
// the current tier is a no-op so retried requests converge.
func (e *Entitlement) ChangeTier(tier PlanTier) error {
	if !tier.IsValid() {
		return ErrUnknownPlan
	}
	if e.Status != StatusActive || e.SubscriptionRef == "" {
		return ErrNoCustomer
	}
	if tier == e.Tier {
		return nil
	}
	if tier > TierFree && !e.HasConsent() {
		return ErrConsentRequired
	}

	previous := e.Tier
	e.Tier = tier
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	e.AddDomainEvent(NewPlanChangedEvent(e, previous))

	return nil
}

// MarkCanceled records that the subscription was terminated on the billing
// system. Safe to call repeatedly.
func (e *Entitlement) MarkCanceled() {
	if e.Status == StatusCanceled {
		return
	}

	previous := e.Tier
	e.Status = StatusCanceled
	e.SubscriptionRef = ""
	e.Tier = TierFree
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	e.AddDomainEvent(NewSubscriptionCanceledEvent(e, previous))
}

// HasSubscription reports whether a live subscription exists
func (e *Entitlement) HasSubscription() bool {
	return e.Status == StatusActive && e.SubscriptionRef != ""
}
