package entitlement

import (
	"github.com/authbase/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeEntitlement = "Entitlement"

// Event type constants
const (
	EventTypeCustomerRegistered   = "BillingCustomerRegistered"
	EventTypePlanChanged          = "PlanChanged"
	EventTypeSubscriptionCanceled = "SubscriptionCanceled"
)

// CustomerRegisteredEvent is published when an app gains a billing customer
type CustomerRegisteredEvent struct {
	shared.BaseDomainEvent
	CustomerRef string `json:"customer_ref"`
}

// NewCustomerRegisteredEvent creates a new CustomerRegisteredEvent
func NewCustomerRegisteredEvent(e *Entitlement) *CustomerRegisteredEvent {
	return &CustomerRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerRegistered, AggregateTypeEntitlement, e.ID, e.AppID),
		CustomerRef:     e.CustomerRef,
	}
}

// PlanChangedEvent is published when an app's tier moves
type PlanChangedEvent struct {
	shared.BaseDomainEvent
	PreviousTier PlanTier `json:"previous_tier"`
	NewTier      PlanTier `json:"new_tier"`
}

// NewPlanChangedEvent creates a new PlanChangedEvent
func NewPlanChangedEvent(e *Entitlement, previous PlanTier) *PlanChangedEvent {
	return &PlanChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanChanged, AggregateTypeEntitlement, e.ID, e.AppID),
		PreviousTier:    previous,
		NewTier:         e.Tier,
	}
}

// SubscriptionCanceledEvent is published when a subscription is terminated
type SubscriptionCanceledEvent struct {
	shared.BaseDomainEvent
	PreviousTier PlanTier `json:"previous_tier"`
}

// NewSubscriptionCanceledEvent creates a new SubscriptionCanceledEvent
func NewSubscriptionCanceledEvent(e *Entitlement, previous PlanTier) *SubscriptionCanceledEvent {
	return &SubscriptionCanceledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionCanceled, AggregateTypeEntitlement, e.ID, e.AppID),
		PreviousTier:    previous,
	}
}
