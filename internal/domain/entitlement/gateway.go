package entitlement

import (
	"context"

	"github.com/google/uuid"
)

// BillingGateway is the port to the external billing system. Implementations
// translate provider errors into domain errors; transient provider failures
// surface as retryable shared.ErrExternalService.
type BillingGateway interface {
	// CreateCustomer registers a customer for the app owner and returns the
	// provider's customer reference.
	CreateCustomer(ctx context.Context, appID uuid.UUID, email, name string) (string, error)

	// CreateSubscription opens a subscription for the tier on an existing
	// customer and returns the provider's subscription reference.
	CreateSubscription(ctx context.Context, customerRef string, tier PlanTier) (string, error)

	// UpdateSubscription moves an existing subscription to a different tier,
	// prorating mid-cycle.
	UpdateSubscription(ctx context.Context, subscriptionRef string, tier PlanTier) error

	// CancelSubscription terminates a subscription immediately. Canceling an
	// already-canceled or missing subscription is not an error.
	CancelSubscription(ctx context.Context, subscriptionRef string) error

	// DeleteCustomer removes a customer and everything attached to it.
	// Deleting a missing customer is not an error.
	DeleteCustomer(ctx context.Context, customerRef string) error

	// ProjectUpcomingInvoice previews the customer's next invoice
	ProjectUpcomingInvoice(ctx context.Context, customerRef string) (*InvoiceProjection, error)

	// CreateConsent starts a payment method collection flow and returns the
	// provider's consent reference and the client secret the app owner needs
	// to complete it.
	CreateConsent(ctx context.Context, customerRef string) (ref string, clientSecret string, err error)
}
