package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/authbase/backend/internal/domain/entitlement"
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/authbase/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/invoice"
	"github.com/stripe/stripe-go/v81/setupintent"
	"github.com/stripe/stripe-go/v81/subscription"
	"go.uber.org/zap"
)

// StripeGateway implements entitlement.BillingGateway against Stripe
type StripeGateway struct {
	cfg    config.BillingConfig
	logger *zap.Logger
}

// NewStripeGateway creates a new Stripe gateway and configures the global
// Stripe client key
func NewStripeGateway(cfg config.BillingConfig, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("stripe: api key is required")
	}
	stripe.Key = cfg.APIKey

	return &StripeGateway{cfg: cfg, logger: logger}, nil
}

// CreateCustomer registers a Stripe customer for the app owner
func (g *StripeGateway) CreateCustomer(ctx context.Context, appID uuid.UUID, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	params.Metadata = map[string]string{"app_id": appID.String()}

	cust, err := customer.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe customer",
			zap.String("app_id", appID.String()),
			zap.Error(err))
		return "", mapStripeError("create customer", err)
	}

	g.logger.Info("Created Stripe customer",
		zap.String("app_id", appID.String()),
		zap.String("customer_id", cust.ID))
	return cust.ID, nil
}

// CreateSubscription opens a subscription for the tier on an existing customer
func (g *StripeGateway) CreateSubscription(ctx context.Context, customerRef string, tier entitlement.PlanTier) (string, error) {
	priceID, err := g.priceFor(tier)
	if err != nil {
		return "", err
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerRef),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	params.Context = ctx
	params.Metadata = map[string]string{"plan": tier.Label(), "tier": tier.Code()}

	sub, err := subscription.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe subscription",
			zap.String("customer_id", customerRef),
			zap.String("plan", tier.Label()),
			zap.Error(err))
		return "", mapStripeError("create subscription", err)
	}

	g.logger.Info("Created Stripe subscription",
		zap.String("customer_id", customerRef),
		zap.String("subscription_id", sub.ID),
		zap.String("plan", tier.Label()))
	return sub.ID, nil
}

// UpdateSubscription moves an existing subscription to a different tier,
// prorating mid-cycle
func (g *StripeGateway) UpdateSubscription(ctx context.Context, subscriptionRef string, tier entitlement.PlanTier) error {
	priceID, err := g.priceFor(tier)
	if err != nil {
		return err
	}

	getParams := &stripe.SubscriptionParams{}
	getParams.Context = ctx
	sub, err := subscription.Get(subscriptionRef, getParams)
	if err != nil {
		return mapStripeError("get subscription", err)
	}
	if len(sub.Items.Data) == 0 {
		return fmt.Errorf("stripe: subscription %s has no items", subscriptionRef)
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(sub.Items.Data[0].ID),
				Price: stripe.String(priceID),
			},
		},
		ProrationBehavior: stripe.String("create_prorations"),
	}
	params.Context = ctx
	params.Metadata = map[string]string{"plan": tier.Label(), "tier": tier.Code()}

	if _, err := subscription.Update(subscriptionRef, params); err != nil {
		g.logger.Error("Failed to update Stripe subscription",
			zap.String("subscription_id", subscriptionRef),
			zap.String("plan", tier.Label()),
			zap.Error(err))
		return mapStripeError("update subscription", err)
	}

	g.logger.Info("Updated Stripe subscription",
		zap.String("subscription_id", subscriptionRef),
		zap.String("plan", tier.Label()))
	return nil
}

// CancelSubscription terminates a subscription immediately. A missing or
// already-canceled subscription is treated as success.
func (g *StripeGateway) CancelSubscription(ctx context.Context, subscriptionRef string) error {
	if subscriptionRef == "" {
		return nil
	}

	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := subscription.Cancel(subscriptionRef, params); err != nil {
		if isMissing(err) {
			return nil
		}
		g.logger.Error("Failed to cancel Stripe subscription",
			zap.String("subscription_id", subscriptionRef),
			zap.Error(err))
		return mapStripeError("cancel subscription", err)
	}

	g.logger.Info("Canceled Stripe subscription",
		zap.String("subscription_id", subscriptionRef))
	return nil
}

// DeleteCustomer removes a customer and everything attached to it. A
// missing customer is treated as success.
func (g *StripeGateway) DeleteCustomer(ctx context.Context, customerRef string) error {
	if customerRef == "" {
		return nil
	}

	params := &stripe.CustomerParams{}
	params.Context = ctx
	if _, err := customer.Del(customerRef, params); err != nil {
		if isMissing(err) {
			return nil
		}
		g.logger.Error("Failed to delete Stripe customer",
			zap.String("customer_id", customerRef),
			zap.Error(err))
		return mapStripeError("delete customer", err)
	}

	g.logger.Info("Deleted Stripe customer", zap.String("customer_id", customerRef))
	return nil
}

// ProjectUpcomingInvoice previews the customer's next invoice
func (g *StripeGateway) ProjectUpcomingInvoice(ctx context.Context, customerRef string) (*entitlement.InvoiceProjection, error) {
	params := &stripe.InvoiceUpcomingParams{
		Customer: stripe.String(customerRef),
	}
	params.Context = ctx

	inv, err := invoice.Upcoming(params)
	if err != nil {
		if isMissing(err) {
			return nil, shared.ErrNotFound
		}
		g.logger.Error("Failed to preview upcoming Stripe invoice",
			zap.String("customer_id", customerRef),
			zap.Error(err))
		return nil, mapStripeError("preview invoice", err)
	}

	projection := &entitlement.InvoiceProjection{
		Currency:  string(inv.Currency),
		Subtotal:  inv.Subtotal,
		Total:     inv.Total,
		PeriodEnd: time.Unix(inv.PeriodEnd, 0),
	}

	if inv.Lines != nil {
		projection.Lines = make([]entitlement.LineItem, 0, len(inv.Lines.Data))
		for _, line := range inv.Lines.Data {
			item := entitlement.LineItem{
				Description: line.Description,
				Quantity:    line.Quantity,
				Amount:      line.Amount,
				Proration:   line.Proration,
			}
			if line.Price != nil {
				item.UnitAmount = line.Price.UnitAmount
				item.PlanLabel = g.labelForPrice(line.Price.ID)
			}
			projection.Lines = append(projection.Lines, item)
		}
	}

	projection.Tax = resolveTax(inv)
	return projection, nil
}

// CreateConsent starts an off-session payment method collection flow
func (g *StripeGateway) CreateConsent(ctx context.Context, customerRef string) (string, string, error) {
	params := &stripe.SetupIntentParams{
		Customer:           stripe.String(customerRef),
		Usage:              stripe.String("off_session"),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	intent, err := setupintent.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe setup intent",
			zap.String("customer_id", customerRef),
			zap.Error(err))
		return "", "", mapStripeError("create consent", err)
	}

	g.logger.Info("Created Stripe setup intent",
		zap.String("customer_id", customerRef),
		zap.String("setup_intent_id", intent.ID))
	return intent.ID, intent.ClientSecret, nil
}

// priceFor resolves the Stripe price id configured for a tier
func (g *StripeGateway) priceFor(tier entitlement.PlanTier) (string, error) {
	priceID, ok := g.cfg.PriceIDFor(tier.Label())
	if !ok {
		return "", fmt.Errorf("stripe: no price configured for plan %s", tier.Label())
	}
	return priceID, nil
}

// labelForPrice maps a Stripe price id back to its plan label
func (g *StripeGateway) labelForPrice(priceID string) string {
	switch priceID {
	case g.cfg.FreePriceID:
		return entitlement.TierFree.Label()
	case g.cfg.ProPriceID:
		return entitlement.TierPro.Label()
	case g.cfg.PremiumPriceID:
		return entitlement.TierPremium.Label()
	default:
		return ""
	}
}

// resolveTax extracts the tax amount from an invoice. Resolved tax amounts
// win; a bare default rate falls back to computing from the subtotal.
func resolveTax(inv *stripe.Invoice) int64 {
	if len(inv.TotalTaxAmounts) > 0 {
		var tax int64
		for _, t := range inv.TotalTaxAmounts {
			tax += t.Amount
		}
		return tax
	}

	if len(inv.DefaultTaxRates) > 0 && inv.DefaultTaxRates[0] != nil {
		rate := decimal.NewFromFloat(inv.DefaultTaxRates[0].Percentage)
		return entitlement.ApplyTaxRate(inv.Subtotal, rate)
	}
	return 0
}

// mapStripeError translates a Stripe failure into a domain error. Server
// side and transport failures are retryable; the rest keep their detail.
func mapStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= 500 {
			return shared.ErrExternalService
		}
		return fmt.Errorf("stripe: failed to %s: %w", op, err)
	}
	return shared.ErrExternalService
}

// isMissing reports whether err is Stripe's resource_missing error
func isMissing(err error) bool {
	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing
}

// Ensure StripeGateway implements entitlement.BillingGateway
var _ entitlement.BillingGateway = (*StripeGateway)(nil)
