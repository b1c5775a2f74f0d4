package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/authbase/backend/internal/domain/app"
	"github.com/authbase/backend/internal/domain/entitlement"
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/authbase/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcilerService keeps the local entitlement records and the external
// billing system in agreement. External calls are made outside any database
// transaction; local state is then written with optimistic concurrency.
type ReconcilerService struct {
	entitlementRepo entitlement.Repository
	appRepo         app.Repository
	gateway         entitlement.BillingGateway
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewReconcilerService creates a new reconciler service
func NewReconcilerService(
	entitlementRepo entitlement.Repository,
	appRepo app.Repository,
	gateway entitlement.BillingGateway,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *ReconcilerService {
	return &ReconcilerService{
		entitlementRepo: entitlementRepo,
		appRepo:         appRepo,
		gateway:         gateway,
		eventPublisher:  eventPublisher,
		logger:          logger,
	}
}

// SetupBillingInput contains input for registering a billing customer.
// PaymentConsent records that the owner explicitly agreed to be billed;
// without it no customer is registered. PaymentMethodRef is the collected
// payment method handle and is required for paid plans.
type SetupBillingInput struct {
	AppID            uuid.UUID
	OwnerEmail       string
	OwnerName        string
	Plan             entitlement.PlanTier
	PaymentMethodRef string
	PaymentConsent   bool
}

// EntitlementDTO represents entitlement data transfer object
type EntitlementDTO struct {
	AppID           uuid.UUID          `json:"app_id"`
	CustomerRef     string             `json:"customer_ref"`
	SubscriptionRef string             `json:"subscription_ref,omitempty"`
	PlanLabel       string             `json:"plan_label"`
	Status          entitlement.Status `json:"status"`
	HasConsent      bool               `json:"has_consent"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ConsentDTO carries what the app owner needs to complete a payment method
// collection flow on the billing provider's side.
type ConsentDTO struct {
	ConsentRef   string `json:"consent_ref"`
	ClientSecret string `json:"client_secret"`
}

// SetupBilling registers a billing customer for the app, creates its
// entitlement record and, for a paid plan, opens the subscription in the
// same pass. It refuses to touch the billing system unless the owner has
// consented to be billed. Calling it again for the same app returns the
// existing record unchanged.
func (s *ReconcilerService) SetupBilling(ctx context.Context, input SetupBillingInput) (*EntitlementDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "setup")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrAppID, input.AppID.String())

	if !input.PaymentConsent {
		return nil, entitlement.ErrConsentRequired
	}
	if !input.Plan.IsValid() {
		return nil, entitlement.ErrUnknownPlan
	}
	if input.Plan > entitlement.TierFree && input.PaymentMethodRef == "" {
		return nil, entitlement.ErrConsentRequired
	}

	if _, err := s.appRepo.FindByID(ctx, input.AppID); err != nil {
		return nil, err
	}

	existing, err := s.entitlementRepo.FindByAppID(ctx, input.AppID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return toEntitlementDTO(existing), nil
	}

	customerRef, err := s.gateway.CreateCustomer(ctx, input.AppID, input.OwnerEmail, input.OwnerName)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to create billing customer",
			zap.String("app_id", input.AppID.String()),
			zap.Error(err))
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrCustomerRef, customerRef)

	ent, err := entitlement.NewEntitlement(input.AppID, customerRef)
	if err != nil {
		return nil, err
	}
	if input.PaymentMethodRef != "" {
		if err := ent.RecordConsent(input.PaymentMethodRef); err != nil {
			return nil, err
		}
	}
	if input.Plan > entitlement.TierFree {
		subRef, err := s.gateway.CreateSubscription(ctx, customerRef, input.Plan)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if err := ent.Subscribe(subRef, input.Plan); err != nil {
			return nil, err
		}
	}

	if err := s.entitlementRepo.Create(ctx, ent); err != nil {
		// The customer exists remotely but the local write lost. Orphaned
		// customers are swept by the reconcile worker via cancel jobs, so
		// surface the error as-is.
		return nil, err
	}

	s.publishEvents(ctx, ent.GetDomainEvents())
	ent.ClearDomainEvents()

	s.logger.Info("Billing customer registered",
		zap.String("app_id", input.AppID.String()),
		zap.String("customer_ref", customerRef))

	return toEntitlementDTO(ent), nil
}

// Get retrieves the app's entitlement record
func (s *ReconcilerService) Get(ctx context.Context, appID uuid.UUID) (*EntitlementDTO, error) {
	ent, err := s.entitlementRepo.FindByAppID(ctx, appID)
	if err != nil {
		return nil, err
	}
	return toEntitlementDTO(ent), nil
}

// CreateConsent starts a payment method collection flow for the app's
// customer and records the consent reference locally.
func (s *ReconcilerService) CreateConsent(ctx context.Context, appID uuid.UUID) (*ConsentDTO, error) {
	ent, err := s.entitlementRepo.FindByAppID(ctx, appID)
	if err != nil {
		return nil, err
	}

	ref, clientSecret, err := s.gateway.CreateConsent(ctx, ent.CustomerRef)
	if err != nil {
		return nil, err
	}

	if err := ent.RecordConsent(ref); err != nil {
		return nil, err
	}
	if err := s.entitlementRepo.Update(ctx, ent); err != nil {
		return nil, err
	}

	return &ConsentDTO{ConsentRef: ref, ClientSecret: clientSecret}, nil
}

// ChangePlan moves the app to the requested tier. Requesting the current
// tier is a no-op, so a retried request converges instead of failing. Paid
// tiers require a payment method consent on file. The billing call happens
// before the local write and outside any transaction; the local write then
// races under optimistic concurrency and a conflict is safe to retry
// because the billing side is already idempotent.
func (s *ReconcilerService) ChangePlan(ctx context.Context, appID uuid.UUID, tier entitlement.PlanTier) (*EntitlementDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "change_plan")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAppID, appID.String(),
		telemetry.SpanAttrPlan, tier.Label(),
	)

	if !tier.IsValid() {
		return nil, entitlement.ErrUnknownPlan
	}

	ent, err := s.entitlementRepo.FindByAppID(ctx, appID)
	if err != nil {
		return nil, err
	}

	// Already on the requested tier, whether or not a subscription backs it.
	if ent.Tier == tier {
		return toEntitlementDTO(ent), nil
	}
	if tier > entitlement.TierFree && !ent.HasConsent() {
		return nil, entitlement.ErrConsentRequired
	}

	if ent.HasSubscription() {
		if err := s.gateway.UpdateSubscription(ctx, ent.SubscriptionRef, tier); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if err := ent.ChangeTier(tier); err != nil {
			return nil, err
		}
	} else {
		subRef, err := s.gateway.CreateSubscription(ctx, ent.CustomerRef, tier)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if err := ent.Subscribe(subRef, tier); err != nil {
			return nil, err
		}
	}

	if err := s.entitlementRepo.Update(ctx, ent); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, ent.GetDomainEvents())
	ent.ClearDomainEvents()

	telemetry.AddEvent(span, "plan_changed",
		telemetry.SpanAttrSubscriptionRef, ent.SubscriptionRef,
	)
	s.logger.Info("Plan changed",
		zap.String("app_id", appID.String()),
		zap.String("plan", tier.Label()))

	return toEntitlementDTO(ent), nil
}

// CancelPlan terminates the app's subscription and drops it to the free
// tier. Safe to call when no subscription exists.
func (s *ReconcilerService) CancelPlan(ctx context.Context, appID uuid.UUID) (*EntitlementDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "cancel_plan")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrAppID, appID.String())

	ent, err := s.entitlementRepo.FindByAppID(ctx, appID)
	if err != nil {
		return nil, err
	}

	if ent.SubscriptionRef != "" {
		if err := s.gateway.CancelSubscription(ctx, ent.SubscriptionRef); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	ent.MarkCanceled()
	if err := s.entitlementRepo.Update(ctx, ent); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, ent.GetDomainEvents())
	ent.ClearDomainEvents()

	return toEntitlementDTO(ent), nil
}

// ProjectInvoice previews the app's next invoice as the billing system
// would issue it today. The projection is computed remotely and returned
// as-is; nothing is persisted.
func (s *ReconcilerService) ProjectInvoice(ctx context.Context, appID uuid.UUID) (*entitlement.InvoiceProjection, error) {
	ent, err := s.entitlementRepo.FindByAppID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !ent.HasSubscription() {
		return nil, entitlement.ErrNoCustomer
	}
	return s.gateway.ProjectUpcomingInvoice(ctx, ent.CustomerRef)
}

func (s *ReconcilerService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
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

func toEntitlementDTO(e *entitlement.Entitlement) *EntitlementDTO {
	return &EntitlementDTO{
		AppID:           e.AppID,
		CustomerRef:     e.CustomerRef,
		SubscriptionRef: e.SubscriptionRef,
		PlanLabel:       e.Tier.Label(),
		Status:          e.Status,
		HasConsent:      e.HasConsent(),
		UpdatedAt:       e.UpdatedAt,
	}
}
