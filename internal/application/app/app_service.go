package app

import (
	"context"
	"errors"
	"time"

	"github.com/authbase/backend/internal/domain/account"
	"github.com/authbase/backend/internal/domain/app"
	"github.com/authbase/backend/internal/domain/entitlement"
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/authbase/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AppService handles app lifecycle, configuration and host whitelist
// management.
type AppService struct {
	uow             shared.UnitOfWork
	appRepo         app.Repository
	configRepo      app.ConfigRepository
	hostRepo        app.HostRepository
	userRepo        account.UserRepository
	entitlementRepo entitlement.Repository
	jobRepo         entitlement.JobRepository
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewAppService creates a new app service
func NewAppService(
	uow shared.UnitOfWork,
	appRepo app.Repository,
	configRepo app.ConfigRepository,
	hostRepo app.HostRepository,
	userRepo account.UserRepository,
	entitlementRepo entitlement.Repository,
	jobRepo entitlement.JobRepository,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *AppService {
	return &AppService{
		uow:             uow,
		appRepo:         appRepo,
		configRepo:      configRepo,
		hostRepo:        hostRepo,
		userRepo:        userRepo,
		entitlementRepo: entitlementRepo,
		jobRepo:         jobRepo,
		eventPublisher:  eventPublisher,
		logger:          logger,
	}
}

// CreateAppInput contains input for creating an app
type CreateAppInput struct {
	OwnerUserID uuid.UUID
	Name        string
	Hostnames   []string
}

// SetConfigInput contains input for updating an app's configuration
type SetConfigInput struct {
	AppID           uuid.UUID
	ExpectedVersion int
	Patch           app.Config
}

// AppDTO represents app data transfer object
type AppDTO struct {
	ID          uuid.UUID `json:"id"`
	OwnerUserID uuid.UUID `json:"owner_user_id"`
	Name        string    `json:"name"`
	Secret      string    `json:"secret"`
	PlanLabel   string    `json:"plan_label"`
	Hostnames   []string  `json:"hostnames"`
	UserCount   int64     `json:"user_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ConfigDTO carries both the stored document and its resolved view
type ConfigDTO struct {
	AppID         uuid.UUID    `json:"app_id"`
	Version       int          `json:"version"`
	SchemaVersion int          `json:"schema_version"`
	Stored        app.Config   `json:"stored"`
	Resolved      app.Resolved `json:"resolved"`
}

// HostDTO represents a whitelisted hostname
type HostDTO struct {
	ID       uuid.UUID `json:"id"`
	AppID    uuid.UUID `json:"app_id"`
	Hostname string    `json:"hostname"`
}

// Create provisions a new app with its default configuration and initial
// host whitelist in one transaction.
func (s *AppService) Create(ctx context.Context, input CreateAppInput) (*AppDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "app", "create")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrAppName, input.Name)

	s.logger.Info("Creating app",
		zap.String("owner_user_id", input.OwnerUserID.String()),
		zap.String("name", input.Name))

	newApp, err := app.NewApp(input.OwnerUserID, input.Name)
	if err != nil {
		return nil, err
	}

	cfgRecord := app.NewConfigRecord(newApp.ID)

	hosts := make([]*app.Host, 0, len(input.Hostnames))
	for _, raw := range input.Hostnames {
		h, err := app.NewHost(newApp.ID, raw)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}

	err = s.uow.Execute(ctx, func(ctx context.Context) error {
		if err := s.appRepo.Create(ctx, newApp); err != nil {
			return err
		}
		if err := s.configRepo.Create(ctx, cfgRecord); err != nil {
			return err
		}
		for _, h := range hosts {
			taken, err := s.hostRepo.ExistsByHostname(ctx, newApp.ID, h.Hostname)
			if err != nil {
				return err
			}
			if taken {
				return app.ErrDuplicateHost
			}
			if err := s.hostRepo.Create(ctx, h); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to create app", zap.Error(err))
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrAppID, newApp.ID.String())
	s.publishEvents(ctx, newApp.GetDomainEvents())
	newApp.ClearDomainEvents()

	dto := s.toDTO(newApp, hostNames(hosts), 0, entitlement.TierFree)
	return dto, nil
}

// Get retrieves the composite view of an app: core fields, its whitelisted
// hostnames, user count and current plan.
func (s *AppService) Get(ctx context.Context, appID uuid.UUID) (*AppDTO, error) {
	a, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, a)
}

// ListByOwner retrieves the composite views of all apps owned by a user
func (s *AppService) ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]*AppDTO, error) {
	apps, err := s.appRepo.FindByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}

	result := make([]*AppDTO, 0, len(apps))
	for _, a := range apps {
		dto, err := s.assemble(ctx, a)
		if err != nil {
			return nil, err
		}
		result = append(result, dto)
	}
	return result, nil
}

// Rename changes the app's display name
func (s *AppService) Rename(ctx context.Context, appID uuid.UUID, name string) error {
	a, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return err
	}
	if err := a.Rename(name); err != nil {
		return err
	}
	if err := s.appRepo.Update(ctx, a); err != nil {
		return err
	}

	s.publishEvents(ctx, a.GetDomainEvents())
	a.ClearDomainEvents()
	return nil
}

// RotateSecret replaces the app's signing secret. Tokens signed with the old
// secret stop verifying immediately.
func (s *AppService) RotateSecret(ctx context.Context, appID uuid.UUID) (string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "app", "rotate_secret")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrAppID, appID.String())

	a, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return "", err
	}
	if err := a.RotateSecret(); err != nil {
		return "", err
	}
	if err := s.appRepo.Update(ctx, a); err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}

	telemetry.AddEvent(span, "secret_rotated")
	s.logger.Info("Rotated app secret", zap.String("app_id", appID.String()))
	s.publishEvents(ctx, a.GetDomainEvents())
	a.ClearDomainEvents()
	return a.Secret, nil
}

// GetConfig retrieves the stored configuration document and its resolved
// view with defaults applied.
func (s *AppService) GetConfig(ctx context.Context, appID uuid.UUID) (*ConfigDTO, error) {
	record, err := s.configRepo.FindByAppID(ctx, appID)
	if err != nil {
		return nil, err
	}

	return &ConfigDTO{
		AppID:         appID,
		Version:       record.Version,
		SchemaVersion: record.Config.SchemaVersion,
		Stored:        record.Config,
		Resolved:      record.Config.Resolve(),
	}, nil
}

// SetConfig merges a partial configuration patch into the stored document.
// The caller supplies the version it read; a mismatch means someone else
// wrote in between and the update is rejected.
func (s *AppService) SetConfig(ctx context.Context, input SetConfigInput) (*ConfigDTO, error) {
	record, err := s.configRepo.FindByAppID(ctx, input.AppID)
	if err != nil {
		return nil, err
	}
	if record.Version != input.ExpectedVersion {
		return nil, shared.ErrConcurrencyConflict
	}

	if err := record.Apply(input.Patch); err != nil {
		return nil, err
	}
	if err := s.configRepo.Update(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("Updated app config",
		zap.String("app_id", input.AppID.String()),
		zap.Int("version", record.Version))

	s.publishEvents(ctx, record.GetDomainEvents())
	record.ClearDomainEvents()

	return &ConfigDTO{
		AppID:         input.AppID,
		Version:       record.Version,
		SchemaVersion: record.Config.SchemaVersion,
		Stored:        record.Config,
		Resolved:      record.Config.Resolve(),
	}, nil
}

// AddHost whitelists a hostname for the app. Hostnames are unique within
// the app; unrelated apps may whitelist the same name.
func (s *AppService) AddHost(ctx context.Context, appID uuid.UUID, hostname string) (*HostDTO, error) {
	if _, err := s.appRepo.FindByID(ctx, appID); err != nil {
		return nil, err
	}

	h, err := app.NewHost(appID, hostname)
	if err != nil {
		return nil, err
	}

	taken, err := s.hostRepo.ExistsByHostname(ctx, appID, h.Hostname)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, app.ErrDuplicateHost
	}

	if err := s.hostRepo.Create(ctx, h); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, app.NewHostAddedEvent(h)); err != nil {
			s.logger.Warn("Failed to publish host added event", zap.Error(err))
		}
	}

	return &HostDTO{ID: h.ID, AppID: h.AppID, Hostname: h.Hostname}, nil
}

// RemoveHost drops a hostname from the app's whitelist
func (s *AppService) RemoveHost(ctx context.Context, appID, hostID uuid.UUID) error {
	h, err := s.hostRepo.FindByID(ctx, hostID)
	if err != nil {
		return err
	}
	if h.AppID != appID {
		return shared.ErrNotFound
	}

	if err := s.hostRepo.Delete(ctx, hostID); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, app.NewHostRemovedEvent(h)); err != nil {
			s.logger.Warn("Failed to publish host removed event", zap.Error(err))
		}
	}
	return nil
}

// ListHosts retrieves the app's whitelisted hostnames
func (s *AppService) ListHosts(ctx context.Context, appID uuid.UUID) ([]HostDTO, error) {
	hosts, err := s.hostRepo.FindByAppID(ctx, appID)
	if err != nil {
		return nil, err
	}

	result := make([]HostDTO, 0, len(hosts))
	for _, h := range hosts {
		result = append(result, HostDTO{ID: h.ID, AppID: h.AppID, Hostname: h.Hostname})
	}
	return result, nil
}

// Delete removes the app and everything it owns: users with their
// credentials, configuration, hosts and the local entitlement record. The
// external billing records cannot join the transaction, so a cleanup job is
// enqueued inside it instead and a background worker reconciles the billing
// system afterwards.
func (s *AppService) Delete(ctx context.Context, appID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "app", "delete")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrAppID, appID.String())

	a, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return err
	}

	ent, err := s.entitlementRepo.FindByAppID(ctx, appID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	err = s.uow.Execute(ctx, func(ctx context.Context) error {
		if err := s.userRepo.DeleteByAppID(ctx, appID); err != nil {
			return err
		}
		if err := s.hostRepo.DeleteByAppID(ctx, appID); err != nil {
			return err
		}
		if err := s.configRepo.DeleteByAppID(ctx, appID); err != nil {
			return err
		}
		if ent != nil {
			if err := s.entitlementRepo.DeleteByAppID(ctx, appID); err != nil {
				return err
			}
			if ent.CustomerRef != "" {
				job := entitlement.NewCancelBillingJob(appID, ent.CustomerRef, ent.SubscriptionRef)
				if err := s.jobRepo.Create(ctx, job); err != nil {
					return err
				}
			}
		}
		return s.appRepo.Delete(ctx, appID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to delete app",
			zap.String("app_id", appID.String()),
			zap.Error(err))
		return err
	}

	a.MarkDeleted()
	s.publishEvents(ctx, a.GetDomainEvents())
	a.ClearDomainEvents()

	s.logger.Info("Deleted app", zap.String("app_id", appID.String()))
	return nil
}

func (s *AppService) assemble(ctx context.Context, a *app.App) (*AppDTO, error) {
	hosts, err := s.hostRepo.FindByAppID(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	count, err := s.userRepo.CountByAppID(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	tier := entitlement.TierFree
	ent, err := s.entitlementRepo.FindByAppID(ctx, a.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if ent != nil {
		tier = ent.Tier
	}

	return s.toDTO(a, hostNames(hosts), count, tier), nil
}

func (s *AppService) toDTO(a *app.App, hostnames []string, userCount int64, tier entitlement.PlanTier) *AppDTO {
	return &AppDTO{
		ID:          a.ID,
		OwnerUserID: a.OwnerUserID,
		Name:        a.Name,
		Secret:      a.Secret,
		PlanLabel:   tier.Label(),
		Hostnames:   hostnames,
		UserCount:   userCount,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (s *AppService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
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

func hostNames(hosts []*app.Host) []string {
	names := make([]string, 0, len(hosts))
	for _, h := range hosts {
		names = append(names, h.Hostname)
	}
	return names
}
