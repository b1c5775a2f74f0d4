package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountapp "github.com/authbase/backend/internal/application/account"
	appapp "github.com/authbase/backend/internal/application/app"
	entitlementapp "github.com/authbase/backend/internal/application/entitlement"
	"github.com/authbase/backend/internal/domain/entitlement"
	"github.com/authbase/backend/internal/infrastructure/auth"
	"github.com/authbase/backend/internal/infrastructure/billing"
	"github.com/authbase/backend/internal/infrastructure/config"
	"github.com/authbase/backend/internal/infrastructure/email"
	"github.com/authbase/backend/internal/infrastructure/event"
	"github.com/authbase/backend/internal/infrastructure/logger"
	"github.com/authbase/backend/internal/infrastructure/persistence"
	"github.com/authbase/backend/internal/infrastructure/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// services groups the application layer once wiring is done. Embedding
// layers (HTTP, gRPC, CLI) hang off this container.
type services struct {
	Apps      *appapp.AppService
	Users     *accountapp.UserService
	Directory *accountapp.DirectoryService
	Auth      *accountapp.AuthService
	Billing   *entitlementapp.ReconcilerService
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	log.Info("starting authbase",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing comes up first so later components can create spans.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel,
		logger.WithSlowThreshold(200*time.Millisecond),
		logger.WithIgnoreRecordNotFoundError(true),
	)

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			SlowQueryThresh:  200 * time.Millisecond,
			DBSystem:         "postgresql",
			WithoutVariables: true,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Fatal("failed to register database tracing", zap.Error(err))
		}
	}

	// Token revocation lives in Redis so a rotated or revoked token dies
	// across all instances. A single-node deployment without Redis falls
	// back to the in-process list.
	var revocations auth.RevocationList
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(ctx, 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, using in-memory token revocation list", zap.Error(err))
		redisClient.Close()
		redisClient = nil
		revocations = auth.NewInMemoryRevocationList()
	} else {
		revocations = auth.NewRedisRevocationList(redisClient)
	}
	cancelPing()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Repositories
	appRepo := persistence.NewGormAppRepository(db.DB)
	configRepo := persistence.NewGormAppConfigRepository(db.DB)
	hostRepo := persistence.NewGormAppHostRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	credRepo := persistence.NewGormCredentialRepository(db.DB)
	entitlementRepo := persistence.NewGormEntitlementRepository(db.DB)
	jobRepo := persistence.NewGormReconcileJobRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	eventBus := event.NewInMemoryEventBus(log)

	tokens := auth.NewTokenService(cfg.Token, revocations)

	dispatcher := email.NewDispatcher(cfg.Mail, email.NewLogSender(log), log)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	var gateway entitlement.BillingGateway
	if cfg.Billing.APIKey != "" {
		gw, err := billing.NewStripeGateway(cfg.Billing, log)
		if err != nil {
			log.Fatal("failed to initialize billing gateway", zap.Error(err))
		}
		gateway = gw
	} else {
		log.Warn("billing api key not configured, billing operations disabled")
	}

	svcs := services{
		Apps:      appapp.NewAppService(uow, appRepo, configRepo, hostRepo, userRepo, entitlementRepo, jobRepo, eventBus, log),
		Users:     accountapp.NewUserService(uow, userRepo, credRepo, appRepo, configRepo, tokens, dispatcher, eventBus, log),
		Directory: accountapp.NewDirectoryService(userRepo, log),
		Auth:      accountapp.NewAuthService(userRepo, credRepo, appRepo, configRepo, hostRepo, tokens, dispatcher, eventBus, log),
	}

	var worker *entitlementapp.Worker
	if gateway != nil {
		svcs.Billing = entitlementapp.NewReconcilerService(entitlementRepo, appRepo, gateway, eventBus, log)

		if cfg.Reconcile.Enabled {
			worker = entitlementapp.NewWorker(jobRepo, gateway, entitlementapp.WorkerConfig{
				BatchSize:    cfg.Reconcile.BatchSize,
				PollInterval: cfg.Reconcile.PollInterval,
				BaseBackoff:  cfg.Reconcile.BaseBackoff,
				MaxBackoff:   cfg.Reconcile.MaxBackoff,
			}, log)
			if err := worker.Start(ctx); err != nil {
				log.Fatal("failed to start reconcile worker", zap.Error(err))
			}
		}
	}

	log.Info("authbase ready",
		zap.Bool("billing_enabled", svcs.Billing != nil),
		zap.Bool("reconcile_worker", worker != nil),
		zap.Bool("mail_enabled", cfg.Mail.Enabled),
	)

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if worker != nil {
		if err := worker.Stop(shutdownCtx); err != nil {
			log.Error("reconcile worker shutdown failed", zap.Error(err))
		}
	}
	dispatcher.Stop()

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", zap.Error(err))
	}

	log.Info("authbase stopped")
}
