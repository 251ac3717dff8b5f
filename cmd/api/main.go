package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/actiontoken"
	httptransport "github.com/spec-kit/frontdesk/internal/api/http"
	"github.com/spec-kit/frontdesk/internal/api/http/handlers"
	"github.com/spec-kit/frontdesk/internal/auth"
	"github.com/spec-kit/frontdesk/internal/calendar"
	"github.com/spec-kit/frontdesk/internal/config"
	"github.com/spec-kit/frontdesk/internal/events"
	"github.com/spec-kit/frontdesk/internal/identity"
	"github.com/spec-kit/frontdesk/internal/mail"
	"github.com/spec-kit/frontdesk/internal/observability"
	"github.com/spec-kit/frontdesk/internal/persistence"
	"github.com/spec-kit/frontdesk/internal/ratelimit"
	"github.com/spec-kit/frontdesk/internal/repository"
	"github.com/spec-kit/frontdesk/internal/rpc"
	"github.com/spec-kit/frontdesk/internal/service"
	"github.com/spec-kit/frontdesk/internal/storage"
	"github.com/spec-kit/frontdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	orgRepo := repository.NewOrganizationRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	visitorRepo := repository.NewVisitorRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	meetingRepo := repository.NewMeetingRepository(pool)
	calendarRepo := repository.NewCalendarConnectionRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	identityClient := identity.NewClient(cfg.Identity.APIURL, cfg.Identity.SecretKey, cfg.Identity.Timeout())
	sessions, err := identity.NewVerifier(identity.VerifierConfig{
		PublicKeyPEM: cfg.Identity.JWTPublicKey,
		APIURL:       cfg.Identity.APIURL,
		SecretKey:    cfg.Identity.SecretKey,
		Timeout:      cfg.Identity.Timeout(),
	})
	if err != nil {
		logger.Fatal("failed to load identity key", zap.Error(err))
	}

	secret := cfg.ActionToken.Secret
	if secret == "" {
		secret = uuid.NewString() + uuid.NewString()
		logger.Warn("ACTION_TOKEN_SECRET unset, using a per-process secret")
	}
	actionTokens := actiontoken.NewSigner(secret, cfg.ActionToken.TTL())
	stateTokens := auth.NewStateTokens(secret, 10*time.Minute)

	box, err := calendar.NewTokenBox(cfg.Calendar.TokenKey())
	if errors.Is(err, calendar.ErrNoKey) {
		logger.Warn("CALENDAR_TOKEN_KEY unset, calendar tokens will not survive a restart")
		box, err = calendar.NewEphemeralTokenBox()
	}
	if err != nil {
		logger.Fatal("failed to init calendar token box", zap.Error(err))
	}
	calendarService := calendar.NewService(calendar.Options{
		Repo:   calendarRepo,
		Box:    box,
		States: stateTokens,
		Once:   redis,
		Logger: logger,
		OAuth:  calendar.OAuthConfigs(cfg.Calendar, cfg.App.PublicURL),
	})

	var objectStore storage.ObjectStore
	if store, err := storage.NewObjectStore(cfg.Storage); err == nil {
		objectStore = store
	} else if errors.Is(err, storage.ErrNotConfigured) {
		logger.Warn("object storage not configured, uploads disabled")
	} else {
		logger.Fatal("failed to init object storage", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	mailer := mail.NewMailer(cfg.Mail, logger)
	limiter := ratelimit.New(ratelimit.NewStore(redis.Client, logger), cfg.RateLimit.PublicPerMinute, logger)

	provisioning := service.NewProvisioningService(service.ProvisioningDependencies{
		Identity:  identityClient,
		OrgRepo:   orgRepo,
		StaffRepo: staffRepo,
		Metrics:   metrics,
		Logger:    logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:       dispatcher,
		NotificationRepo: notificationRepo,
		StaffRepo:        staffRepo,
		OrgRepo:          orgRepo,
		Mailer:           mailer,
		Tokens:           actionTokens,
		Metrics:          metrics,
		Logger:           logger,
		PublicURL:        cfg.App.PublicURL,
	})
	worker.StartNotificationWorker(notificationService, logger)

	visitorService := service.NewVisitorService(service.VisitorDependencies{
		VisitorRepo: visitorRepo,
		StaffRepo:   staffRepo,
		OrgRepo:     orgRepo,
		Tokens:      actionTokens,
		Dispatcher:  dispatcher,
	})
	meetingService := service.NewMeetingService(service.MeetingDependencies{
		MeetingRepo: meetingRepo,
		VisitorRepo: visitorRepo,
		Calendar:    calendarService,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	services := rpc.Services{
		Visitors: visitorService,
		Staff: service.NewStaffService(service.StaffDependencies{
			StaffRepo: staffRepo,
			OrgRepo:   orgRepo,
			Identity:  identityClient,
			Logger:    logger,
		}),
		Employees: service.NewEmployeeService(visitorRepo, ticketRepo, orgRepo),
		Tickets: service.NewTicketService(service.TicketDependencies{
			TicketRepo:  ticketRepo,
			MessageRepo: messageRepo,
			StaffRepo:   staffRepo,
			Dispatcher:  dispatcher,
		}),
		Projects:      service.NewProjectService(projectRepo, staffRepo),
		Notifications: notificationService,
		Meetings:      meetingService,
		Analytics: service.NewAnalyticsService(service.AnalyticsDependencies{
			AnalyticsRepo: analyticsRepo,
			OrgRepo:       orgRepo,
			Cache:         redis,
			CacheTTL:      cfg.Analytics.CacheTTL(),
			Logger:        logger,
		}),
		Organizations: service.NewOrganizationService(orgRepo),
	}

	rpcRouter := rpc.NewRouter(rpc.Options{Limiter: limiter, Metrics: metrics, Logger: logger})
	rpc.RegisterProcedures(rpcRouter, services)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    int(cfg.Storage.MaxUploadBytes()) + 1<<20,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Calendar: handlers.NewCalendarHandler(calendarService, meetingService, logger),
		Upload:   handlers.NewUploadHandler(service.NewUploadService(objectStore, cfg.Storage.MaxUploadBytes())),
		Pages: handlers.NewPagesHandler(handlers.PagesConfig{
			AppName:     cfg.App.Name,
			SignInURL:   cfg.Identity.SignInURL,
			Development: cfg.App.IsDevelopment(),
		}),
		VisitorResponse: handlers.NewVisitorResponseHandler(visitorService, cfg.App.Name, logger),
		RPC:             rpcRouter,
		Sessions:        sessions,
		SessionCookie:   cfg.Identity.SessionCookie,
		Guard: auth.GuardDeps{
			Profiles:    staffRepo,
			Provisioner: provisioning,
			Metrics:     metrics,
			Logger:      logger,
		},
		Limiter: limiter,
		Metrics: metrics,
		Logger:  logger,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
