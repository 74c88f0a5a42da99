package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/clubhub-io/event-registration/internal/api/http"
	"github.com/clubhub-io/event-registration/internal/api/http/handlers"
	"github.com/clubhub-io/event-registration/internal/auth"
	"github.com/clubhub-io/event-registration/internal/config"
	"github.com/clubhub-io/event-registration/internal/events"
	"github.com/clubhub-io/event-registration/internal/gateway/payment"
	"github.com/clubhub-io/event-registration/internal/observability"
	"github.com/clubhub-io/event-registration/internal/persistence"
	"github.com/clubhub-io/event-registration/internal/repository"
	"github.com/clubhub-io/event-registration/internal/service"
	"github.com/clubhub-io/event-registration/internal/worker"
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

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	eventRepo := repository.NewCachedEventRepository(
		repository.NewEventRepository(pool),
		redis.ClientHandle(),
		cfg.Redis.EventCacheTTL(),
		logger,
	)
	regRepo := repository.NewRegistrationRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	issuer := service.NewTicketIssuer(regRepo, ticketRepo)

	authService := service.NewAuthService(cfg.Auth, userRepo)
	admissionService := service.NewAdmissionService(service.AdmissionDependencies{
		EventRepo:  eventRepo,
		RegRepo:    regRepo,
		TicketRepo: ticketRepo,
		Issuer:     issuer,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		RegRepo:    regRepo,
		EventRepo:  eventRepo,
		TicketRepo: ticketRepo,
		Gateway:    payment.NewClient(cfg.Payment),
		Issuer:     issuer,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	checkinService := service.NewCheckinService(ticketRepo, dispatcher, metrics, logger)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Events:         handlers.NewEventsHandler(admissionService),
		Registrations:  handlers.NewRegistrationsHandler(admissionService),
		Payments:       handlers.NewPaymentsHandler(paymentService),
		Checkin:        handlers.NewCheckinHandler(checkinService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
