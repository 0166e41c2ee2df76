package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/stelaryous/ticketflow/internal/api/http"
	"github.com/stelaryous/ticketflow/internal/api/http/handlers"
	"github.com/stelaryous/ticketflow/internal/auth"
	"github.com/stelaryous/ticketflow/internal/config"
	"github.com/stelaryous/ticketflow/internal/events"
	"github.com/stelaryous/ticketflow/internal/mail"
	"github.com/stelaryous/ticketflow/internal/observability"
	"github.com/stelaryous/ticketflow/internal/persistence"
	"github.com/stelaryous/ticketflow/internal/repository"
	"github.com/stelaryous/ticketflow/internal/service"
	"github.com/stelaryous/ticketflow/internal/storage"
	"github.com/stelaryous/ticketflow/internal/worker"
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

	store, err := storage.NewMinioStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to connect object storage", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	discountRepo := repository.NewDiscountRepository(pool)
	transferRepo := repository.NewTransferRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	mailer := mail.NewSMTPMailer(cfg.Mail)
	notificationWorker := worker.NewNotificationWorker(mailer, logger)
	notificationWorker.Register(dispatcher)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	limiter := auth.NewLoginLimiter(redis.Client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow())

	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   userRepo,
		Tokens:     tokens,
		Limiter:    limiter,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		CatalogRepo:    catalogRepo,
		DiscountRepo:   discountRepo,
		Store:          store,
		Dispatcher:     dispatcher,
		Logger:         logger,
		ProofNamespace: cfg.Storage.ProofNamespace,
	})
	catalogService := service.NewCatalogService(catalogRepo, logger)
	discountService := service.NewDiscountService(discountRepo, logger)
	transferService := service.NewTransferService(service.TransferDependencies{
		TransferRepo: transferRepo,
		TicketRepo:   ticketRepo,
		UserRepo:     userRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		PaymentRepo:  paymentRepo,
		TicketRepo:   ticketRepo,
		CatalogRepo:  catalogRepo,
		DiscountRepo: discountRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	dashboardService := service.NewDashboardService(ticketRepo, userRepo, logger, time.Now)

	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(userService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Catalog:        handlers.NewCatalogHandler(catalogService, discountService),
		Transfers:      handlers.NewTransfersHandler(transferService),
		Finance:        handlers.NewFinanceHandler(paymentService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
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
