package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/Ignatius32/asistencia-informatica-crub/internal/api/http"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/api/http/handlers"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/auth"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/config"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/events"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/mailer"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/observability"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/persistence"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/repository"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/service"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/worker"
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
	dispatcher := events.NewInMemoryDispatcher()
	gasMailer := mailer.NewGASMailer(cfg.Mailer, logger)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	technicianRepo := repository.NewTechnicianRepository(pool)
	areaRepo := repository.NewAreaRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo, technicianRepo, areaRepo)

	setupTTL := cfg.Auth.SetupTokenTTL()
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:       userRepo,
		TechnicianRepo: technicianRepo,
		TokenManager:   tokenManager,
		Mailer:         gasMailer,
		Logger:         logger,
		BcryptCost:     cfg.Auth.BcryptCost,
		SetupTokenTTL:  setupTTL,
	})

	catalogService := service.NewCatalogService(areaRepo, categoryRepo, redis.ClientHandle(), logger)

	orgService := service.NewOrgService(service.OrgDependencies{
		AreaRepo:       areaRepo,
		CategoryRepo:   categoryRepo,
		TechnicianRepo: technicianRepo,
		AssignmentRepo: assignmentRepo,
		Mailer:         gasMailer,
		Catalog:        catalogService,
		Logger:         logger,
		SetupTokenTTL:  setupTTL,
	})

	distributor := service.NewDistributor(technicianRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		CategoryRepo:   categoryRepo,
		TechnicianRepo: technicianRepo,
		AreaRepo:       areaRepo,
		Distributor:    distributor,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
	})

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:     dispatcher,
		Mailer:         gasMailer,
		TicketRepo:     ticketRepo,
		UserRepo:       userRepo,
		TechnicianRepo: technicianRepo,
		CategoryRepo:   categoryRepo,
		AreaRepo:       areaRepo,
		Logger:         logger,
		Metrics:        metrics,
	})
	worker.StartNotificationWorker(notificationService)

	if cfg.Summary.Enabled {
		worker.StartDailySummary(ctx, worker.DailySummaryConfig{
			TechnicianRepo: technicianRepo,
			TicketRepo:     ticketRepo,
			Mailer:         gasMailer,
			Logger:         logger,
			Interval:       cfg.Summary.Interval(),
		})
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Org:            handlers.NewOrgHandler(orgService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
