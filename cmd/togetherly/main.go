package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/infrastructure/email"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/infrastructure/push"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/repository"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/service"
	transport "github.com/Z3r0J/togetherly-backend-sub000/internal/transport/http"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/transport/http/handler"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/config"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/db"
	outboxDomain "github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/domain"
	outboxRepository "github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/repository"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/worker"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/utils"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := utils.InitTracer(ctx, "togetherly-backend")
	if err != nil {
		log.Fatalf("Failed to init trace: %v", err)
	}

	cfg := config.MustLoad()

	loggerCfg := config.LoggerConfig{
		Level: "info",
		Env:   cfg.Env,
	}

	logger, err := config.NewLogger(loggerCfg)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			log.Printf("error syncing logger: %v", err)
		}
	}()

	migrationsURL := utils.ParseWithFallback("MIGRATIONS_URL", "file://migrations")
	if err := db.RunMigrations(migrationsURL, cfg.Postgres.URL); err != nil {
		log.Fatalf("Error running migrations: %v", err)
	}

	pool, err := db.NewPostgresDB(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("Error connecting to postgres: %v", err)
	}
	defer pool.Close()

	eventRepo := repository.NewEventRepository(pool, logger)
	optionRepo := repository.NewTimeOptionRepository(pool, logger)
	voteRepo := repository.NewTimeVoteRepository(pool, logger)
	rsvpRepo := repository.NewRsvpRepository(pool, logger)
	personalRepo := repository.NewPersonalEventRepository(pool, logger)
	circleRepo := repository.NewCircleRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	notificationRepo := repository.NewNotificationRepository(pool, logger)
	outboxRepo := outboxRepository.NewOutboxRepository(pool, logger)

	pushSender := push.NewHTTPSender(cfg.Push, logger)
	emailSender := email.NewSMTPSender(cfg.SMTP, logger)

	votingService := service.NewVotingService(logger, eventRepo, optionRepo, voteRepo)
	conflictService := service.NewConflictService(logger, eventRepo, circleRepo, rsvpRepo, personalRepo, notificationRepo, outboxRepo)
	eventService := service.NewEventService(logger, eventRepo, optionRepo, circleRepo, rsvpRepo, notificationRepo, outboxRepo, votingService, conflictService)
	circleService := service.NewCircleService(logger, circleRepo, userRepo, outboxRepo)
	notificationService := service.NewNotificationService(logger, notificationRepo, userRepo, pushSender, emailSender)
	personalService := service.NewPersonalEventService(logger, personalRepo)

	dispatcher := worker.NewDispatcher(outboxRepo, logger, cfg.Outbox.PollingInterval, cfg.Outbox.BatchSize)
	dispatcher.RegisterHandler(outboxDomain.EventTypeProcessConflicts, conflictService.HandleProcessConflicts)
	dispatcher.RegisterHandler(outboxDomain.EventTypePushNotification, notificationService.HandlePushNotification)
	dispatcher.RegisterHandler(outboxDomain.EventTypeReminder, notificationService.HandleReminder)
	dispatcher.RegisterHandler(outboxDomain.EventTypeEmailInvitation, notificationService.HandleInvitationEmail)
	dispatcher.RegisterHandler(outboxDomain.EventTypeEmailMagicLink, notificationService.HandleMagicLinkEmail)

	go dispatcher.Start(ctx)

	app := fiber.New(fiber.Config{
		ReadTimeout: cfg.HTTP.Timeout,
	})

	app.Use(otelfiber.Middleware())

	handlers := &transport.Handlers{
		Event:         handler.NewEventHandler(eventService, votingService, eventRepo, optionRepo, logger),
		Circle:        handler.NewCircleHandler(circleService, logger),
		Notification:  handler.NewNotificationHandler(notificationService, logger),
		PersonalEvent: handler.NewPersonalEventHandler(personalService, logger),
	}

	transport.RegisterRoutes(app, handlers)

	logger.Info("Togetherly backend started!")

	go func() {
		log.Println("HTTP Service listening on: " + cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("Error listening on HTTP port %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down gracefully...")
	shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dispatcher.Stop()

	if err := app.ShutdownWithContext(shutdownContext); err != nil {
		log.Printf("Error shutting down HTTP app: %v\n", err)
	} else {
		log.Println("HTTP App stopped gracefully")
	}

	if err := tp.Shutdown(shutdownContext); err != nil {
		log.Printf("Error shutting down telemetry: %v\n", err)
	} else {
		log.Println("Telemetry stopped correctly")
	}
}
