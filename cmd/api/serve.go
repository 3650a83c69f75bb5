package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/maintenance-service/internal/api/http"
	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/markup"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/outbox"
	"github.com/spec-kit/maintenance-service/internal/persistence"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/service"
	"github.com/spec-kit/maintenance-service/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the notification worker",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	perms, err := auth.NewPermissions()
	if err != nil {
		return fmt.Errorf("load permissions: %w", err)
	}

	pool := pg.PoolHandle()
	profileRepo := repository.NewProfileRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	auditRepo := repository.NewAuditLogRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	expenseRepo := repository.NewExpenseRepository(pool)
	taskRepo := repository.NewPreventiveTaskRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	queue := outbox.NewRedisQueue(redis.Client, cfg.Notification.OutboxKey)

	authService := service.NewAuthService(*cfg, profileRepo, perms)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		ProfileRepo:    profileRepo,
		AuditRepo:      auditRepo,
		Permissions:    perms,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		TicketRepo:     ticketRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		AuditRepo:      auditRepo,
		Permissions:    perms,
		Renderer:       markup.NewRenderer(),
		Logger:         logger,
	})
	expenseService := service.NewExpenseService(service.ExpenseDependencies{
		TicketRepo:  ticketRepo,
		ExpenseRepo: expenseRepo,
		AuditRepo:   auditRepo,
		Permissions: perms,
		Logger:      logger,
	})
	preventiveService := service.NewPreventiveService(service.PreventiveDependencies{
		TaskRepo:      taskRepo,
		TicketService: ticketService,
		Permissions:   perms,
	})
	timelineService := service.NewTimelineService(service.TimelineDependencies{
		TicketRepo:  ticketRepo,
		AuditRepo:   auditRepo,
		ProfileRepo: profileRepo,
		Permissions: perms,
		Config:      cfg.Timeline,
		Metrics:     metrics,
		Logger:      logger,
	})

	notificationService := service.NewNotificationService(dispatcher, profileRepo, queue, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	var mailer worker.Mailer
	if m := worker.NewSMTPMailer(cfg.Notification); m != nil {
		mailer = m
	}
	delivery := worker.NewDeliveryWorker(queue, worker.NewFiberPoster(cfg.Notification.WebhookTimeout()), mailer, logger)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		delivery.Run(ctx)
	}()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, commentService, timelineService),
		Expenses:       handlers.NewExpensesHandler(expenseService),
		Preventive:     handlers.NewPreventiveHandler(preventiveService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), profileRepo),
		Permissions:    perms,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	<-workerDone
	return nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
