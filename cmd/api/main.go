package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httpapi "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mailer"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.PoolHandle(), logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	userRepo := repository.NewUserRepository(postgres.PoolHandle())
	ticketRepo := repository.NewTicketRepository(postgres.PoolHandle())
	commentRepo := repository.NewCommentRepository(postgres.PoolHandle())

	dispatcher := events.NewAsyncDispatcher(256, logger)
	defer dispatcher.Close()

	mail := buildMailer(cfg.SMTP, logger)
	notifications := service.NewNotificationService(ticketRepo, userRepo, mail, logger)
	notifications.RegisterHandlers(dispatcher)

	authSvc := service.NewAuthService(cfg.Auth, userRepo)
	ticketSvc := service.NewTicketService(ticketRepo, userRepo, dispatcher)
	commentSvc := service.NewCommentService(commentRepo, ticketRepo, dispatcher)
	dashboardSvc := service.NewDashboardService(ticketRepo, redis.Client, cfg.Redis.StatsCacheTTL(), logger)
	userSvc := service.NewUserService(userRepo)

	metrics := observability.NewMetrics()
	authMW := auth.NewAuthMiddleware(authSvc.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httpapi.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httpapi.RegisterRoutes(app, authMW, httpapi.APIHandlers{
		Auth:      handlers.NewAuthHandler(authSvc),
		Tickets:   handlers.NewTicketsHandler(ticketSvc, commentSvc),
		Users:     handlers.NewUsersHandler(userSvc),
		Dashboard: handlers.NewDashboardHandler(dashboardSvc),
		Health:    handlers.NewHealthHandler(postgres, redis, cfg.App.Version),
	})

	go func() {
		logger.Info("starting api server", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func buildMailer(cfg config.SMTPConfig, logger *zap.Logger) mailer.Mailer {
	if cfg.Host == "" {
		logger.Info("MAIL_SERVER not set; email delivery disabled")
		return mailer.NewNopMailer(logger)
	}
	return mailer.NewSMTPMailer(cfg)
}
