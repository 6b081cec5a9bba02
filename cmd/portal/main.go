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
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mailer"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/storage"
)

// The portal binary serves the public, email-correlated surface. It
// shares the database with the api binary but exposes no staff routes.
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

	store, err := storage.NewLocalStore(cfg.Storage.AttachmentDir)
	if err != nil {
		logger.Fatal("attachment store init failed", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(postgres.PoolHandle())
	ticketRepo := repository.NewTicketRepository(postgres.PoolHandle())
	commentRepo := repository.NewCommentRepository(postgres.PoolHandle())
	attachmentRepo := repository.NewAttachmentRepository(postgres.PoolHandle())

	dispatcher := events.NewAsyncDispatcher(256, logger)
	defer dispatcher.Close()

	mail := buildMailer(cfg.SMTP, logger)
	notifications := service.NewNotificationService(ticketRepo, userRepo, mail, logger)
	notifications.RegisterHandlers(dispatcher)

	ticketSvc := service.NewTicketService(ticketRepo, userRepo, dispatcher)
	commentSvc := service.NewCommentService(commentRepo, ticketRepo, dispatcher)
	attachmentSvc := service.NewAttachmentService(attachmentRepo, ticketRepo, store)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name + "-portal",
		DisableStartupMessage: true,
	})
	httpapi.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httpapi.RegisterPortalRoutes(app,
		handlers.NewPortalHandler(ticketSvc, commentSvc, attachmentSvc),
		handlers.NewHealthHandler(postgres, nil, cfg.App.Version))

	go func() {
		logger.Info("starting portal server", zap.String("addr", cfg.App.Addr()))
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
