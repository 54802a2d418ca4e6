package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/platform/postgres"
	"github.com/phrazzld/taskhub-api/internal/realtime"
	"github.com/phrazzld/taskhub-api/internal/service"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// application holds the shared dependencies of the server: configuration,
// the database handle, the realtime transport and the service layer. It is
// assembled once at startup and torn down by cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	sessionStore store.SessionStore

	registry   *realtime.Registry
	dispatcher *realtime.Dispatcher
	wsHandler  *realtime.Handler

	taskService         service.TaskService
	channelService      service.ChannelService
	notificationService service.NotificationService
}

// newApplication connects to the database, applies migrations and builds
// the store, realtime and service graph. On any failure the database
// handle is closed before returning.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	if err := postgres.MigrateUp(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	taskStore := postgres.NewPostgresTaskStore(db)
	historyStore := postgres.NewPostgresHistoryStore(db)
	channelStore := postgres.NewPostgresChannelStore(db)
	notificationStore := postgres.NewPostgresNotificationStore(db)
	sessionStore := postgres.NewPostgresSessionStore(db)
	userStore := postgres.NewPostgresUserStore(db)

	executor := store.NewRetryExecutor(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay)

	registry := realtime.NewRegistry()
	dispatcher := realtime.NewDispatcher(registry, logger)
	wsHandler := realtime.NewHandler(sessionStore, registry, cfg.Realtime, logger)

	notificationService, err := service.NewNotificationService(
		notificationStore,
		userStore,
		dispatcher,
		registry,
		executor,
		logger,
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create notification service: %w", err)
	}

	taskService, err := service.NewTaskService(
		db,
		executor,
		taskStore,
		historyStore,
		notificationService,
		logger,
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	channelService, err := service.NewChannelService(
		db,
		executor,
		channelStore,
		notificationService,
		dispatcher,
		logger,
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create channel service: %w", err)
	}

	return &application{
		config:              cfg,
		logger:              logger,
		db:                  db,
		sessionStore:        sessionStore,
		registry:            registry,
		dispatcher:          dispatcher,
		wsHandler:           wsHandler,
		taskService:         taskService,
		channelService:      channelService,
		notificationService: notificationService,
	}, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
