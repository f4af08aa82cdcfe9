package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/advisornet/reportd/internal/application/service"
	"github.com/advisornet/reportd/internal/config"
	"github.com/advisornet/reportd/internal/infrastructure/audit"
	"github.com/advisornet/reportd/internal/infrastructure/notification"
	"github.com/advisornet/reportd/internal/infrastructure/persistence/repository"
	"github.com/advisornet/reportd/internal/infrastructure/persistence/sqlite"
	"github.com/advisornet/reportd/internal/infrastructure/worker"
	httpadapter "github.com/advisornet/reportd/internal/interfaces/http"
	"github.com/advisornet/reportd/internal/sanitize"
	"github.com/advisornet/reportd/pkg/database"
	"github.com/advisornet/reportd/pkg/utils"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

func main() {
	// A .env file is optional; environment variables win either way.
	_ = gotenv.Load()

	// Load configuration
	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting report workflow service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(os.DirFS(cfg.Database.MigrationsDir)); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	txManager := sqlite.NewDB(db.DB, logger)
	reportRepo := repository.NewReportRepository(db.DB, logger)
	personRepo := repository.NewPersonRepository(db.DB, logger)
	orgRepo := repository.NewOrganizationRepository(db.DB, logger)
	stepRepo := repository.NewApprovalStepRepository(db.DB, logger)
	actionRepo := repository.NewApprovalActionRepository(db.DB, logger)
	commentRepo := repository.NewCommentRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)

	// Initialize notification outbox and dispatch worker
	outbox := notification.NewOutbox(notificationRepo, logger)
	dispatchWorker := notification.NewDispatchWorker(
		notification.DispatchWorkerConfig{
			PollInterval: cfg.Notifier.PollInterval,
			BatchSize:    cfg.Notifier.BatchSize,
		},
		notificationRepo,
		notification.NewLogDelivery(logger),
		outbox.Wake(),
		logger,
	)

	workerManager := worker.NewWorkerManager(logger)
	workerManager.Register(dispatchWorker)

	// Initialize application service
	serviceLogger := &zapLoggerAdapter{logger: logger}
	resolver := service.NewChainResolver(stepRepo, cfg.Workflow.SupportEmail, serviceLogger)
	reportService := service.NewReportService(
		reportRepo,
		personRepo,
		orgRepo,
		stepRepo,
		actionRepo,
		commentRepo,
		txManager,
		resolver,
		outbox,
		audit.NewLogger(logger),
		sanitize.New(),
		cfg.Workflow.DefaultApprovalOrgUUID,
		serviceLogger,
	)

	// Initialize HTTP server
	server := httpadapter.NewServer(
		httpadapter.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		reportService,
		personRepo,
		serviceLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	cancel()

	if err := workerManager.StopAll(); err != nil {
		logger.Error("Failed to stop workers", zap.Error(err))
	}
	if err := server.Stop(); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// configPath returns the configuration file path, overridable via CONFIG_PATH
func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

// zapLoggerAdapter adapts zap.Logger to the service.Logger interface.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts alternating key/value pairs to zap fields
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
