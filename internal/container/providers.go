package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/benefit-casework/internal/application/dispatcher"
	"github.com/garyjia/benefit-casework/internal/application/port"
	"github.com/garyjia/benefit-casework/internal/application/service"
	"github.com/garyjia/benefit-casework/internal/application/workflow"
	"github.com/garyjia/benefit-casework/internal/domain/calculation"
	"github.com/garyjia/benefit-casework/internal/domain/event"
	"github.com/garyjia/benefit-casework/internal/infrastructure/external/simulator"
	"github.com/garyjia/benefit-casework/internal/infrastructure/persistence/repository"
	"github.com/garyjia/benefit-casework/internal/infrastructure/persistence/sqlstore"
	"github.com/garyjia/benefit-casework/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB    *database.DB
	Store *sqlstore.DB
}

// ProvideDatabase opens the configured database, applies pending migrations
// and wraps it in the transaction manager the repositories share.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Driver:          cfg.Driver,
		Path:            cfg.Path,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).RunMigrations(ctx, cfg.MigrationsDir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dialect := sqlstore.DialectSQLite
	if cfg.Driver == database.DriverPostgres {
		dialect = sqlstore.DialectPostgres
	}

	return &DatabaseBundle{
		DB:    db,
		Store: sqlstore.NewDB(db.DB, dialect, logger),
	}, nil
}

// ProvideRepositories creates all repositories on top of the store.
func ProvideRepositories(store *sqlstore.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Case:    repository.NewCaseRepository(store, logger),
		History: repository.NewHistoryRepository(store, logger),
		Offset:  repository.NewOffsetRepository(store, logger),
	}, nil
}

// ProvideSimulator returns the payment simulation client, or the local dry
// run when configured.
func ProvideSimulator(cfg *SimulationConfig, logger *zap.Logger) (port.SimulationClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("simulation config is required")
	}
	if cfg.DryRun {
		logger.Warn("Payment simulation runs locally; no overpayment will ever be reported")
		return simulator.NewDryRun(port.SystemClock, logger), nil
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("simulation url is required")
	}
	return simulator.NewClient(simulator.Config{
		BaseURL: cfg.URL,
		Timeout: cfg.Timeout,
	}, logger), nil
}

// ProvideDispatcher creates the event dispatcher with the case event log
// subscribed.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	d := dispatcher.NewDispatcher(dispatcher.WithLogger(NewLogger(logger)))
	d.SubscribeAll("case-event-log", caseEventLogger(logger))
	return d, nil
}

// EngineDeps holds dependencies for the case engine.
type EngineDeps struct {
	Repos        *RepositoryBundle
	TxManager    port.TransactionManager
	Dispatcher   dispatcher.Dispatcher
	Attestation  AttestationConfig
	Logger       *zap.Logger
	SecureLogger *zap.Logger
}

// ProvideCaseEngine creates the engine that runs case transitions.
func ProvideCaseEngine(deps *EngineDeps) (workflow.CaseEngine, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("engine dependencies are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Logger == nil || deps.SecureLogger == nil {
		return nil, fmt.Errorf("logger and secure logger are required")
	}

	opts := []workflow.EngineOption{
		workflow.WithLogger(NewLogger(deps.Logger)),
		workflow.WithSecureLogger(NewLogger(deps.SecureLogger)),
	}
	if deps.Dispatcher != nil {
		opts = append(opts, workflow.WithDispatcher(deps.Dispatcher))
	}
	if deps.Attestation.LockTimeout > 0 {
		opts = append(opts, workflow.WithLockTimeout(deps.Attestation.LockTimeout))
	}

	return workflow.NewEngine(deps.Repos.Case, deps.Repos.History, deps.TxManager, opts...), nil
}

// ServiceDeps holds dependencies for the case service.
type ServiceDeps struct {
	Engine    workflow.CaseEngine
	Repos     *RepositoryBundle
	Rates     calculation.Rates
	Simulator port.SimulationClient
	Logger    *zap.Logger
}

// ProvideCaseService creates the case service.
func ProvideCaseService(deps *ServiceDeps) (service.CaseService, error) {
	if deps == nil || deps.Engine == nil || deps.Repos == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Simulator == nil {
		return nil, fmt.Errorf("simulator is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return service.NewCaseService(
		deps.Engine,
		deps.Repos.Case,
		deps.Repos.History,
		deps.Repos.Offset,
		calculation.NewRateCalculator(deps.Rates),
		deps.Simulator,
		port.SystemClock,
		NewLogger(deps.Logger),
	), nil
}

// caseEventLogger writes every case event to the main log. Payloads only hold
// ids and statuses.
func caseEventLogger(logger *zap.Logger) dispatcher.Handler {
	return func(_ context.Context, evt *event.Event) error {
		logger.Info("Case event",
			zap.String("type", string(evt.Type)),
			zap.String("case_id", evt.CaseID.String()),
			zap.String("event_id", evt.ID),
			zap.String("correlation_id", evt.CorrelationID),
			zap.String("action", evt.GetPayloadString(event.KeyAction)),
			zap.String("previous_status", evt.GetPayloadString(event.KeyPreviousStatus)),
			zap.String("new_status", evt.GetPayloadString(event.KeyNewStatus)))
		return nil
	}
}
