package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/benefit-casework/internal/application/dispatcher"
	"github.com/garyjia/benefit-casework/internal/application/port"
	"github.com/garyjia/benefit-casework/internal/application/service"
	"github.com/garyjia/benefit-casework/internal/application/workflow"
	"github.com/garyjia/benefit-casework/internal/infrastructure/persistence/sqlstore"
	"github.com/garyjia/benefit-casework/pkg/database"
	"github.com/garyjia/benefit-casework/pkg/utils"
)

// Container manages all application dependencies and lifecycle. Components
// start in dependency order and close in reverse.
type Container struct {
	config       *Config
	logger       *zap.Logger
	secureLogger *zap.Logger

	// Infrastructure
	db           *database.DB
	store        *sqlstore.DB
	repositories *RepositoryBundle
	simulator    port.SimulationClient

	// Application
	dispatcher dispatcher.Dispatcher
	engine     workflow.CaseEngine
	cases      service.CaseService

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Case    port.CaseRepository
	History port.HistoryRepository
	Offset  port.OffsetRepository
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. Secure logger
// 2. Database, migrations and repositories
// 3. Payment simulation client
// 4. Event dispatcher and case engine
// 5. Case service
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	secure, err := utils.NewSecureLogger(c.config.Logger.SecureOutputPath)
	if err != nil {
		return fmt.Errorf("failed to open secure log: %w", err)
	}
	c.secureLogger = secure

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized", zap.String("driver", c.config.Database.Driver))

	sim, err := ProvideSimulator(&c.config.Simulation, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize simulator: %w", err)
	}
	c.simulator = sim

	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.dispatcher = disp

	engine, err := ProvideCaseEngine(&EngineDeps{
		Repos:        c.repositories,
		TxManager:    c.store,
		Dispatcher:   c.dispatcher,
		Attestation:  c.config.Attestation,
		Logger:       c.logger,
		SecureLogger: c.secureLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize case engine: %w", err)
	}
	c.engine = engine

	cases, err := ProvideCaseService(&ServiceDeps{
		Engine:    c.engine,
		Repos:     c.repositories,
		Rates:     c.config.Rates,
		Simulator: c.simulator,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize case service: %w", err)
	}
	c.cases = cases

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Pending async event handlers finish before the database goes away
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	if c.secureLogger != nil {
		_ = c.secureLogger.Sync()
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		return fmt.Errorf("container closed with %d errors: %w", len(errs), errs[0])
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Cases returns the case service.
func (c *Container) Cases() service.CaseService {
	return c.cases
}

// Engine returns the case engine.
func (c *Container) Engine() workflow.CaseEngine {
	return c.engine
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Config returns the container configuration.
func (c *Container) Config() *Config {
	return c.config
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	check := func(name string, ok bool, msg string) {
		status.Components[name] = ComponentHealth{Healthy: ok, Message: msg}
		if !ok {
			status.Overall = false
		}
	}

	switch {
	case c.db == nil:
		check("database", false, "not initialized")
	default:
		if err := c.db.PingContext(ctx); err != nil {
			check("database", false, fmt.Sprintf("ping failed: %v", err))
		} else {
			check("database", true, "")
		}
	}
	check("dispatcher", c.dispatcher != nil, messageIf(c.dispatcher == nil))
	check("engine", c.engine != nil, messageIf(c.engine == nil))
	check("repositories", c.repositories != nil, messageIf(c.repositories == nil))

	return status
}

func messageIf(missing bool) string {
	if missing {
		return "not initialized"
	}
	return ""
}

func (c *Container) initDatabase(ctx context.Context) error {
	bundle, err := ProvideDatabase(ctx, &c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.db = bundle.DB
	c.store = bundle.Store

	repos, err := ProvideRepositories(c.store, c.logger)
	if err != nil {
		_ = c.db.Close()
		return err
	}
	c.repositories = repos
	return nil
}
