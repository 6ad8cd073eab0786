package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garyjia/benefit-casework/internal/config"
	"github.com/garyjia/benefit-casework/internal/container"
	httpapi "github.com/garyjia/benefit-casework/internal/interfaces/http"
	"github.com/garyjia/benefit-casework/pkg/utils"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "casework: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting benefit casework service",
		zap.String("version", version),
		zap.String("database", cfg.Database.Driver),
		zap.Bool("simulation_dry_run", cfg.Simulation.DryRun),
		zap.Int("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg.ToContainerConfig(version), logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Container close failed", zap.Error(err))
		}
	}()

	srvCfg := c.Config().Server
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:            srvCfg.Host,
		Port:            srvCfg.Port,
		ReadTimeout:     srvCfg.ReadTimeout,
		WriteTimeout:    srvCfg.WriteTimeout,
		ShutdownTimeout: srvCfg.ShutdownTimeout,
		Version:         srvCfg.Version,
	}, c.Cases(), container.NewLogger(logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	logger.Info("Server exited successfully")
	return nil
}
