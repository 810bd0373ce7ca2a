// Command orchestratord is the orchestrator process entrypoint: it wires
// a Connector, ConfigLoader, Tasker and API together through the
// Conductor registry and runs the HTTP server until told to stop.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fenwicklabs/orchestrator/internal/api"
	"github.com/fenwicklabs/orchestrator/internal/conductor"
	"github.com/fenwicklabs/orchestrator/internal/configloader"
	"github.com/fenwicklabs/orchestrator/internal/connector"
	"github.com/fenwicklabs/orchestrator/internal/tasker"
)

func main() {
	debugMode := os.Getenv("DEBUG_MODE") != ""

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debugMode {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)))

	api.SetDebugDefault(debugMode)

	ctx := context.Background()

	conn, err := buildConnector()
	if err != nil {
		log.Fatalf("failed to build connector: %v", err)
	}

	cfg, err := buildConfigLoader(conn)
	if err != nil {
		log.Fatalf("failed to build configloader: %v", err)
	}

	tkr, err := buildTasker(conn, cfg)
	if err != nil {
		log.Fatalf("failed to build tasker: %v", err)
	}

	if err := tkr.AddPre("health", loggingPreHook); err != nil {
		slog.Warn("failed to register health pre-hook", "error", err)
	}

	srv, err := buildAPI(ctx, tkr, cfg)
	if err != nil {
		log.Fatalf("failed to build api: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := srv.Run(ctx)

	select {
	case <-quit:
		slog.Info("received interrupt, shutting down")
	case err := <-serverErr:
		if err != nil {
			slog.Error("api server exited with error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.GracefulShutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	slog.Info("orchestratord stopped")
}

func buildConnector() (connector.Connector, error) {
	bag := conductor.Bag{
		"host":              envOr("ORC_REDIS_HOST", "localhost"),
		"port":              6379,
		"dsn":               os.Getenv("ORC_GORM_DSN"),
		"driver":            envOr("ORC_GORM_DRIVER", "sqlite"),
		"bucket":            os.Getenv("ORC_S3_BUCKET"),
		"region":            envOr("ORC_S3_REGION", "us-east-1"),
		"endpoint":          os.Getenv("ORC_S3_ENDPOINT"),
		"access_key_id":     os.Getenv("ORC_S3_ACCESS_KEY_ID"),
		"secret_access_key": os.Getenv("ORC_S3_SECRET_ACCESS_KEY"),
	}
	built, err := conductor.Build(conductor.RoleStorage, "", bag)
	if err != nil {
		return nil, err
	}
	conn, _ := built.(connector.Connector)
	return conn, nil
}

func buildConfigLoader(conn connector.Connector) (configloader.ConfigLoader, error) {
	built, err := conductor.Build(conductor.RoleConfig, "", conductor.Bag{"connector": conn})
	if err != nil {
		return nil, err
	}
	cfg, _ := built.(configloader.ConfigLoader)
	return cfg, nil
}

func buildTasker(conn connector.Connector, cfg configloader.ConfigLoader) (tasker.Tasker, error) {
	tasks := map[string]tasker.TaskDef{
		"health": tasker.HealthDef,
	}
	bag := conductor.Bag{
		"connector":    conn,
		"configurator": cfg,
		"tasks":        tasks,
	}
	built, err := conductor.Build(conductor.RoleTasker, "", bag)
	if err != nil {
		return nil, err
	}
	tkr, _ := built.(tasker.Tasker)
	return tkr, nil
}

func buildAPI(ctx context.Context, tkr tasker.Tasker, cfg configloader.ConfigLoader) (*api.Server, error) {
	if err := cfg.InitConfig(ctx, api.Config); err != nil {
		return nil, err
	}
	built, err := conductor.Build(conductor.RoleAPI, "", conductor.Bag{
		"tasker":       tkr,
		"configurator": cfg,
	})
	if err != nil {
		return nil, err
	}
	srv, _ := built.(*api.Server)
	return srv, nil
}

func loggingPreHook(name string, args []any, kwargs map[string]any, _ any) {
	slog.Debug("task pre-execute", "name", name, "args", args, "kwargs", kwargs)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
