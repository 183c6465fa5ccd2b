package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"letraz-jobboard/internal/api/handlers"
	"letraz-jobboard/internal/api/routes"
	"letraz-jobboard/internal/config"
	"letraz-jobboard/internal/extraction"
	"letraz-jobboard/internal/grpc/interceptors"
	"letraz-jobboard/internal/grpc/server"
	"letraz-jobboard/internal/logging"
	"letraz-jobboard/internal/mux"
	"letraz-jobboard/internal/platforms"
	"letraz-jobboard/internal/scheduler"
	"letraz-jobboard/internal/sink"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting Letraz job board extractor")

	registry, err := platforms.Load(cfg.Extraction.PlatformsFile)
	if err != nil {
		logger.Fatal("Failed to load platform registry", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("Platform registry loaded", map[string]interface{}{"platforms": registry.Names()})

	snk, err := sink.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create sink", map[string]interface{}{"error": err.Error(), "type": cfg.Sink.Type})
	}
	defer snk.Close()

	engine := extraction.NewFromConfig(cfg, registry, snk, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	routes.SetupRoutes(e, cfg, engine, map[string]handlers.Check{"sink": snk.Ping}, logger)

	grpcServer := server.NewServer(cfg, engine, logger)
	multiplexer := mux.NewMultiplexer(cfg, grpcServer, e, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go interceptors.StartMetricsReporting(ctx, grpcServer.Metrics(), logger, 5*time.Minute)

	var sched *scheduler.Scheduler
	if cfg.Schedule.Enabled {
		sched = scheduler.New(engine, cfg.Schedule.Spec, cfg.Schedule.Searches, logger)
		if err := sched.Start(ctx); err != nil {
			logger.Fatal("Failed to start scheduler", map[string]interface{}{"error": err.Error(), "spec": cfg.Schedule.Spec})
		}
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := multiplexer.Start(address); err != nil {
		logger.Fatal("Server failed to start", map[string]interface{}{"error": err.Error()})
	}

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	grpcServer.SetServing(false)
	if sched != nil {
		sched.Stop()
	}
	if err := multiplexer.Stop(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Server shutdown complete")
}
