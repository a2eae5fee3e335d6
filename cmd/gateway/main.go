package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pillarhq/routegate/internal/route"
	"github.com/pillarhq/routegate/internal/telemetry"
	"github.com/pillarhq/routegate/pkg/gateway"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	shutdown, err := telemetry.InitTracer("routegate", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	gw, err := gateway.New(
		gateway.WithConfigFile("config.yaml"),
		gateway.WithLogger(logger),
		gateway.WithHandler("handle_ping", pingHandler),
		gateway.WithLegacyRoute(http.MethodGet, "/ping", pingHandler),
	)
	if err != nil {
		log.Fatalf("Failed to create gateway: %v", err)
	}

	// Register this process's own routes before serving traffic.
	client := gw.RegistrationClient("routegate")
	result := client.RegisterRoutes(context.Background(), []route.Spec{
		{
			Method:      http.MethodGet,
			PathPattern: "/ping",
			HandlerRef:  "handle_ping",
			Description: "liveness probe routed through the discovered table",
		},
	})
	if len(result.Failed) > 0 {
		logger.Warn("some routes failed to register", slog.Int("failed", len(result.Failed)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := gw.Start(ctx); err != nil {
		log.Fatalf("Failed to start gateway: %v", err)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}
}

func pingHandler(ctx context.Context, req *route.Request) (*route.Response, error) {
	return route.JSON(http.StatusOK, map[string]string{"status": "ok"}), nil
}
