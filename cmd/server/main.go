package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/agenthands/genrefreq/internal/config"
	"github.com/agenthands/genrefreq/internal/core"
	"github.com/agenthands/genrefreq/internal/driver"
	"github.com/agenthands/genrefreq/internal/logging"
	"github.com/agenthands/genrefreq/internal/metrics"
	"github.com/agenthands/genrefreq/internal/observability"
	"github.com/agenthands/genrefreq/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	cfg, err := config.Resolve("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.SetLevelFromString(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := observability.Init(ctx, cfg.Tracing); err != nil {
		logging.Op().Warn("tracing disabled", "error", err)
	}
	if cfg.Metrics.Enabled {
		metrics.InitPrometheus(cfg.Metrics.Namespace)
	}

	conn, err := driver.Open(ctx, cfg.Neo4j)
	if err != nil {
		log.Fatalf("Failed to connect to graph database: %v", err)
	}

	client := core.NewQueryClient(conn,
		core.WithDatabase(cfg.Neo4j.Database),
		core.WithQueryTimeout(cfg.Neo4j.QueryTimeout.Duration),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.NewServer(client).SetupRouter(),
	}

	go func() {
		logging.Op().Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Op().Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Op().Warn("http shutdown", "error", err)
	}
	if err := client.Close(shutdownCtx); err != nil {
		logging.Op().Warn("connection release failed", "error", err)
	}
	if err := observability.Shutdown(shutdownCtx); err != nil {
		logging.Op().Warn("tracing shutdown", "error", err)
	}
}
