// Package main provides the scoring server: loads a model artifact from a
// weights file or the Postgres registry, serves score requests over HTTP,
// and supports hot reload (HTTP, file watch, registry) with rollback.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"token-risk-lab/internal/api"
	"token-risk-lab/internal/model"
	"token-risk-lab/internal/observability"
	"token-risk-lab/internal/scoring"
	"token-risk-lab/internal/storage"
	pgstore "token-risk-lab/internal/storage/postgres"
	"token-risk-lab/internal/watch"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	weightsPath := flag.String("weights", os.Getenv("MODEL_WEIGHTS_PATH"), "Path to the model weights document")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (artifact registry)")
	watchWeights := flag.Bool("watch", false, "Reload the model when the weights file changes")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *weightsPath == "" && *postgresDSN == "" {
		logger.Fatal("--weights or --postgres-dsn is required to bootstrap a model")
	}
	if *watchWeights && *weightsPath == "" {
		logger.Fatal("--watch requires --weights")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Artifact registry (optional)
	var artifacts storage.ArtifactStore
	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		artifacts = pgstore.NewArtifactStore(pool)
	}

	// Bootstrap artifact: weights file first, registry otherwise
	artifact, source, err := bootstrapArtifact(ctx, *weightsPath, artifacts)
	if err != nil {
		logger.Fatalf("Failed to load bootstrap model: %v", err)
	}

	engine, err := scoring.NewEngine(artifact)
	if err != nil {
		logger.Fatalf("Bootstrap model rejected: %v", err)
	}
	observability.SetActiveVersion(engine.Version())
	logger.Printf("Serving model version %d (loaded from %s)", engine.Version(), source)

	server := api.NewServer(engine, artifacts, logger)

	// File watcher for hot reload
	if *watchWeights {
		watcher := watch.NewWatcher(*weightsPath, func(path string) error {
			a, err := model.LoadWeightsFile(path)
			if err != nil {
				observability.RecordReload("file", "error", 0, 0)
				return err
			}
			if err := engine.Reload(a); err != nil {
				observability.RecordReload("file", "error", 0, 0)
				return err
			}
			now := time.Now()
			observability.RecordReload("file", "success", engine.Version(), float64(now.Unix()))
			server.Notifier().Broadcast(api.ModelEvent{
				Event:     "reload",
				Version:   engine.Version(),
				Source:    "file",
				Timestamp: now.UTC(),
			})
			return nil
		}, log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lshortfile))

		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("Watcher stopped: %v", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: server.Routes(),
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
		server.Notifier().Close()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	logger.Printf("Starting HTTP server on %s", *listenAddr)
	err = httpServer.ListenAndServe()
	done <- err

	if err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// bootstrapArtifact loads the initial model from the weights file when
// given, the registry otherwise.
func bootstrapArtifact(ctx context.Context, weightsPath string, artifacts storage.ArtifactStore) (*model.Artifact, string, error) {
	if weightsPath != "" {
		a, err := model.LoadWeightsFile(weightsPath)
		return a, "file", err
	}

	a, err := artifacts.GetLatest(ctx)
	if err != nil {
		return nil, "registry", fmt.Errorf("load latest artifact from registry: %w", err)
	}
	return a, "registry", nil
}

// envOr returns the env var value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
