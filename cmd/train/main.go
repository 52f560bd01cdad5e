// Package main provides the training CLI: loads labeled token examples
// from a CSV file or ClickHouse, trains the rug-pull risk model, exports
// the weights and metrics documents, and optionally publishes the
// artifact to the Postgres registry.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"token-risk-lab/internal/dataset"
	"token-risk-lab/internal/domain"
	"token-risk-lab/internal/model"
	"token-risk-lab/internal/observability"
	"token-risk-lab/internal/reporting"
	"token-risk-lab/internal/storage/clickhouse"
	pgstore "token-risk-lab/internal/storage/postgres"
	"token-risk-lab/internal/training"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	dataPath := flag.String("data", "", "Path to labeled training CSV")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (load examples from labeled_examples)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (publish artifact to registry)")
	outputDir := flag.String("output", "output", "Output directory for model documents")
	testSize := flag.Float64("test-size", 0.2, "Held-out test fraction")
	seed := flag.Int64("seed", dataset.DefaultSeed, "Random seed for the stratified split")
	cvFolds := flag.Int("cv-folds", 5, "Number of cross-validation folds")
	writeReport := flag.Bool("report", true, "Write TRAINING_REPORT.md alongside the model documents")

	flag.Parse()

	logger := log.New(os.Stdout, "[train] ", log.LstdFlags|log.Lshortfile)

	if *dataPath == "" && *clickhouseDSN == "" {
		logger.Fatal("--data or --clickhouse-dsn is required")
	}

	ctx := context.Background()
	start := time.Now()

	examples, err := loadExamples(ctx, *dataPath, *clickhouseDSN, logger)
	if err != nil {
		observability.RecordTrainingRun("error", time.Since(start).Seconds())
		logger.Fatalf("Failed to load training data: %v", err)
	}

	cfg := training.DefaultConfig()
	cfg.TestFraction = *testSize
	cfg.Seed = *seed
	cfg.CVFolds = *cvFolds
	cfg.Logger = logger

	result, err := training.Run(examples, cfg)
	if err != nil {
		observability.RecordTrainingRun("error", time.Since(start).Seconds())
		logger.Fatalf("Training failed: %v", err)
	}

	if err := model.WriteDocuments(result.Artifact, *outputDir); err != nil {
		observability.RecordTrainingRun("error", time.Since(start).Seconds())
		logger.Fatalf("Failed to write model documents: %v", err)
	}
	logger.Printf("Model documents written to %s/", *outputDir)

	// Publish to the registry if configured
	var version int64
	if *postgresDSN != "" {
		version, err = publishArtifact(ctx, *postgresDSN, result.Artifact)
		if err != nil {
			logger.Fatalf("Failed to publish artifact: %v", err)
		}
		observability.RecordRegistryPublish()
		logger.Printf("Published artifact as version %d", version)
	}

	if *writeReport {
		report := reporting.FromResult(result, version)
		if err := reporting.WriteReport(report, *outputDir); err != nil {
			logger.Fatalf("Failed to write training report: %v", err)
		}
		logger.Printf("Training report written to %s/%s", *outputDir, reporting.ReportFileName)
	}

	observability.RecordTrainingRun("success", time.Since(start).Seconds())
	printSummary(result)
}

// loadExamples loads the labeled dataset from CSV or ClickHouse.
func loadExamples(ctx context.Context, dataPath, clickhouseDSN string, logger *log.Logger) ([]domain.LabeledExample, error) {
	if dataPath != "" {
		logger.Printf("Loading training data from %s", dataPath)
		return dataset.LoadCSV(dataPath)
	}

	logger.Println("Loading training data from ClickHouse")
	conn, err := clickhouse.NewConn(ctx, clickhouseDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	defer conn.Close()

	return clickhouse.NewExampleStore(conn).GetAll(ctx)
}

// publishArtifact stores the artifact in the Postgres registry and returns
// its assigned version.
func publishArtifact(ctx context.Context, dsn string, a *model.Artifact) (int64, error) {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return 0, fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	return pgstore.NewArtifactStore(pool).Publish(ctx, a)
}

// printSummary prints the human-readable training summary.
func printSummary(r *training.Result) {
	fmt.Println()
	fmt.Println("=== Training Summary ===")
	fmt.Printf("Samples:                 %d (%d rug pulls, %d legitimate)\n", r.Samples, r.Positives, r.Negatives)
	fmt.Printf("Test AUC-ROC:            %.4f\n", r.AUCROC)
	fmt.Printf("CV AUC-ROC:              %.4f (+/- %.4f)\n", r.CVMean, 2*r.CVStd)
	fmt.Printf("Precision @ 90%% recall:  %.4f\n", r.PrecisionAt90Recall)
	fmt.Println()

	fmt.Println("Top features:")
	top := r.TopFeatures
	if len(top) > 5 {
		top = top[:5]
	}
	for i, fw := range top {
		fmt.Printf("  %d. %-22s %.6f\n", i+1, fw.Name, fw.Weight)
	}
	fmt.Println()

	fmt.Println("Confusion matrix (threshold 0.5):")
	fmt.Printf("  TN=%d  FP=%d\n", r.Confusion.TrueNegatives, r.Confusion.FalsePositives)
	fmt.Printf("  FN=%d  TP=%d\n", r.Confusion.FalseNegatives, r.Confusion.TruePositives)
	fmt.Println()

	fmt.Println("Classification report:")
	fmt.Printf("  %-12s %-10s %-10s %-10s %s\n", "class", "precision", "recall", "f1", "support")
	names := [2]string{"legitimate", "rug_pull"}
	for i, rep := range r.ClassReports {
		fmt.Printf("  %-12s %-10.4f %-10.4f %-10.4f %d\n", names[i], rep.Precision, rep.Recall, rep.F1, rep.Support)
	}
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
