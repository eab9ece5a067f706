// Package cli provides the command-line interface for the ledgerly worker.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/piyushxpc7/LedgerlyAI/internal/classify"
	"github.com/piyushxpc7/LedgerlyAI/internal/config"
	"github.com/piyushxpc7/LedgerlyAI/internal/db"
	"github.com/piyushxpc7/LedgerlyAI/internal/llm"
	"github.com/piyushxpc7/LedgerlyAI/internal/metrics"
	"github.com/piyushxpc7/LedgerlyAI/internal/pipeline"
	"github.com/piyushxpc7/LedgerlyAI/internal/render"
	"github.com/piyushxpc7/LedgerlyAI/internal/scheduler"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	configFile string
	verbose    bool

	// Global config and collaborators
	cfg        config.Config
	dbClient   *db.Client
	collector  *metrics.Collector
	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledgerly-worker",
	Short: "Accounting back-office reconciliation worker",
	Long: `Ledgerly worker ingests client documents (bank statements, invoice
registers, GST filings) into structured records and reconciles the bank
and invoice sides into review-ready findings and reports.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if configFile != "" {
			var err error
			cfg, err = config.LoadFile(cfg, configFile)
			if err != nil {
				return err
			}
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		logCleanup = cleanup

		collector = metrics.NewCollector()

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, logger, collector)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if collector != nil {
			snap := collector.Snapshot()
			slog.Debug("worker metrics",
				"uptime_s", snap.UptimeSeconds,
				"llm_calls", opCount(snap.LLMGenerate),
				"embed_calls", opCount(snap.Embedding),
				"db_queries", opCount(snap.DBQuery),
				"pipeline_stages", opCount(snap.PipelineStage))
		}
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logCleanup != nil {
			logCleanup()
		}
	},
}

func opCount(op *metrics.OperationSnapshot) int64 {
	if op == nil {
		return 0
	}
	return op.Count
}

// buildScheduler wires the pipelines. LLM and embedding providers are
// optional: construction failures degrade to heuristics-only operation.
func buildScheduler() *scheduler.Scheduler {
	var gen pipeline.Generator
	var clsGen classify.Generator
	if model, err := llm.NewModel(cfg, collector); err != nil {
		slog.Warn("LLM unavailable, running heuristics only", "provider", cfg.LLMProvider, "error", err)
	} else {
		gen = model
		clsGen = model
	}

	var embedder pipeline.Embedder
	if e, err := llm.NewEmbedder(cfg, collector); err != nil {
		slog.Warn("embeddings unavailable, chunks will carry zero vectors", "provider", cfg.EmbedProvider, "error", err)
	} else {
		embedder = e
	}

	ingestion := pipeline.NewIngestion(dbClient, classify.New(clsGen), gen, embedder, collector)
	reconciliation := pipeline.NewReconciliation(dbClient, gen, render.New(), cfg, collector)
	return scheduler.New(cfg, ingestion, reconciliation)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file overlaying environment values")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(wipeCmd)
}
