package cmd

import (
	"context"
	"fmt"

	"freight-reconciler/core/apiclient"
	"freight-reconciler/core/config"
	"freight-reconciler/core/database"
	"freight-reconciler/core/logger"
	"freight-reconciler/core/report"
	"freight-reconciler/feature/audit"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the compare command
	compareStart string
	compareEnd   string
)

// compareCmd runs one full reconciliation over a date window.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare API entities against the extractor database",
	Long: `Compare fetches every audited entity type from the remote API and from
the extractor database over an inclusive date window, reconciles both
sides and writes a JSON report plus a Markdown summary.

The command fails when any entity type diverges, so it can gate
deployments and scheduled checks directly on its exit status.

Examples:
  # Compare yesterday and today (the default window)
  compare

  # Compare an explicit window
  compare --start 2024-03-01 --end 2024-03-02`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareStart, "start", "", "Window start date (YYYY-MM-DD, default: day before end)")
	compareCmd.Flags().StringVar(&compareEnd, "end", "", "Window end date (YYYY-MM-DD, default: today)")

	RootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	win, err := audit.ParseWindow(compareStart, compareEnd, nil)
	if err != nil {
		return err
	}
	l.Info("Starting reconciliation",
		zap.String("start", win.StartISO()),
		zap.String("end", win.EndISO()),
	)

	// Connect to the API
	api, err := apiclient.NewClient(cfg.Api)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	// Connect to the database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	rep, err := audit.NewService(l, db, api).Run(ctx, win)
	if err != nil {
		return fmt.Errorf("reconciliation aborted: %w", err)
	}

	jsonPath, mdPath, err := rep.Write(report.NewWriter(cfg.Report))
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	l.Info("Report written",
		zap.String("json", jsonPath),
		zap.String("summary", mdPath),
	)

	if rep.Failed() {
		return fmt.Errorf("reconciliation failed: %d of %d entity types diverged (see %s)",
			rep.FailedCount(), len(rep.Entities), mdPath)
	}
	l.Info("All entity types reconciled cleanly")
	return nil
}
