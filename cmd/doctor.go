package cmd

import (
	"fmt"

	"freight-reconciler/core/config"
	"freight-reconciler/core/database"
	"freight-reconciler/core/logger"
	"freight-reconciler/feature/audit"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// doctorCmd verifies that every audited table is usable before a run.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that every audited table exists and carries the required columns",
	Long: `Doctor inspects the extractor database and verifies, for every audited
entity type, that its snapshot table exists and carries both the key
column and the metadata JSON column. Run it after deploying the
extractor or changing its schema.`,
	RunE: runDoctor,
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
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

	// Connect to the database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	entities := audit.Entities()
	unusable := 0
	for _, e := range entities {
		columns, err := database.GetTableColumns(db, e.Table)
		if err != nil {
			l.Error("Table not inspectable",
				zap.String("entity", e.Name),
				zap.String("table", e.Table),
				zap.Error(err),
			)
			unusable++
			continue
		}

		var missing []string
		for _, col := range []string{e.KeyColumn, "metadata"} {
			if !database.HasColumn(columns, col) {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			l.Error("Table missing required columns",
				zap.String("entity", e.Name),
				zap.String("table", e.Table),
				zap.Strings("missing", missing),
			)
			unusable++
			continue
		}

		l.Info("Table ok",
			zap.String("entity", e.Name),
			zap.String("table", e.Table),
			zap.Int("columns", len(columns)),
		)
	}

	if unusable > 0 {
		return fmt.Errorf("%d of %d audited tables are unusable", unusable, len(entities))
	}
	l.Info("All audited tables are usable", zap.Int("tables", len(entities)))
	return nil
}
