package main

import (
	"context"
	"os"
	"path/filepath"

	"eduscan-api/app"
	"eduscan-api/config"
	"eduscan-api/pkg/logging"
	"eduscan-api/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "eduscanctl",
	Short:         "Administer EduScan data and models",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (overrides DATA_DIR)")
	rootCmd.PersistentFlags().String("db", "", "Path to a SQLite database (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log storage activity to stderr")

	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(summaryCmd)
}

// loadConfig applies the persistent flags on top of the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.Data.Dir = dir
		cfg.Data.ModelDir = filepath.Join(dir, "models")
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.SQLitePath = db
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *logging.StructuredLogger {
	level := logging.WarnLevel
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = logging.DebugLevel
	}
	logger := logging.NewStructuredLogger("eduscanctl", cfg.Logging.Version, level)
	logger.SetOutput(os.Stderr)
	return logger
}

// openCore loads config and storage for commands that touch records. Redis
// gets a single ping so a purge still clears cached analytics.
func openCore(cmd *cobra.Command) (*app.Core, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	m := metrics.NewCollector("eduscanctl", prometheus.NewRegistry())
	return app.Open(context.Background(), cfg, 1, newLogger(cmd, cfg), m)
}
