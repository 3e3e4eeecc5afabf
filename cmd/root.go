package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/jobmarket-cli/internal/config"
)

var (
	cfg         *config.Config
	datasetFile string
)

var rootCmd = &cobra.Command{
	Use:   "jobmarket-cli",
	Short: "Job-posting enrichment and market dashboard",
	Long:  "Fills missing role, seniority, work arrangement, and technology attributes in a job-postings CSV, then serves aggregate market statistics.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		if datasetFile != "" {
			cfg.Dataset.File = datasetFile
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&datasetFile, "file", "", "dataset CSV path (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
