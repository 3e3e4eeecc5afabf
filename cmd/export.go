package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/jobmarket-cli/internal/dashboard"
	"github.com/sells-group/jobmarket-cli/internal/dataset"
	"github.com/sells-group/jobmarket-cli/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the dataset and its rankings to an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("read"); err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")

		ds, err := dataset.Load(cfg.Dataset.File)
		if err != nil {
			return err
		}
		f, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		records := dashboard.Apply(ds.Records, f)
		if err := export.WriteXLSX(out, records); err != nil {
			return err
		}

		zap.L().Info("export: workbook written", zap.String("path", out), zap.Int("jobs", len(records)))
		fmt.Fprintf(os.Stderr, "Wrote %d jobs to %s\n", len(records), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "jobmarket.xlsx", "output workbook path")
	exportCmd.Flags().String("role", "", "filter by role category")
	exportCmd.Flags().String("seniority", "", "filter by seniority")
	exportCmd.Flags().String("arrangement", "", "filter by work arrangement")
	rootCmd.AddCommand(exportCmd)
}
