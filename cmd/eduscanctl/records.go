package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"eduscan-api/services"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove predictions and observations older than --days",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		if days < 0 {
			return fmt.Errorf("--days must not be negative")
		}
		core, err := openCore(cmd)
		if err != nil {
			return err
		}
		defer core.Close()

		report, err := core.Records.Purge(cmd.Context(), days)
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d predictions and %d observations older than %s\n",
			report.Predictions, report.Observations, report.Cutoff)
		return err
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write predictions or observations to a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("type")
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		if format != "csv" && format != "xlsx" {
			return fmt.Errorf("--format must be csv or xlsx")
		}
		core, err := openCore(cmd)
		if err != nil {
			return err
		}
		defer core.Close()

		table, name, err := core.Records.Export(cmd.Context(), kind, format)
		if err != nil {
			return err
		}
		path := filepath.Join(out, name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if format == "xlsx" {
			err = table.WriteXLSX(f)
		} else {
			err = table.WriteCSV(f)
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(table.Rows), path)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print record counts and latest timestamps",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := openCore(cmd)
		if err != nil {
			return err
		}
		defer core.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(core.Records.Summary(cmd.Context()))
	},
}

func init() {
	purgeCmd.Flags().Int("days", 90, "Age in days; older records are removed")
	exportCmd.Flags().String("type", services.ExportPredictions, "predictions or observations")
	exportCmd.Flags().String("format", "csv", "csv or xlsx")
	exportCmd.Flags().String("out", ".", "Output directory")
}
