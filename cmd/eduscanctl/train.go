package main

import (
	"fmt"
	"os"

	"eduscan-api/scoring"

	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit a scaler and classifier for a variant from a labeled CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		variant, _ := cmd.Flags().GetString("variant")
		csvPath, _ := cmd.Flags().GetString("csv")
		if csvPath == "" {
			return fmt.Errorf("--csv is required")
		}
		spec, err := scoring.Lookup(scoring.Variant(variant))
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		f, err := os.Open(csvPath)
		if err != nil {
			return err
		}
		defer f.Close()
		set, err := scoring.ReadTrainingCSV(f, spec)
		if err != nil {
			return err
		}

		opts := scoring.DefaultTrainOptions()
		if n, _ := cmd.Flags().GetInt("iterations"); n > 0 {
			opts.Iterations = n
		}
		scaler, model, err := scoring.Fit(set, opts)
		if err != nil {
			return err
		}
		if err := scoring.SaveArtifacts(cfg.Data.ModelDir, spec.Name, scaler, model); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "trained %s on %d rows; artifacts in %s\n", spec.Name, len(set.Rows), cfg.Data.ModelDir)
		return nil
	},
}

func init() {
	trainCmd.Flags().String("variant", string(scoring.VariantAssessment), "assessment or screening")
	trainCmd.Flags().String("csv", "", "Labeled training CSV")
	trainCmd.Flags().Int("iterations", 0, "Gradient descent iterations (0 keeps the default)")
}
