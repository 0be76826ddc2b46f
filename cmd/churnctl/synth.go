package main

import (
	"fmt"

	"gochurn/adapters/dataset"
	"gochurn/internal/testkit"

	"github.com/spf13/cobra"
)

func newSynthCmd() *cobra.Command {
	config := testkit.DefaultChurnConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic customer churn dataset",
		Long: `Generate customers with known hazard effects and write them as CSV or XLSX
with the same columns as the production dataset.

Example: churnctl synth --rows 5000 --out churn.xlsx --missing 0.02`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.CustomerCount <= 0 {
				return fmt.Errorf("--rows must be positive")
			}
			if config.MissingRate < 0 || config.MissingRate >= 1 {
				return fmt.Errorf("--missing must be in [0, 1)")
			}

			rows := testkit.NewChurnDataGenerator(config).Generate()
			header, cells := testkit.Table(rows)
			if err := dataset.WriteTable(out, header, cells); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d customers to %s\n", len(rows), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&config.CustomerCount, "rows", config.CustomerCount, "Number of customers")
	cmd.Flags().Int64Var(&config.Seed, "seed", config.Seed, "Random seed")
	cmd.Flags().Float64Var(&config.MissingRate, "missing", config.MissingRate, "Share of numeric cells left empty")
	cmd.Flags().Float64Var(&config.BaseHazard, "base-hazard", config.BaseHazard, "Monthly baseline churn hazard")
	cmd.Flags().IntVar(&config.MaxTenure, "max-tenure", config.MaxTenure, "Observation window in months")
	cmd.Flags().StringVar(&out, "out", "churn.csv", "Output file (.csv or .xlsx)")

	return cmd
}
