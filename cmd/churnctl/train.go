package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gochurn/adapters/dataset"
	"gochurn/app"
	"gochurn/internal"
	"gochurn/internal/report"
	"gochurn/internal/survival"
	"gochurn/ports"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newTrainCmd(logger func() *internal.Logger) *cobra.Command {
	var (
		store      storeFlags
		dataPath   string
		sqlDSN     string
		sqlTable   string
		reportPath string
		activate   bool
		maxIter    int
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a proportional-hazards churn model and store the artifact",
		Long: `Fit a Cox proportional-hazards model on historical customer data.

The dataset is read from a CSV or XLSX file (--data) or from a SQL table
(--sql-dsn and --sql-table; postgres, mysql and sqlite DSNs are supported).
Nothing is stored when the fit fails to converge.

Example: churnctl train --data customer_churn_dataset.csv --out ./models --report report.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger()

			reader, closeReader, err := openDatasetReader(cmd, dataPath, sqlDSN, sqlTable, log)
			if err != nil {
				return err
			}
			defer closeReader()

			c, err := store.open(ctx, log)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			opts := survival.DefaultFitOptions()
			if maxIter > 0 {
				opts.MaxIterations = maxIter
			}
			var bar *progressbar.ProgressBar
			if !quiet {
				bar = newFitProgress(cmd.ErrOrStderr(), opts.MaxIterations)
				opts.OnIteration = func(iteration int, logLikelihood float64) {
					bar.Describe(fmt.Sprintf("fitting (log-likelihood %.3f)", logLikelihood))
					_ = bar.Add(1)
				}
			}

			result, err := c.TrainingService().Train(ctx, app.TrainingRequest{
				Reader:   reader,
				Activate: activate,
				Fit:      opts,
			})
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				return err
			}

			printTrainingSummary(cmd.OutOrStdout(), result)

			if reportPath != "" {
				if err := writeReport(reportPath, result); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", reportPath)
			}
			return nil
		},
	}

	store.register(cmd)
	cmd.Flags().StringVar(&dataPath, "data", "", "Training dataset (.csv or .xlsx)")
	cmd.Flags().StringVar(&sqlDSN, "sql-dsn", "", "Read the dataset from this database instead of a file")
	cmd.Flags().StringVar(&sqlTable, "sql-table", "customer_churn", "Table holding the dataset when --sql-dsn is set")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a training report (.html or .md)")
	cmd.Flags().BoolVar(&activate, "activate", true, "Serve the new model by default")
	cmd.Flags().IntVar(&maxIter, "max-iter", 0, "Maximum Newton-Raphson iterations (default 50)")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Hide the progress bar")

	return cmd
}

func openDatasetReader(cmd *cobra.Command, dataPath, sqlDSN, sqlTable string, log *internal.Logger) (ports.DatasetReader, func(), error) {
	switch {
	case sqlDSN != "":
		reader, err := dataset.OpenSQLReader(cmd.Context(), sqlDSN, sqlTable, log)
		if err != nil {
			return nil, nil, err
		}
		return reader, func() { reader.Close() }, nil
	case dataPath != "":
		return dataset.NewFileReader(dataPath, log), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("either --data or --sql-dsn is required")
	}
}

func newFitProgress(w io.Writer, maxIterations int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxIterations,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("fitting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

func printTrainingSummary(w io.Writer, result *app.TrainingResult) {
	a := result.Artifact
	s := a.Model.Summary

	fmt.Fprintf(w, "\n📊 Model %s\n", a.Manifest.ModelID)
	fmt.Fprintf(w, "Dataset: %s (%d rows used, %d dropped)\n", a.Manifest.DatasetSource, a.Manifest.RowsUsed, a.Manifest.RowsDropped)
	fmt.Fprintf(w, "Events: %d of %d, iterations: %d, runtime: %v\n", s.Events, s.Observations, s.Iterations, result.Runtime.Round(time.Millisecond))
	fmt.Fprintf(w, "Concordance: %.3f, LR test: %.2f (p = %.3g)\n\n", s.Concordance, s.LRTestStatistic, s.LRTestPValue)

	fmt.Fprintf(w, "%-30s %10s %10s %10s\n", "covariate", "coef", "exp(coef)", "p")
	for _, c := range s.Coefficients {
		fmt.Fprintf(w, "%-30s %10.4f %10.4f %10.3g\n", c.Name, c.Coef, c.HazardRatio, c.PValue)
	}
	if km := a.KaplanMeier; km != nil && km.Median != nil {
		fmt.Fprintf(w, "\nKaplan-Meier median tenure: %.2f\n", *km.Median)
	}
}

func writeReport(path string, result *app.TrainingResult) error {
	var content []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		content = []byte(report.Markdown(result.Artifact, result.Profile))
	case ".html", ".htm":
		content = report.HTML(result.Artifact, result.Profile)
	default:
		return fmt.Errorf("unsupported report format: %s", path)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
