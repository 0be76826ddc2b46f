package main

import (
	"context"
	"fmt"
	"os"

	"gochurn/internal"
	"gochurn/internal/config"
	"gochurn/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// a missing .env is fine; flags and the environment still apply
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// storeFlags select the model artifact repository shared by every subcommand
type storeFlags struct {
	kind        string
	dir         string
	databaseURL string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "store", envOr("MODEL_STORE", config.StoreFilesystem), "Model store: fs|postgres")
	cmd.Flags().StringVar(&f.dir, "out", envOr("MODEL_DIR", "./models"), "Model directory for the fs store")
	cmd.Flags().StringVar(&f.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL URL for the postgres store")
}

// open builds a container around the selected store
func (f *storeFlags) open(ctx context.Context, logger *internal.Logger) (*container.Container, error) {
	cfg := &config.Config{
		Store:    config.StoreConfig{Kind: f.kind, Dir: f.dir},
		Database: config.DatabaseConfig{URL: f.databaseURL},
	}
	if f.kind != config.StoreFilesystem && f.kind != config.StorePostgres {
		return nil, fmt.Errorf("unknown store %q (use fs or postgres)", f.kind)
	}
	c, err := container.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := c.InitStore(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "churnctl",
		Short:         "Train, inspect and query customer churn survival models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "INFO"), "Log level: ERROR|WARN|INFO|DEBUG|TRACE")

	logger := func() *internal.Logger {
		return internal.NewLogger(internal.ParseLogLevel(logLevel))
	}

	rootCmd.AddCommand(
		newTrainCmd(logger),
		newPredictCmd(logger),
		newModelsCmd(logger),
		newMigrateCmd(logger),
		newSynthCmd(),
	)
	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
