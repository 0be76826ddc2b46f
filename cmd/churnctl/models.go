package main

import (
	"fmt"
	"text/tabwriter"

	"gochurn/domain/core"
	"gochurn/internal"
	"gochurn/internal/config"
	"gochurn/internal/migration"

	"github.com/spf13/cobra"
)

func newModelsCmd(logger func() *internal.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List and activate stored models",
	}
	cmd.AddCommand(newModelsListCmd(logger), newModelsActivateCmd(logger))
	return cmd
}

func newModelsListCmd(logger func() *internal.Logger) *cobra.Command {
	var store storeFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored models, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := store.open(ctx, logger())
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			manifests, err := c.Artifacts.List(ctx)
			if err != nil {
				return err
			}
			if len(manifests) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No models stored")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL ID\tCREATED\tROWS\tSCHEMA\tSOURCE")
			for _, m := range manifests {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					m.ModelID, m.CreatedAt.Format("2006-01-02 15:04"), m.RowsUsed, m.SchemaFingerprint.Short(), m.DatasetSource)
			}
			return w.Flush()
		},
	}
	store.register(cmd)
	return cmd
}

func newModelsActivateCmd(logger func() *internal.Logger) *cobra.Command {
	var store storeFlags

	cmd := &cobra.Command{
		Use:   "activate [model-id]",
		Short: "Make a stored model the one served by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := core.ParseModelID(args[0])
			if err != nil {
				return err
			}
			c, err := store.open(ctx, logger())
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			if err := c.Artifacts.Activate(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Model %s is active\n", id)
			return nil
		},
	}
	store.register(cmd)
	return cmd
}

func newMigrateCmd(logger func() *internal.Logger) *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL model registry tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger().WithPrefix("Migrate")

			store := storeFlags{kind: config.StorePostgres, databaseURL: databaseURL}
			// opening the postgres store runs the migrations
			c, err := store.open(ctx, log)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Schema is at version %s\n", migration.NewRunner().Version())
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", envOr("DATABASE_URL", ""), "PostgreSQL URL")
	return cmd
}
