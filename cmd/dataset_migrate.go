package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateTarget string

var datasetMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the dataset tables",
	Long:  "Creates the stores, distribution_centers and regions tables in Postgres (with PostGIS geometry columns) or SQLite.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		driver := storeDriver(migrateTarget, cfg)

		store, closeFn, err := openDatasetStore(ctx, cfg, driver)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "dataset migrate")
		}

		zap.L().Info("dataset schema applied", zap.String("driver", driver))
		return nil
	},
}

func init() {
	datasetMigrateCmd.Flags().StringVar(&migrateTarget, "target", "", "postgres or sqlite (default from dataset.driver)")
	datasetCmd.AddCommand(datasetMigrateCmd)
}
