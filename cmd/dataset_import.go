package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/storemap/internal/geodata"
)

var (
	importTarget   string
	importGenerate bool
)

var datasetImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load GeoJSON files into the database",
	Long:  "Reads the configured GeoJSON (or shapefile) dataset and replaces the database tables with it. Tables are migrated first.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var ds *geodata.Dataset
		if importGenerate {
			ds = geodata.Generate(generateOpts)
		} else {
			opts := datasetOptions(cfg)
			opts.Driver = "geojson"
			var err error
			ds, err = geodata.Load(ctx, opts)
			if err != nil {
				return eris.Wrap(err, "dataset import: read files")
			}
		}

		driver := storeDriver(importTarget, cfg)
		store, closeFn, err := openDatasetStore(ctx, cfg, driver)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "dataset import: migrate")
		}
		counts, err := store.Import(ctx, ds)
		if err != nil {
			return eris.Wrap(err, "dataset import")
		}

		zap.L().Info("dataset imported",
			zap.String("driver", driver),
			zap.Int64("stores", counts.Stores),
			zap.Int64("dcs", counts.DCs),
			zap.Int64("regions", counts.Regions),
			zap.String("fingerprint", ds.Fingerprint()),
		)
		return nil
	},
}

func init() {
	datasetImportCmd.Flags().StringVar(&importTarget, "target", "", "postgres or sqlite (default from dataset.driver)")
	datasetImportCmd.Flags().BoolVar(&importGenerate, "generate", false, "import a generated mock dataset instead of files")
	datasetCmd.AddCommand(datasetImportCmd)
}
