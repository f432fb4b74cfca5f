package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/storemap/internal/derive"
	"github.com/sells-group/storemap/internal/export"
	"github.com/sells-group/storemap/internal/geodata"
)

var (
	exportFilter filterFlags
	exportOut    string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export visible stores as a health leaderboard",
	Long:  "Writes the stores visible under a filter to CSV or XLSX, sorted by health ascending.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ds, err := geodata.Load(ctx, datasetOptions(cfg))
		if err != nil {
			return eris.Wrap(err, "export: load dataset")
		}

		format := export.Format(exportFormat)
		if format == "" {
			format = export.FormatFromPath(exportOut)
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return eris.Wrapf(err, "export: create %s", exportOut)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		n, err := writeExport(w, ds, exportFilter, format)
		if err != nil {
			return err
		}
		zap.L().Info("export complete",
			zap.Int("stores", n),
			zap.String("format", string(format)),
			zap.String("out", exportOut),
		)
		return nil
	},
}

func writeExport(w io.Writer, ds *geodata.Dataset, flags filterFlags, format export.Format) (int, error) {
	rows := export.Rows(ds, derive.Derive(ds, flags.state(ds)))
	if err := export.Write(w, format, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func init() {
	exportFilter.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file (- for stdout)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "csv or xlsx (default from --out extension)")
	rootCmd.AddCommand(exportCmd)
}
