package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/storemap/internal/geodata"
)

var checkStrict bool

var datasetCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report dataset quality issues",
	Long:  "Loads the configured dataset and lists unknown DC references, DCs without stores, divisions without regions and out-of-range metrics.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ds, err := geodata.Load(ctx, datasetOptions(cfg))
		if err != nil {
			return eris.Wrap(err, "dataset check: load")
		}

		issues := geodata.Check(ds)
		if err := printIssues(cmd.OutOrStdout(), ds.Summary(), issues); err != nil {
			return err
		}
		if checkStrict && len(issues) > 0 {
			return eris.Errorf("dataset check: %d issues", len(issues))
		}
		return nil
	},
}

func printIssues(w io.Writer, sum geodata.Summary, issues []geodata.Issue) error {
	fmt.Fprintf(w, "Stores: %d  DCs: %d  Regions: %d  Assigned: %d\n", sum.Stores, sum.DCs, sum.Regions, sum.Assigned)
	fmt.Fprintf(w, "Fingerprint: %s\n\n", sum.Fingerprint)
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tDETAIL")
	for _, is := range issues {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", is.Kind, is.ID, is.Detail)
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "dataset check: flush")
	}
	fmt.Fprintf(w, "\n%d issues\n", len(issues))
	return nil
}

func init() {
	datasetCheckCmd.Flags().BoolVar(&checkStrict, "strict", false, "exit non-zero when any issue is found")
	datasetCmd.AddCommand(datasetCheckCmd)
}
