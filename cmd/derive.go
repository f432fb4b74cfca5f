package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/storemap/internal/camera"
	"github.com/sells-group/storemap/internal/derive"
	"github.com/sells-group/storemap/internal/filter"
	"github.com/sells-group/storemap/internal/geodata"
	"github.com/sells-group/storemap/internal/health"
)

// filterFlags are the selector values shared by derive and export.
type filterFlags struct {
	division     string
	dc           string
	onlyAssigned bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.division, "division", "All", "division (All, Northern, Southern, Eastern, Midwestern)")
	cmd.Flags().StringVar(&f.dc, "dc", geodata.AllDCs, "DC id, or ALL")
	cmd.Flags().BoolVar(&f.onlyAssigned, "only-assigned", false, "only stores assigned to the current user")
}

// state normalizes the flags the same way the live map selectors do.
func (f filterFlags) state(ds *geodata.Dataset) filter.State {
	return filter.Normalize(derive.NewOptions(ds).For, f.division, f.dc, f.onlyAssigned)
}

var (
	deriveFilter filterFlags
	deriveJSON   bool
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Print the derived view for a filter",
	Long:  "Loads the dataset and prints the visible stores and DCs, DC options, health bands and camera command for one filter state.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ds, err := geodata.Load(ctx, datasetOptions(cfg))
		if err != nil {
			return eris.Wrap(err, "derive: load dataset")
		}
		return printView(cmd.OutOrStdout(), ds, deriveFilter.state(ds), cameraOptions(cfg), deriveJSON)
	},
}

type deriveSummary struct {
	Filter    filter.State        `json:"filter"`
	DCOptions []string            `json:"dc_options"`
	Stores    int                 `json:"visible_stores"`
	DCs       []dcSummary         `json:"visible_dcs"`
	Bands     map[health.Band]int `json:"bands"`
	Camera    camera.Command      `json:"camera"`
}

type dcSummary struct {
	ID         string      `json:"dc_id"`
	Name       string      `json:"dc_name"`
	StoreCount int         `json:"store_count"`
	Rollup     *float64    `json:"rollup_health,omitempty"`
	Band       health.Band `json:"band,omitempty"`
}

func summarize(ds *geodata.Dataset, st filter.State, camOpts camera.Options) deriveSummary {
	v := derive.Derive(ds, st)
	sum := deriveSummary{
		Filter:    v.State,
		DCOptions: v.DCOptions,
		Stores:    len(v.Stores),
		Bands:     v.Bands,
		Camera:    camera.NewDirector(camOpts).Frame(ds, v),
	}
	for _, dc := range v.DCs {
		d := dcSummary{ID: dc.ID, Name: dc.DisplayName(), StoreCount: dc.StoreCount}
		if dc.HasRollup {
			h := dc.RollupHealth
			d.Rollup = &h
			d.Band = health.BandOf(h)
		}
		sum.DCs = append(sum.DCs, d)
	}
	return sum
}

func printView(w io.Writer, ds *geodata.Dataset, st filter.State, camOpts camera.Options, asJSON bool) error {
	sum := summarize(ds, st, camOpts)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(sum), "derive: encode")
	}

	fmt.Fprintf(w, "Filter:      division=%s dc=%s only_assigned=%t\n", sum.Filter.Division, sum.Filter.DC, sum.Filter.OnlyAssigned)
	fmt.Fprintf(w, "DC options:  %v\n", sum.DCOptions)
	fmt.Fprintf(w, "Stores:      %d (healthy %d, watch %d, at-risk %d)\n",
		sum.Stores, sum.Bands[health.Healthy], sum.Bands[health.Watch], sum.Bands[health.AtRisk])
	fmt.Fprintf(w, "Camera:      %s -> %s\n", sum.Camera.Kind, sum.Camera.Target)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DC\tNAME\tSTORES\tROLLUP\tBAND")
	for _, dc := range sum.DCs {
		rollup := "n/a"
		if dc.Rollup != nil {
			rollup = fmt.Sprintf("%.1f", *dc.Rollup)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", dc.ID, dc.Name, dc.StoreCount, rollup, dc.Band)
	}
	return eris.Wrap(tw.Flush(), "derive: flush")
}

func init() {
	deriveFilter.register(deriveCmd)
	deriveCmd.Flags().BoolVar(&deriveJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(deriveCmd)
}
