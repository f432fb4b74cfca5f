// Package export writes a derived view's visible stores as a leaderboard,
// worst health first.
package export

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/storemap/internal/derive"
	"github.com/sells-group/storemap/internal/geodata"
	"github.com/sells-group/storemap/internal/health"
)

// Format is an output file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the format from a file extension, defaulting to CSV.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Header is the column order of every export.
var Header = []string{
	"rank", "store_id", "store_name", "division", "dc_id", "dc_name",
	"health", "band", "turnover", "return_pct", "assigned",
}

// Row is one exported store.
type Row struct {
	Rank      int
	Store     geodata.Store
	DCName    string
	Band      health.Band
	Turnover  *float64
	ReturnPct *float64
}

// Rows orders the view's stores by health ascending, ties by store id.
func Rows(ds *geodata.Dataset, v derive.View) []Row {
	stores := make([]geodata.Store, len(v.Stores))
	copy(stores, v.Stores)
	sort.SliceStable(stores, func(i, j int) bool {
		if stores[i].Health != stores[j].Health {
			return stores[i].Health < stores[j].Health
		}
		return stores[i].ID < stores[j].ID
	})

	rows := make([]Row, len(stores))
	for i, s := range stores {
		dcName := s.DCID
		if dc, ok := ds.DC(s.DCID); ok {
			dcName = dc.DisplayName()
		}
		rows[i] = Row{
			Rank:      i + 1,
			Store:     s,
			DCName:    dcName,
			Band:      health.BandOf(s.Health),
			Turnover:  s.Turnover,
			ReturnPct: s.ReturnPct,
		}
	}
	return rows
}

// Write encodes rows to w in format f.
func Write(w io.Writer, f Format, rows []Row) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, rows)
	default:
		return eris.Errorf("export: unknown format %q", f)
	}
}

// WriteCSV writes rows as CSV with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, r := range rows {
		if err := cw.Write(r.strings()); err != nil {
			return eris.Wrapf(err, "export: write csv row %s", r.Store.ID)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes rows to a single "Stores" sheet with numeric cells for
// the metrics so spreadsheets can sort and chart them.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Stores")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.Rank)
		row.AddCell().SetString(r.Store.ID)
		row.AddCell().SetString(r.Store.DisplayName())
		row.AddCell().SetString(string(r.Store.Division))
		row.AddCell().SetString(r.Store.DCID)
		row.AddCell().SetString(r.DCName)
		row.AddCell().SetFloat(r.Store.Health)
		row.AddCell().SetString(r.Band.Label())
		optionalFloat(row.AddCell(), r.Turnover)
		optionalFloat(row.AddCell(), r.ReturnPct)
		row.AddCell().SetBool(r.Store.Assigned)
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

func optionalFloat(c *xlsx.Cell, v *float64) {
	if v == nil {
		c.SetString("")
		return
	}
	c.SetFloat(*v)
}

func (r Row) strings() []string {
	return []string{
		strconv.Itoa(r.Rank),
		r.Store.ID,
		r.Store.DisplayName(),
		string(r.Store.Division),
		r.Store.DCID,
		r.DCName,
		formatFloat(&r.Store.Health),
		r.Band.Label(),
		formatFloat(r.Turnover),
		formatFloat(r.ReturnPct),
		strconv.FormatBool(r.Store.Assigned),
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
