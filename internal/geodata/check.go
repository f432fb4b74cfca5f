package geodata

import (
	"fmt"
	"sort"
)

// Issue is a single data-quality finding.
type Issue struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Detail string `json:"detail"`
}

// Issue kinds reported by Check.
const (
	IssueUnknownDC        = "unknown_dc"
	IssueEmptyDC          = "empty_dc"
	IssueMissingRegion    = "missing_region"
	IssueHealthRange      = "health_out_of_range"
	IssueReturnPctRange   = "return_pct_out_of_range"
	IssueNegativeTurnover = "negative_turnover"
	IssueMissingDivision  = "dc_missing_division"
)

// Check reports data-quality issues in ds. Findings never block loading:
// the map tolerates them, but operators want to know.
func Check(ds *Dataset) []Issue {
	var issues []Issue

	for _, dc := range ds.DCs() {
		if !dc.HasRollup {
			issues = append(issues, Issue{Kind: IssueEmptyDC, ID: dc.ID, Detail: "no stores reference this DC"})
		}
		if ds.Synthesized(dc.ID) {
			issues = append(issues, Issue{Kind: IssueUnknownDC, ID: dc.ID, Detail: fmt.Sprintf("%d stores reference a DC missing from the DC source", dc.StoreCount)})
		}
		if dc.Division.IsAll() {
			issues = append(issues, Issue{Kind: IssueMissingDivision, ID: dc.ID, Detail: "DC has no division"})
		}
	}

	for _, s := range ds.Stores() {
		if s.DCID == "" {
			issues = append(issues, Issue{Kind: IssueUnknownDC, ID: s.ID, Detail: "store has no dc_id"})
		}
		if s.Health < 0 || s.Health > 100 {
			issues = append(issues, Issue{Kind: IssueHealthRange, ID: s.ID, Detail: fmt.Sprintf("health %g outside [0, 100]", s.Health)})
		}
		if s.ReturnPct != nil && (*s.ReturnPct < 0 || *s.ReturnPct > 1) {
			issues = append(issues, Issue{Kind: IssueReturnPctRange, ID: s.ID, Detail: fmt.Sprintf("return_pct %g outside [0, 1]", *s.ReturnPct)})
		}
		if s.Turnover != nil && *s.Turnover < 0 {
			issues = append(issues, Issue{Kind: IssueNegativeTurnover, ID: s.ID, Detail: fmt.Sprintf("turnover %g is negative", *s.Turnover)})
		}
	}

	for _, d := range Divisions {
		if _, ok := ds.Region(d); !ok {
			issues = append(issues, Issue{Kind: IssueMissingRegion, ID: string(d), Detail: "division has no boundary; camera falls back to national bounds"})
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Kind != issues[j].Kind {
			return issues[i].Kind < issues[j].Kind
		}
		return issues[i].ID < issues[j].ID
	})
	return issues
}
