package interact

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Period is the reporting window a detail view opens with.
type Period string

// Reporting periods.
const (
	WeekToDate    Period = "WTD"
	MonthToDate   Period = "MTD"
	QuarterToDate Period = "QTD"
	YearToDate    Period = "YTD"
)

// DefaultPeriod is used when none is chosen.
const DefaultPeriod = MonthToDate

// Periods lists the periods in selector order.
var Periods = []Period{WeekToDate, MonthToDate, QuarterToDate, YearToDate}

// ParsePeriod accepts a period code in any case.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", eris.Errorf("interact: unknown period %q", s)
}
