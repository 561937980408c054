// Package pages defines the three dashboards: their data file, logical
// column candidates, sidebar filter order, and how metric cards, charts
// and tables are computed from the filtered subset.
package pages

import (
	"fmt"
	"strconv"

	"eyedash/domain/aggregate"
	"eyedash/domain/filter"
	"eyedash/domain/resolve"
	"eyedash/domain/table"
)

// dropJunk removes the blank-ish categories every distribution drops.
var dropJunk = map[string]bool{"": true, "nan": true, "none": true, " ": true}

// MetricCard is one headline figure with an optional help line
// (typically the "M:x | F:y" split).
type MetricCard struct {
	Title string
	Value string
	Help  string
	Icon  string
	Color string
}

// ChartKind selects the presentation of a categorical distribution.
type ChartKind string

const (
	ChartPie  ChartKind = "pie"
	ChartBar  ChartKind = "bar"  // horizontal, sorted by count desc
	ChartVBar ChartKind = "vbar" // vertical, e.g. monthly trend
)

// Chart is one categorical distribution panel. Notice is set instead of
// data when the panel cannot render (missing column, no data).
type Chart struct {
	Title  string
	Kind   ChartKind
	Data   aggregate.CountTable
	Notice string
}

// TableWidget is one sex-wise cross-tab panel in compact display mode.
type TableWidget struct {
	Title   string
	Label   string // row-dimension column header
	Rows    []aggregate.CompactRow
	Notice  string
	ChiP    float64 // chi-square independence p-value, when defined
	HasChiP bool
}

// Section groups panels under a dashboard subheading.
type Section struct {
	Title  string
	Charts []Chart
	Tables []TableWidget
	Notice string // section-level "no data" notice
}

// View is everything a page render needs beyond the filter sidebar.
type View struct {
	Metrics  []MetricCard
	Sections []Section
}

// Page is one dashboard definition.
type Page struct {
	Key        string
	Title      string
	Subtitle   string
	DataFile   string
	Candidates resolve.Candidates
	Filters    []filter.Spec

	// Build computes the page view from the full table and the filtered
	// subset. It must degrade to notices, never panic, on missing data.
	Build func(full, filtered *table.Table, m resolve.Mapping) View
}

// Registry returns the dashboards in navigation order.
func Registry() []*Page {
	return []*Page{schoolPage(), pecPage(), cataractPage()}
}

// Lookup finds a page by key.
func Lookup(key string) (*Page, bool) {
	for _, p := range Registry() {
		if p.Key == key {
			return p, true
		}
	}
	return nil, false
}

// distribution builds a chart from the standard category-counts path:
// universe from full population, counts from the restricted subset.
func distribution(full, restricted *table.Table, m resolve.Mapping, logical, title string, kind ChartKind) Chart {
	c := Chart{Title: title, Kind: kind}
	col, ok := m.Col(logical)
	if !ok || full == nil || !full.HasColumn(col) {
		c.Notice = fmt.Sprintf("Column %q not found.", logical)
		return c
	}
	if restricted == nil || restricted.Empty() {
		c.Notice = "No data for current filters."
		return c
	}
	counts := aggregate.CategoryCounts(full, restricted, col, dropJunk, nil)
	c.Data = aggregate.MakeCountTable(counts)
	if c.Data.Empty() {
		c.Notice = fmt.Sprintf("No %s data for current filters.", title)
		return c
	}
	if kind == ChartBar {
		c.Data.SortByCountDesc()
	}
	return c
}

// comma renders 1234567 as "1,234,567".
func comma(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}

// pct is the guarded a/b percentage used by metric cards.
func pct(a, b int) float64 {
	if b <= 0 {
		return 0
	}
	return float64(a) / float64(b) * 100
}

// countPct renders "1,234 (56.7%)".
func countPct(n, base int) string {
	return fmt.Sprintf("%s (%.1f%%)", comma(n), pct(n, base))
}

// mfHelp renders the "M:x | F:y" card help line.
func mfHelp(male, female int) string {
	return fmt.Sprintf("M:%s | F:%s", comma(male), comma(female))
}
