package aggregate

import (
	"sort"
	"strings"

	"eyedash/domain/table"

	"gonum.org/v1/gonum/stat/distuv"
)

// CrossRow is one numeric cross-tab row: category × Male/Female counts
// plus the row total.
type CrossRow struct {
	Category string
	Male     int
	Female   int
	Total    int
}

// CrossTable is a category × sex contingency table. Unseen combinations
// are 0, not absent.
type CrossTable struct {
	Label string // display name of the row dimension
	Rows  []CrossRow
}

// Empty reports whether the table has no rows.
func (c CrossTable) Empty() bool {
	return len(c.Rows) == 0
}

// CrossTab counts (category, sex) pairs over the subset. rowOrder fixes
// the row ordering and universe when given (missing categories appear
// with zeros); otherwise rows are the sorted distinct categories seen.
// Rows whose sex value does not normalize are excluded. An optional keep
// predicate restricts which rows participate (e.g. referred-only tables).
func CrossTab(subset *table.Table, rowCol, sexCol, label string, rowOrder []string, keep func(row int) bool) CrossTable {
	ct := CrossTable{Label: label}
	if subset == nil || !subset.HasColumn(rowCol) || !subset.HasColumn(sexCol) {
		return ct
	}
	cats := subset.Column(rowCol)
	sexes := subset.Column(sexCol)

	type mf struct{ m, f int }
	counts := make(map[string]*mf)
	for i := range cats {
		if keep != nil && !keep(i) {
			continue
		}
		canon, ok := NormalizeSex(sexes[i])
		if !ok {
			continue
		}
		cat := strings.TrimSpace(cats[i].Text())
		if cat == "" {
			cat = "Unknown"
		}
		cell := counts[cat]
		if cell == nil {
			cell = &mf{}
			counts[cat] = cell
		}
		if canon == "Male" {
			cell.m++
		} else {
			cell.f++
		}
	}

	order := rowOrder
	if len(order) == 0 {
		for cat := range counts {
			order = append(order, cat)
		}
		sort.Strings(order)
	}
	for _, cat := range order {
		row := CrossRow{Category: cat}
		if cell := counts[cat]; cell != nil {
			row.Male, row.Female = cell.m, cell.f
		}
		row.Total = row.Male + row.Female
		ct.Rows = append(ct.Rows, row)
	}
	return ct
}

// CompactRow is the presentation form of a cross-tab row: Male/Female as
// "count (row%)" display strings, Total kept numeric. Formatting only;
// the numeric CrossTable stays untouched.
type CompactRow struct {
	Category string
	Male     string
	Female   string
	Total    int
}

// CompactRows renders the "count (row%)" display mode.
func (c CrossTable) CompactRows() []CompactRow {
	out := make([]CompactRow, len(c.Rows))
	for i, r := range c.Rows {
		malePct, femalePct := 0.0, 0.0
		if r.Total > 0 {
			malePct = Round1(float64(r.Male) / float64(r.Total) * 100)
			femalePct = Round1(float64(r.Female) / float64(r.Total) * 100)
		}
		out[i] = CompactRow{
			Category: r.Category,
			Male:     FormatCountPct(r.Male, malePct),
			Female:   FormatCountPct(r.Female, femalePct),
			Total:    r.Total,
		}
	}
	return out
}

// tailTokens mark rows that belong at the bottom of a sorted table.
var tailTokens = map[string]bool{"": true, "nan": true, "none": true, "other": true}

// SortByTotalDesc orders rows by total descending with tail labels
// (blank/nan/none/other) last; ties break by category for stability.
func (c *CrossTable) SortByTotalDesc() {
	sort.SliceStable(c.Rows, func(i, j int) bool {
		ti := tailTokens[strings.ToLower(strings.TrimSpace(c.Rows[i].Category))]
		tj := tailTokens[strings.ToLower(strings.TrimSpace(c.Rows[j].Category))]
		if ti != tj {
			return !ti
		}
		if c.Rows[i].Total != c.Rows[j].Total {
			return c.Rows[i].Total > c.Rows[j].Total
		}
		return c.Rows[i].Category < c.Rows[j].Category
	})
}

// DropBlankRows removes rows whose label is blank/nan/none.
func (c *CrossTable) DropBlankRows() {
	kept := c.Rows[:0]
	for _, r := range c.Rows {
		l := strings.ToLower(strings.TrimSpace(r.Category))
		if l == "" || l == "nan" || l == "none" {
			continue
		}
		kept = append(kept, r)
	}
	c.Rows = kept
}

// ChiSquare runs a chi-square test of independence between the row
// categories and sex. ok=false for degenerate tables (fewer than two
// informative rows or an empty margin), where the test is undefined.
func (c CrossTable) ChiSquare() (stat, pValue float64, ok bool) {
	var rows []CrossRow
	for _, r := range c.Rows {
		if r.Total > 0 {
			rows = append(rows, r)
		}
	}
	if len(rows) < 2 {
		return 0, 0, false
	}
	grandTotal, maleTotal, femaleTotal := 0, 0, 0
	for _, r := range rows {
		grandTotal += r.Total
		maleTotal += r.Male
		femaleTotal += r.Female
	}
	if maleTotal == 0 || femaleTotal == 0 {
		return 0, 0, false
	}
	for _, r := range rows {
		for col, observed := range []int{r.Male, r.Female} {
			colTotal := maleTotal
			if col == 1 {
				colTotal = femaleTotal
			}
			expected := float64(r.Total) * float64(colTotal) / float64(grandTotal)
			diff := float64(observed) - expected
			stat += diff * diff / expected
		}
	}
	df := float64(len(rows) - 1)
	chi := distuv.ChiSquared{K: df}
	pValue = 1 - chi.CDF(stat)
	return stat, pValue, true
}
