// Package aggregate computes the descriptive statistics behind every
// dashboard widget: category counts with stable denominators, count
// tables with percentages, sex cross-tabs, and the boolean-like
// coercions used by "X done" metrics. Everything here is purely
// functional and degrades to empty/zero results instead of erroring
// when columns are missing or data is empty.
package aggregate

import (
	"fmt"
	"math"
	"sort"

	"eyedash/domain/table"
)

// CategoryCount is one row of a categorical distribution.
type CategoryCount struct {
	Category string
	Count    int
}

// CategoryCounts counts categories of col in the restricted subset while
// taking the category universe from the full population: categories
// present in full but absent from restricted still appear with count 0,
// preserving denominators when a filter empties a category. Values in
// drop or exclude are removed from both universe and counts.
func CategoryCounts(full, restricted *table.Table, col string, drop, exclude map[string]bool) []CategoryCount {
	if full == nil || restricted == nil || !full.HasColumn(col) {
		return nil
	}
	skip := func(s string) bool {
		return drop[s] || exclude[s]
	}

	universe := make(map[string]bool)
	for _, v := range full.Column(col) {
		s := v.Text()
		if skip(s) {
			continue
		}
		universe[s] = true
	}
	if len(universe) == 0 {
		return nil
	}

	counts := make(map[string]int, len(universe))
	if restricted.HasColumn(col) {
		for _, v := range restricted.Column(col) {
			s := v.Text()
			if skip(s) {
				continue
			}
			counts[s]++
		}
	}

	cats := make([]string, 0, len(universe))
	for c := range universe {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	out := make([]CategoryCount, len(cats))
	for i, c := range cats {
		out[i] = CategoryCount{Category: c, Count: counts[c]}
	}
	return out
}

// CountRow is a count table row: category, count, percentage-of-total.
type CountRow struct {
	Category   string
	Count      int
	Percentage float64
	Label      string // "count (pct%)", for bar charts
}

// CountTable is the Category/Count/Percentage table fed to charts.
type CountTable struct {
	Rows []CountRow
}

// Total sums the counts.
func (t CountTable) Total() int {
	sum := 0
	for _, r := range t.Rows {
		sum += r.Count
	}
	return sum
}

// Empty reports whether the table has no rows.
func (t CountTable) Empty() bool {
	return len(t.Rows) == 0
}

// SortByCountDesc orders rows by count descending, category ascending on
// ties, freezing the bar-chart ordering.
func (t *CountTable) SortByCountDesc() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		if t.Rows[i].Count != t.Rows[j].Count {
			return t.Rows[i].Count > t.Rows[j].Count
		}
		return t.Rows[i].Category < t.Rows[j].Category
	})
}

// MakeCountTable turns raw counts into a count table with percentages
// rounded to one decimal. A zero total yields an empty table, the defined
// edge case, not a divide-by-zero.
func MakeCountTable(counts []CategoryCount) CountTable {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	if total == 0 {
		return CountTable{}
	}
	rows := make([]CountRow, len(counts))
	for i, c := range counts {
		pct := Round1(float64(c.Count) / float64(total) * 100)
		rows[i] = CountRow{
			Category:   c.Category,
			Count:      c.Count,
			Percentage: pct,
			Label:      FormatCountPct(c.Count, pct),
		}
	}
	return CountTable{Rows: rows}
}

// Round1 rounds to one decimal place.
func Round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// FormatCountPct renders the "123 (45.6%)" display label.
func FormatCountPct(count int, pct float64) string {
	return fmt.Sprintf("%d (%.1f%%)", count, pct)
}
