package aggregate

import (
	"sort"

	"eyedash/domain/table"

	"github.com/montanaflynn/stats"
)

// Summary describes a numeric column of the filtered subset.
type Summary struct {
	N      int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// NumericSummary computes descriptive statistics over the numeric cells
// of col. Missing and non-numeric cells are excluded; an empty or absent
// column yields the zero Summary.
func NumericSummary(t *table.Table, col string) Summary {
	if t == nil || !t.HasColumn(col) {
		return Summary{}
	}
	var data []float64
	for _, v := range t.Column(col) {
		if f, ok := v.Float(); ok {
			data = append(data, f)
		}
	}
	if len(data) == 0 {
		return Summary{}
	}
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	return Summary{N: len(data), Mean: mean, Median: median, Min: min, Max: max}
}

// MonthCount is one "YYYY-MM" bucket of a monthly trend.
type MonthCount struct {
	Month string
	Count int
}

// MonthlyCounts buckets rows passing the done predicate on predCol by the
// month of dateCol, sorted chronologically. Rows whose date fails to
// parse are skipped.
func MonthlyCounts(t *table.Table, dateCol, predCol string) []MonthCount {
	if t == nil || !t.HasColumn(dateCol) || !t.HasColumn(predCol) {
		return nil
	}
	dates := t.Column(dateCol)
	preds := t.Column(predCol)
	counts := make(map[string]int)
	for i := range dates {
		if !Done(preds[i]) {
			continue
		}
		tm, ok := table.ParseTime(dates[i])
		if !ok {
			continue
		}
		counts[tm.Format("2006-01")]++
	}
	months := make([]string, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Strings(months)
	out := make([]MonthCount, len(months))
	for i, m := range months {
		out[i] = MonthCount{Month: m, Count: counts[m]}
	}
	return out
}

// UniqueCount counts distinct non-blank values of col, the "schools
// covered" style metric.
func UniqueCount(t *table.Table, col string) int {
	if t == nil || !t.HasColumn(col) {
		return 0
	}
	seen := make(map[string]bool)
	for _, v := range t.Column(col) {
		s := v.Text()
		if s == "" || s == "nan" {
			continue
		}
		seen[s] = true
	}
	return len(seen)
}
