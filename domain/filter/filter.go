// Package filter implements the cascading sidebar filters shared by every
// dashboard page: an ordered list of filter specs applied conjunctively,
// each narrowing the working subset and contributing a summary chip.
package filter

import (
	"sort"
	"strings"
	"time"

	"eyedash/domain/resolve"
	"eyedash/domain/table"
)

// Kind selects the filter widget behavior.
type Kind string

const (
	KindDate        Kind = "date"
	KindMultiselect Kind = "multiselect"
)

// UnknownCategory is the literal category used for missing values in
// multiselect filters.
const UnknownCategory = "unknown"

// Spec describes one filter in page order.
type Spec struct {
	Key        string // logical column key, resolved through the mapping
	Label      string // display label, used on the chip
	Kind       Kind
	SessionKey string // optional stable id for persisted selection state
}

// StateKey returns the key under which this filter's selection lives.
func (s Spec) StateKey() string {
	if s.SessionKey != "" {
		return s.SessionKey
	}
	return s.Key
}

// DateRange is an inclusive (start, end) day pair.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Selection is one filter's current value: a date pair or a category set.
type Selection struct {
	Dates      *DateRange `json:"dates,omitempty"`
	Categories []string   `json:"categories,omitempty"`
}

// State maps state keys to current selections.
type State map[string]Selection

// Clone returns a deep copy; State travels through the session layer.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, sel := range s {
		cp := Selection{}
		if sel.Dates != nil {
			d := *sel.Dates
			cp.Dates = &d
		}
		if sel.Categories != nil {
			cp.Categories = append([]string(nil), sel.Categories...)
		}
		out[k] = cp
	}
	return out
}

// Chip summarizes one active filter for the header row.
type Chip struct {
	Key   string
	Label string
	Value string
}

// Option is a selectable category with its occurrence count in the
// filtered-so-far subset.
type Option struct {
	Value string
	Count int
}

// Result is the outcome of applying the filter cascade.
type Result struct {
	Table   *table.Table
	Chips   []Chip
	Options map[string][]Option  // per state key, multiselect filters only
	Bounds  map[string]DateRange // per state key, date filters only
}

// DefaultState derives the data-driven defaults for a page: the full
// (min, max) date range and an empty category selection per filter. An
// empty category selection means "no restriction". Used both on first
// render and by the clear action.
func DefaultState(t *table.Table, mapping resolve.Mapping, specs []Spec) State {
	state := make(State, len(specs))
	for _, spec := range specs {
		sel := Selection{}
		if spec.Kind == KindDate {
			if col, ok := mapping.Col(spec.Key); ok && t.HasColumn(col) {
				if min, max, ok := dateBounds(t.Column(col)); ok {
					sel.Dates = &DateRange{Start: min, End: max}
				}
			}
		}
		state[spec.StateKey()] = sel
	}
	return state
}

// Apply runs the filter cascade over the table. Filters whose logical key
// is unresolved, or whose column is absent, are skipped without error.
// Given the same table and state the result is identical; nothing here
// consults the wall clock.
func Apply(t *table.Table, mapping resolve.Mapping, specs []Spec, state State) Result {
	res := Result{
		Table:   t,
		Options: make(map[string][]Option),
		Bounds:  make(map[string]DateRange),
	}
	for _, spec := range specs {
		col, ok := mapping.Col(spec.Key)
		if !ok || !res.Table.HasColumn(col) {
			continue
		}
		switch spec.Kind {
		case KindDate:
			res.applyDate(spec, col, state)
		case KindMultiselect:
			res.applyMultiselect(spec, col, state)
		}
	}
	return res
}

func (r *Result) applyDate(spec Spec, col string, state State) {
	values := r.Table.Column(col)
	min, max, ok := dateBounds(values)
	if !ok {
		// No parseable dates in the current subset: filter is a no-op.
		return
	}
	r.Bounds[spec.StateKey()] = DateRange{Start: min, End: max}

	start, end := min, max
	if sel, ok := state[spec.StateKey()]; ok && sel.Dates != nil {
		start, end = day(sel.Dates.Start), day(sel.Dates.End)
	}
	if start.After(end) {
		start, end = end, start
	}

	// Inclusive range: [start 00:00:00, end 23:59:59.999999] expressed as
	// start-of-day <= t < day-after-end. Rows whose date fails to parse
	// are excluded by this filter.
	cutoff := end.AddDate(0, 0, 1)
	mask := make([]bool, len(values))
	for i, v := range values {
		tm, ok := table.ParseTime(v)
		if !ok {
			continue
		}
		mask[i] = !tm.Before(start) && tm.Before(cutoff)
	}
	r.Table = r.Table.Select(mask)
	r.Chips = append(r.Chips, Chip{
		Key:   spec.StateKey(),
		Label: spec.Label,
		Value: start.Format("2006-01-02") + " → " + end.Format("2006-01-02"),
	})
}

func (r *Result) applyMultiselect(spec Spec, col string, state State) {
	values := r.Table.Column(col)
	counts := make(map[string]int, 16)
	for _, v := range values {
		counts[category(v)]++
	}
	options := make([]Option, 0, len(counts))
	for val, n := range counts {
		options = append(options, Option{Value: val, Count: n})
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Value < options[j].Value })
	r.Options[spec.StateKey()] = options

	// Selections that no longer appear in the narrowed subset are dropped,
	// and an empty selection keeps all rows: "no restriction", never
	// "exclude everything".
	var selected []string
	if sel, ok := state[spec.StateKey()]; ok {
		for _, want := range sel.Categories {
			if _, present := counts[want]; present {
				selected = append(selected, want)
			}
		}
	}
	if len(selected) == 0 {
		return
	}

	keep := make(map[string]bool, len(selected))
	for _, s := range selected {
		keep[s] = true
	}
	mask := make([]bool, len(values))
	for i, v := range values {
		mask[i] = keep[category(v)]
	}
	r.Table = r.Table.Select(mask)
	r.Chips = append(r.Chips, Chip{
		Key:   spec.StateKey(),
		Label: spec.Label,
		Value: strings.Join(selected, ", "),
	})
}

// category maps a cell to its multiselect category; missing cells become
// the literal "unknown" bucket.
func category(v table.Value) string {
	if v.IsMissing() {
		return UnknownCategory
	}
	s := v.Text()
	if strings.TrimSpace(s) == "" {
		return UnknownCategory
	}
	return s
}

// dateBounds returns the (min, max) day of the parseable values.
func dateBounds(values []table.Value) (time.Time, time.Time, bool) {
	var min, max time.Time
	found := false
	for _, v := range values {
		tm, ok := table.ParseTime(v)
		if !ok {
			continue
		}
		d := day(tm)
		if !found {
			min, max = d, d
			found = true
			continue
		}
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return min, max, found
}

// day truncates a timestamp to its UTC start of day.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
