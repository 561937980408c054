package filter

import (
	"testing"
	"time"

	"eyedash/domain/resolve"
	"eyedash/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *table.Table {
	tbl := table.New([]string{"date", "pec", "sex"})
	rows := [][]string{
		{"2024-01-05", "team-a", "m"},
		{"2024-01-20", "team-a", "f"},
		{"2024-02-10", "team-b", "m"},
		{"not a date", "team-b", "f"},
		{"2024-03-01", "", "m"},
	}
	for _, r := range rows {
		cells := make([]table.Value, len(r))
		for i, s := range r {
			if s == "" {
				cells[i] = table.Missing()
			} else {
				cells[i] = table.NewString(s)
			}
		}
		tbl.AppendRow(cells)
	}
	return tbl
}

func sampleSpecs() []Spec {
	return []Spec{
		{Key: "date", Label: "Date", Kind: KindDate},
		{Key: "pec", Label: "Team", Kind: KindMultiselect},
		{Key: "sex", Label: "Sex", Kind: KindMultiselect},
	}
}

func sampleMapping() resolve.Mapping {
	return resolve.Mapping{"date": "date", "pec": "pec", "sex": "sex"}
}

func TestDefaultState_DerivesFullDateRange(t *testing.T) {
	state := DefaultState(sampleTable(), sampleMapping(), sampleSpecs())

	sel, ok := state["date"]
	require.True(t, ok)
	require.NotNil(t, sel.Dates)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), sel.Dates.Start)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), sel.Dates.End)

	assert.Empty(t, state["pec"].Categories)
}

func TestApply_DateRangeInclusive(t *testing.T) {
	state := State{"date": Selection{Dates: &DateRange{
		Start: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
	}}}

	res := Apply(sampleTable(), sampleMapping(), sampleSpecs(), state)
	assert.Equal(t, 2, res.Table.Len(), "both boundary days must match")
	require.NotEmpty(t, res.Chips)
	assert.Equal(t, "2024-01-05 → 2024-01-20", res.Chips[0].Value)
}

func TestApply_DateRangeSwappedBounds(t *testing.T) {
	forward := State{"date": Selection{Dates: &DateRange{
		Start: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
	}}}
	backward := State{"date": Selection{Dates: &DateRange{
		Start: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}}}

	a := Apply(sampleTable(), sampleMapping(), sampleSpecs(), forward)
	b := Apply(sampleTable(), sampleMapping(), sampleSpecs(), backward)
	assert.Equal(t, a.Table.Len(), b.Table.Len())
	assert.Equal(t, a.Chips, b.Chips)
}

func TestApply_DateFilterIdempotent(t *testing.T) {
	state := State{"date": Selection{Dates: &DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
	}}}

	once := Apply(sampleTable(), sampleMapping(), sampleSpecs(), state)
	twice := Apply(once.Table, sampleMapping(), sampleSpecs()[:1], state)
	assert.Equal(t, once.Table.Len(), twice.Table.Len())
}

func TestApply_EmptySelectionIsNoOp(t *testing.T) {
	tbl := sampleTable()
	res := Apply(tbl, sampleMapping(), sampleSpecs()[1:], State{})
	assert.Equal(t, tbl.Len(), res.Table.Len())
	assert.Empty(t, res.Chips)
}

func TestApply_MultiselectNarrowsAndCountsOptions(t *testing.T) {
	state := State{"pec": Selection{Categories: []string{"team-a"}}}
	res := Apply(sampleTable(), sampleMapping(), sampleSpecs()[1:], state)

	assert.Equal(t, 2, res.Table.Len())
	require.Len(t, res.Chips, 1)
	assert.Equal(t, "team-a", res.Chips[0].Value)

	// Options reflect the subset before this filter, missing -> "unknown".
	opts := res.Options["pec"]
	require.Len(t, opts, 3)
	assert.Equal(t, []Option{{"team-a", 2}, {"team-b", 2}, {UnknownCategory, 1}}, opts)
}

func TestApply_CascadeNarrowsOptions(t *testing.T) {
	state := State{"pec": Selection{Categories: []string{"team-b"}}}
	res := Apply(sampleTable(), sampleMapping(), sampleSpecs()[1:], state)

	// Sex options computed after the pec filter narrowed the subset.
	assert.Equal(t, []Option{{"f", 1}, {"m", 1}}, res.Options["sex"])
}

func TestApply_StaleSelectionDropped(t *testing.T) {
	state := State{"pec": Selection{Categories: []string{"team-gone"}}}
	res := Apply(sampleTable(), sampleMapping(), sampleSpecs()[1:], state)
	assert.Equal(t, sampleTable().Len(), res.Table.Len(), "selection absent from data keeps all rows")
}

func TestApply_UnresolvedFilterSkipped(t *testing.T) {
	mapping := resolve.Mapping{"sex": "sex"} // date and pec unresolved
	res := Apply(sampleTable(), mapping, sampleSpecs(), State{})
	assert.Equal(t, sampleTable().Len(), res.Table.Len())
}

func TestState_Clone(t *testing.T) {
	state := State{"pec": Selection{Categories: []string{"a"}}}
	cp := cloneAndMutate(state)
	assert.Equal(t, []string{"a"}, state["pec"].Categories)
	assert.Equal(t, []string{"b"}, cp["pec"].Categories)
}

func cloneAndMutate(s State) State {
	cp := s.Clone()
	sel := cp["pec"]
	sel.Categories[0] = "b"
	cp["pec"] = sel
	return cp
}
