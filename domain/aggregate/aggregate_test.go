package aggregate

import (
	"testing"

	"eyedash/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableOf(t *testing.T, headers []string, rows ...[]string) *table.Table {
	t.Helper()
	tbl := table.New(headers)
	for _, r := range rows {
		cells := make([]table.Value, len(r))
		for i, s := range r {
			if s == "<na>" {
				cells[i] = table.Missing()
			} else {
				cells[i] = table.NewString(s)
			}
		}
		tbl.AppendRow(cells)
	}
	return tbl
}

func TestCategoryCounts_UniverseFromFullPopulation(t *testing.T) {
	full := tableOf(t, []string{"cat"}, []string{"A"}, []string{"B"}, []string{"C"}, []string{"A"})
	restricted := tableOf(t, []string{"cat"}, []string{"A"}, []string{"A"})

	counts := CategoryCounts(full, restricted, "cat", nil, nil)
	require.Equal(t, []CategoryCount{{"A", 2}, {"B", 0}, {"C", 0}}, counts,
		"categories absent from the restricted subset keep zero-count rows")

	sum := 0
	for _, c := range counts {
		sum += c.Count
	}
	assert.Equal(t, restricted.Len(), sum)
}

func TestCategoryCounts_DropAndExclude(t *testing.T) {
	full := tableOf(t, []string{"cat"}, []string{"A"}, []string{""}, []string{"nan"}, []string{"B"})
	counts := CategoryCounts(full, full, "cat", map[string]bool{"": true, "nan": true}, nil)
	assert.Equal(t, []CategoryCount{{"A", 1}, {"B", 1}}, counts)
}

func TestCategoryCounts_EmptyInputs(t *testing.T) {
	empty := table.New([]string{"cat"})
	assert.Nil(t, CategoryCounts(empty, empty, "cat", nil, nil))
	assert.Nil(t, CategoryCounts(nil, nil, "cat", nil, nil))

	full := tableOf(t, []string{"cat"}, []string{"A"})
	assert.Nil(t, CategoryCounts(full, full, "missing", nil, nil))
}

func TestMakeCountTable_PercentagesSumToHundred(t *testing.T) {
	ct := MakeCountTable([]CategoryCount{{"A", 2}, {"B", 1}, {"C", 1}})
	require.Len(t, ct.Rows, 3)

	total := 0.0
	for _, r := range ct.Rows {
		total += r.Percentage
	}
	assert.InDelta(t, 100.0, total, 0.1*float64(len(ct.Rows)))
	assert.Equal(t, 50.0, ct.Rows[0].Percentage)
	assert.Equal(t, "2 (50.0%)", ct.Rows[0].Label)
}

func TestMakeCountTable_ZeroTotal(t *testing.T) {
	ct := MakeCountTable([]CategoryCount{{"A", 0}, {"B", 0}})
	assert.True(t, ct.Empty(), "zero total must yield an empty table, not a divide-by-zero")
}

func TestCountTable_SortByCountDesc(t *testing.T) {
	ct := MakeCountTable([]CategoryCount{{"low", 1}, {"high", 5}, {"mid", 3}})
	ct.SortByCountDesc()
	assert.Equal(t, "high", ct.Rows[0].Category)
	assert.Equal(t, "low", ct.Rows[2].Category)
}

func TestNormalizeSex(t *testing.T) {
	cases := map[string]string{
		"M": "Male", "male": "Male", "Boy": "Male", "man": "Male",
		"f": "Female", "Woman": "Female", "GIRL": "Female",
	}
	for in, want := range cases {
		got, ok := NormalizeSex(table.NewString(in))
		require.True(t, ok, "%q should normalize", in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"unknown", "", "x"} {
		_, ok := NormalizeSex(table.NewString(in))
		assert.False(t, ok, "%q must be excluded from sex aggregates", in)
	}
	_, ok := NormalizeSex(table.Missing())
	assert.False(t, ok)
}

func TestDone_TruthTable(t *testing.T) {
	assert.False(t, Done(table.Missing()))
	assert.True(t, Done(table.NewNumber(1)))
	assert.False(t, Done(table.NewNumber(0)))
	assert.True(t, Done(table.NewString("Yes")))
	assert.True(t, Done(table.NewString("y")))
	assert.True(t, Done(table.NewString("TRUE")))
	assert.True(t, Done(table.NewString("1")))
	assert.False(t, Done(table.NewString("no")))
	assert.False(t, Done(table.NewString("")))
}

func TestYesLike_WiderVocabulary(t *testing.T) {
	for _, s := range []string{"referred", "Issued", "BOOKED", "given", "present", "t"} {
		assert.True(t, YesLike(table.NewString(s)), s)
	}
	assert.False(t, YesLike(table.NewString("absent")))
}

func TestNormalizeNewOld(t *testing.T) {
	assert.Equal(t, "New", NormalizeNewOld(table.NewString("new patient")))
	assert.Equal(t, "Old", NormalizeNewOld(table.NewString("OLD")))
	assert.Equal(t, "Repeat Visit", NormalizeNewOld(table.NewString("repeat visit")))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Repeat Visit", TitleCase("repeat visit"))
	assert.Equal(t, "École Primaire", TitleCase("école primaire"))
	assert.Equal(t, "", TitleCase("   "))
}

func TestYesCount(t *testing.T) {
	tbl := tableOf(t, []string{"referred"},
		[]string{"Referred"}, []string{"yes"}, []string{"no"}, []string{""})
	assert.Equal(t, 2, YesCount(tbl, "referred"))
	assert.Equal(t, 0, YesCount(tbl, "absent"))
	assert.Equal(t, 0, YesCount(nil, "referred"))
}

func TestCrossTab_ZerosForUnseenCombinations(t *testing.T) {
	tbl := tableOf(t, []string{"cluster", "sex"},
		[]string{"vc1", "m"},
		[]string{"vc1", "f"},
		[]string{"vc1", "m"},
		[]string{"vc2", "other"}, // sex does not normalize: excluded
	)

	ct := CrossTab(tbl, "cluster", "sex", "Vision Centre", []string{"vc1", "vc2", "vc3"}, nil)
	require.Len(t, ct.Rows, 3)
	assert.Equal(t, CrossRow{"vc1", 2, 1, 3}, ct.Rows[0])
	assert.Equal(t, CrossRow{"vc2", 0, 0, 0}, ct.Rows[1])
	assert.Equal(t, CrossRow{"vc3", 0, 0, 0}, ct.Rows[2])
}

func TestCrossTab_KeepPredicate(t *testing.T) {
	tbl := tableOf(t, []string{"cluster", "sex", "referred"},
		[]string{"vc1", "m", "yes"},
		[]string{"vc1", "f", "no"},
	)
	refs := tbl.Column("referred")
	ct := CrossTab(tbl, "cluster", "sex", "Vision Centre", nil, func(i int) bool {
		return YesLike(refs[i])
	})
	require.Len(t, ct.Rows, 1)
	assert.Equal(t, CrossRow{"vc1", 1, 0, 1}, ct.Rows[0])
}

func TestCrossTable_CompactRowsKeepNumericTotal(t *testing.T) {
	ct := CrossTable{Rows: []CrossRow{{Category: "vc1", Male: 3, Female: 1, Total: 4}}}
	rows := ct.CompactRows()
	require.Len(t, rows, 1)
	assert.Equal(t, "3 (75.0%)", rows[0].Male)
	assert.Equal(t, "1 (25.0%)", rows[0].Female)
	assert.Equal(t, 4, rows[0].Total)
}

func TestCrossTable_SortByTotalDescTailLast(t *testing.T) {
	ct := CrossTable{Rows: []CrossRow{
		{Category: "other", Total: 99},
		{Category: "cataract", Total: 5},
		{Category: "glaucoma", Total: 9},
	}}
	ct.SortByTotalDesc()
	assert.Equal(t, "glaucoma", ct.Rows[0].Category)
	assert.Equal(t, "cataract", ct.Rows[1].Category)
	assert.Equal(t, "other", ct.Rows[2].Category, "tail labels sort last regardless of total")
}

func TestCrossTable_ChiSquare(t *testing.T) {
	ct := CrossTable{Rows: []CrossRow{
		{Category: "a", Male: 30, Female: 10, Total: 40},
		{Category: "b", Male: 10, Female: 30, Total: 40},
	}}
	stat, p, ok := ct.ChiSquare()
	require.True(t, ok)
	assert.Greater(t, stat, 0.0)
	assert.Less(t, p, 0.01, "strongly dependent table should have a tiny p-value")

	degenerate := CrossTable{Rows: []CrossRow{{Category: "a", Male: 5, Total: 5}}}
	_, _, ok = degenerate.ChiSquare()
	assert.False(t, ok)
}

func TestNumericSummary(t *testing.T) {
	tbl := tableOf(t, []string{"age"}, []string{"10"}, []string{"20"}, []string{"30"}, []string{"n/a"}, []string{"<na>"})
	s := NumericSummary(tbl, "age")
	assert.Equal(t, 3, s.N)
	assert.InDelta(t, 20.0, s.Mean, 1e-9)
	assert.InDelta(t, 20.0, s.Median, 1e-9)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 30.0, s.Max)

	assert.Equal(t, Summary{}, NumericSummary(tbl, "absent"))
}

func TestMonthlyCounts(t *testing.T) {
	tbl := tableOf(t, []string{"date", "sx"},
		[]string{"2024-01-05", "yes"},
		[]string{"2024-01-20", "yes"},
		[]string{"2024-02-01", "no"},
		[]string{"2024-02-14", "yes"},
		[]string{"bad date", "yes"},
	)
	got := MonthlyCounts(tbl, "date", "sx")
	assert.Equal(t, []MonthCount{{"2024-01", 2}, {"2024-02", 1}}, got)
}

func TestDoneSexSplit(t *testing.T) {
	tbl := tableOf(t, []string{"sx", "sex"},
		[]string{"yes", "m"},
		[]string{"yes", "f"},
		[]string{"no", "m"},
		[]string{"yes", "unknown"},
	)
	m, f := DoneSexSplit(tbl, "sx", "sex")
	assert.Equal(t, 1, m)
	assert.Equal(t, 1, f)
}

func TestUniqueCount(t *testing.T) {
	tbl := tableOf(t, []string{"school"},
		[]string{"a"}, []string{"b"}, []string{"a"}, []string{""}, []string{"nan"}, []string{"<na>"})
	assert.Equal(t, 2, UniqueCount(tbl, "school"))
}
