package table

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NormalizesAndDeduplicatesHeaders(t *testing.T) {
	tbl := New([]string{" Date ", "SEX", "sex", "", "ClusterCode"})

	assert.Equal(t, []string{"date", "sex", "clustercode"}, tbl.Columns())
	assert.True(t, tbl.HasColumn("Date"))
	assert.True(t, tbl.HasColumn("clustercode"))
	assert.False(t, tbl.HasColumn("missing"))
}

func TestAppendRow_PadsAndTruncates(t *testing.T) {
	tbl := New([]string{"a", "b", "c"})
	tbl.AppendRow([]Value{NewString("x")})
	tbl.AppendRow([]Value{NewString("1"), NewString("2"), NewString("3"), NewString("overflow")})

	require.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.Value(0, "b").IsMissing())
	assert.Equal(t, "3", tbl.Value(1, "c").Text())
}

func TestSelect_PreservesRowOrder(t *testing.T) {
	tbl := New([]string{"n"})
	for _, s := range []string{"one", "two", "three", "four"} {
		tbl.AppendRow([]Value{NewString(s)})
	}

	sub := tbl.Select([]bool{true, false, true, false})
	require.Equal(t, 2, sub.Len())
	assert.Equal(t, "one", sub.Value(0, "n").Text())
	assert.Equal(t, "three", sub.Value(1, "n").Text())
}

func TestValue_Float(t *testing.T) {
	f, ok := NewString(" 42.5 ").Float()
	require.True(t, ok)
	assert.InDelta(t, 42.5, f, 1e-9)

	_, ok = NewString("abc").Float()
	assert.False(t, ok)

	f, ok = NewNumber(7).Float()
	require.True(t, ok)
	assert.Equal(t, 7.0, f)
}

func TestParseTime(t *testing.T) {
	for _, raw := range []string{"2024-03-05", "05-03-2024", "3/5/2024", "2024-03-05 10:30:00"} {
		_, ok := ParseTime(NewString(raw))
		assert.True(t, ok, "should parse %q", raw)
	}

	_, ok := ParseTime(NewString("not a date"))
	assert.False(t, ok)
	_, ok = ParseTime(Missing())
	assert.False(t, ok)

	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	got, ok := ParseTime(NewTime(want))
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestWriteCSV(t *testing.T) {
	tbl := New([]string{"name", "count"})
	tbl.AppendRow([]Value{NewString("a"), NewNumber(3)})
	tbl.AppendRow([]Value{NewString("b"), Missing()})

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))
	assert.Equal(t, "name,count\na,3\nb,\n", buf.String())
}
