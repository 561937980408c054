// Package resolve maps the stable logical field names used by dashboard
// pages (e.g. "date", "sex", "cluster") onto whatever column spelling a
// given export actually uses.
package resolve

import (
	"eyedash/domain/table"
)

// Candidates maps a logical field name to an ordered priority list of
// column-name spellings. Candidates are expected lowercase; table columns
// are normalized lowercase on load, so matching is effectively
// case-insensitive and exact.
type Candidates map[string][]string

// Mapping is the resolved logical-field -> concrete-column mapping for one
// table. Built once per table load, read-only afterward.
type Mapping map[string]string

// Resolve picks, for each logical field, the first candidate present in
// the table. Fields with no match are simply absent from the mapping;
// callers skip dependent functionality rather than erroring.
func Resolve(t *table.Table, candidates Candidates) Mapping {
	m := make(Mapping, len(candidates))
	for logical, cands := range candidates {
		for _, c := range cands {
			if t.HasColumn(c) {
				m[logical] = table.Normalize(c)
				break
			}
		}
	}
	return m
}

// Col returns the concrete column for a logical field, ok=false when no
// candidate matched.
func (m Mapping) Col(logical string) (string, bool) {
	c, ok := m[logical]
	return c, ok
}

// Has reports whether every given logical field resolved.
func (m Mapping) Has(logicals ...string) bool {
	for _, l := range logicals {
		if _, ok := m[l]; !ok {
			return false
		}
	}
	return true
}
