package aggregate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"eyedash/domain/table"
)

// sexSynonyms is the fixed canonicalization table for free-text sex
// values. Anything outside it normalizes to missing and is dropped from
// sex-based aggregates.
var sexSynonyms = map[string]string{
	"m": "Male", "male": "Male", "man": "Male", "boy": "Male",
	"f": "Female", "female": "Female", "woman": "Female", "girl": "Female",
}

// NormalizeSex canonicalizes a sex cell to "Male" or "Female"; ok=false
// marks a defined exclusion, not an error.
func NormalizeSex(v table.Value) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(v.Text()))
	canon, ok := sexSynonyms[s]
	return canon, ok
}

// doneTokens is the affirmative set for the done predicate.
var doneTokens = map[string]bool{"yes": true, "y": true, "true": true, "1": true}

// Done is the boolean-like coercion behind every "X done" metric count.
// Missing -> false; numbers -> their truthiness; times count as done
// (a recorded follow-up date); otherwise case-insensitive membership in
// {yes, y, true, 1}. Unknown strings coerce to false, never to an error.
func Done(v table.Value) bool {
	if v.IsMissing() {
		return false
	}
	if n, ok := v.Float(); ok {
		return n != 0
	}
	if _, ok := v.Time(); ok {
		return true
	}
	return doneTokens[strings.ToLower(strings.TrimSpace(v.Text()))]
}

// yesTokens is the wider affirmative vocabulary used by the PEC export,
// where "referred"/"issued"/"booked" style entries mean yes.
var yesTokens = map[string]bool{
	"y": true, "yes": true, "true": true, "t": true, "1": true,
	"present": true, "referred": true, "done": true, "given": true,
	"issued": true, "booked": true,
}

// YesLike reports whether a cell is affirmative under the PEC vocabulary.
func YesLike(v table.Value) bool {
	if v.IsMissing() {
		return false
	}
	return yesTokens[strings.ToLower(strings.TrimSpace(v.Text()))]
}

// NormalizeNewOld maps noisy new/old entries to "New"/"Old", falling back
// to title case for anything else.
func NormalizeNewOld(v table.Value) string {
	raw := strings.ToLower(strings.TrimSpace(v.Text()))
	switch {
	case strings.Contains(raw, "new"):
		return "New"
	case strings.Contains(raw, "old"):
		return "Old"
	default:
		return TitleCase(raw)
	}
}

// TitleCase uppercases the first rune of each space-separated word.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// DoneCount counts rows whose col cell passes the done predicate; 0 when
// the column is absent.
func DoneCount(t *table.Table, col string) int {
	if t == nil || !t.HasColumn(col) {
		return 0
	}
	n := 0
	for _, v := range t.Column(col) {
		if Done(v) {
			n++
		}
	}
	return n
}

// YesCount counts rows whose col cell is YesLike; 0 when absent.
func YesCount(t *table.Table, col string) int {
	if t == nil || !t.HasColumn(col) {
		return 0
	}
	n := 0
	for _, v := range t.Column(col) {
		if YesLike(v) {
			n++
		}
	}
	return n
}

// DoneSexSplit returns the Male/Female breakdown of rows passing the done
// predicate on col. Rows whose sex does not normalize are excluded.
func DoneSexSplit(t *table.Table, col, sexCol string) (male, female int) {
	if t == nil || !t.HasColumn(col) || !t.HasColumn(sexCol) {
		return 0, 0
	}
	done := t.Column(col)
	sex := t.Column(sexCol)
	for i := range done {
		if !Done(done[i]) {
			continue
		}
		switch canon, ok := NormalizeSex(sex[i]); {
		case ok && canon == "Male":
			male++
		case ok && canon == "Female":
			female++
		}
	}
	return male, female
}
