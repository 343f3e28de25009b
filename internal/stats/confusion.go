package stats

import "slices"

// DefaultTopConfusions is the ranked list length used when the caller does
// not choose one.
const DefaultTopConfusions = 20

// Confusion is a positional substitution of a subject token for a reference
// token, with how often it occurred.
type Confusion struct {
	Reference string `json:"referenceWord"`
	Subject   string `json:"subjectWord"`
	Count     int    `json:"count"`
}

// ConfusionTable counts (reference, subject) token substitutions observed at
// the same position. Matching tokens are never recorded. Reference tokens
// and, within each, subject tokens are kept in first-seen order so rankings
// are deterministic.
type ConfusionTable struct {
	rows  map[string]*confusionRow
	order []string
}

type confusionRow struct {
	counts map[string]int
	order  []string
}

// NewConfusionTable scans every pair of c up to the shorter sequence length.
func NewConfusionTable(c Corpus) *ConfusionTable {
	t := &ConfusionTable{rows: make(map[string]*confusionRow)}
	for _, p := range c {
		n := min(len(p.Reference), len(p.Subject))
		for i := range n {
			if p.Reference[i] != p.Subject[i] {
				t.add(p.Reference[i], p.Subject[i])
			}
		}
	}

	return t
}

func (t *ConfusionTable) add(ref, subj string) {
	row, ok := t.rows[ref]
	if !ok {
		row = &confusionRow{counts: make(map[string]int)}
		t.rows[ref] = row
		t.order = append(t.order, ref)
	}
	if _, seen := row.counts[subj]; !seen {
		row.order = append(row.order, subj)
	}
	row.counts[subj]++
}

// Count returns how often subj replaced ref.
func (t *ConfusionTable) Count(ref, subj string) int {
	row, ok := t.rows[ref]
	if !ok {
		return 0
	}

	return row.counts[subj]
}

// Len returns the number of distinct (reference, subject) cells.
func (t *ConfusionTable) Len() int {
	n := 0
	for _, row := range t.rows {
		n += len(row.order)
	}

	return n
}

// Top returns, for each reference token, its most frequent substitute,
// ranked by count descending and truncated to k (k <= 0 selects
// DefaultTopConfusions).
//
// Ties are broken by first occurrence: among substitutes with equal counts
// the one seen first in the corpus scan wins, and reference tokens with
// equal counts keep the order in which they were first seen.
func (t *ConfusionTable) Top(k int) []Confusion {
	if k <= 0 {
		k = DefaultTopConfusions
	}

	out := make([]Confusion, 0, len(t.order))
	for _, ref := range t.order {
		row := t.rows[ref]
		best := row.order[0]
		for _, subj := range row.order[1:] {
			if row.counts[subj] > row.counts[best] {
				best = subj
			}
		}
		out = append(out, Confusion{Reference: ref, Subject: best, Count: row.counts[best]})
	}

	slices.SortStableFunc(out, func(a, b Confusion) int { return b.Count - a.Count })
	if len(out) > k {
		out = out[:k]
	}

	return out
}
