package bagel

import (
	"sort"

	"digest/internal/table"
)

// MissingRequiredColumns returns the required columns absent from t, sorted.
// An empty result means the table passes the schema check.
func MissingRequiredColumns(t *table.Table, required []string) []string {
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	sort.Strings(missing)
	return missing
}

// DuplicateEntries returns the rows of t that collide with at least one other
// row on the subset columns. Both (or all) members of each collision group are
// included. Used to diagnose inputs that would make the pivot ambiguous.
func DuplicateEntries(t *table.Table, subset []string) *table.Table {
	idx := make([]int, 0, len(subset))
	for _, c := range subset {
		if j := t.Index(c); j >= 0 {
			idx = append(idx, j)
		}
	}
	counts := make(map[string]int, len(t.Rows))
	for _, row := range t.Rows {
		counts[keyOf(row, idx)]++
	}
	out := table.New(t.Columns...)
	for _, row := range t.Rows {
		if counts[keyOf(row, idx)] > 1 {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
