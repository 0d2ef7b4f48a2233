package bagel

import (
	"fmt"
	"sort"

	"digest/internal/table"
)

// ShapeError reports a pivot that would need to aggregate multiple status
// values into one overview cell, i.e. the input contains duplicate
// (identity, pipeline_name, pipeline_version) combinations. This is malformed
// input and is never resolved silently by keeping one of the values.
type ShapeError struct {
	// Duplicates is the number of input rows involved in a collision. The
	// message stays coarse on purpose; it never names participants or sessions.
	Duplicates int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("cannot build overview: %d rows share a participant-session-pipeline combination", e.Duplicates)
}

// Overview pivots the long-form bagel into the wide overview table: one row
// per identity key, one column per pipeline labeled "{name}-{version}", cell
// value the completion status (empty when not recorded).
//
// Pipeline columns are ordered lexicographically by label. Rows are ordered by
// the identity key tuple, which is stable across repeated calls on the same
// input.
func Overview(t *table.Table, idCols []string) (*table.Table, error) {
	idIdx := make([]int, len(idCols))
	for i, c := range idCols {
		j := t.Index(c)
		if j < 0 {
			return nil, fmt.Errorf("overview: no identity column %q", c)
		}
		idIdx[i] = j
	}
	nameIdx := t.Index(ColPipelineName)
	verIdx := t.Index(ColPipelineVersion)
	statusIdx := t.Index(ColPipelineStatus)
	if nameIdx < 0 || verIdx < 0 || statusIdx < 0 {
		return nil, fmt.Errorf("overview: input lacks pipeline columns")
	}

	type cell struct {
		key   string
		label string
	}
	occurrences := make(map[cell]int, len(t.Rows))
	for _, row := range t.Rows {
		label := row[nameIdx] + PipelineLabelSep + row[verIdx]
		occurrences[cell{keyOf(row, idIdx), label}]++
	}
	dupRows := 0
	for _, n := range occurrences {
		if n > 1 {
			dupRows += n
		}
	}
	if dupRows > 0 {
		return nil, &ShapeError{Duplicates: dupRows}
	}

	values := make(map[cell]string, len(t.Rows))
	ids := make(map[string][]string, len(t.Rows)) // key → identity tuple
	var keyOrder []string
	labelSet := make(map[string]struct{})
	for _, row := range t.Rows {
		key := keyOf(row, idIdx)
		if _, seen := ids[key]; !seen {
			tup := make([]string, len(idIdx))
			for i, j := range idIdx {
				tup[i] = row[j]
			}
			ids[key] = tup
			keyOrder = append(keyOrder, key)
		}
		label := row[nameIdx] + PipelineLabelSep + row[verIdx]
		labelSet[label] = struct{}{}
		values[cell{key, label}] = row[statusIdx]
	}

	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	sort.Strings(keyOrder)

	out := table.New(append(append([]string{}, idCols...), labels...)...)
	for _, key := range keyOrder {
		row := make([]string, len(out.Columns))
		copy(row, ids[key])
		for i, label := range labels {
			row[len(idCols)+i] = values[cell{key, label}]
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
