// Package table implements a small, explicit tabular data structure: an
// ordered list of named columns plus fixed-arity string rows. It is the
// in-memory currency of the whole application: the CSV parser produces one,
// the pivot and extraction steps reshape them, and the filter engine and
// summary statistics consume them.
//
// Design notes:
//
//   - Cells are strings; an empty string means "absent". CSV has no richer
//     null, and keeping one value domain avoids a class of coercion bugs.
//   - Column order is significant and preserved; callers that need
//     deterministic output sort columns explicitly.
//   - Table is not concurrency-safe for mutation. The ingest pipeline builds
//     a table once and treats it as immutable afterwards; concurrent readers
//     are then fine.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
)

// Table is an ordered set of named columns with fixed-arity rows.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New returns an empty table with the given column order.
func New(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Index returns the position of col in the column list, or -1 when absent.
func (t *Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// HasColumn reports whether col is one of the table's columns.
func (t *Table) HasColumn(col string) bool { return t.Index(col) >= 0 }

// Append adds a row after checking its arity against the column list.
func (t *Table) Append(row []string) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d fields, table has %d columns", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Column returns all values of the named column in row order. The second
// return value is false when the column does not exist.
func (t *Table) Column(col string) ([]string, bool) {
	i := t.Index(col)
	if i < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, true
}

// Project returns a new table containing only the named columns, in the given
// order. Unknown columns are an error.
func (t *Table) Project(cols ...string) (*Table, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		j := t.Index(c)
		if j < 0 {
			return nil, fmt.Errorf("project: no column %q", c)
		}
		idx[i] = j
	}
	out := New(cols...)
	for _, row := range t.Rows {
		nr := make([]string, len(idx))
		for i, j := range idx {
			nr[i] = row[j]
		}
		out.Rows = append(out.Rows, nr)
	}
	return out, nil
}

// Drop returns a new table without the named columns. Dropping a column that
// does not exist is not an error; this mirrors how grouping columns are
// removed after extraction.
func (t *Table) Drop(cols ...string) *Table {
	dropped := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		dropped[c] = struct{}{}
	}
	var keep []string
	for _, c := range t.Columns {
		if _, ok := dropped[c]; !ok {
			keep = append(keep, c)
		}
	}
	out, _ := t.Project(keep...)
	return out
}

// SortRows stably sorts rows by the named columns, ascending, comparing cell
// values lexicographically as strings.
func (t *Table) SortRows(cols ...string) {
	idx := make([]int, 0, len(cols))
	for _, c := range cols {
		if j := t.Index(c); j >= 0 {
			idx = append(idx, j)
		}
	}
	sort.SliceStable(t.Rows, func(a, b int) bool {
		ra, rb := t.Rows[a], t.Rows[b]
		for _, j := range idx {
			if ra[j] != rb[j] {
				return ra[j] < rb[j]
			}
		}
		return false
	})
}

// Equal reports structural equality: same columns in the same order and the
// same rows in the same order.
func (t *Table) Equal(o *Table) bool {
	if o == nil || len(t.Columns) != len(o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i, c := range t.Columns {
		if o.Columns[i] != c {
			return false
		}
	}
	for r, row := range t.Rows {
		for i, v := range row {
			if o.Rows[r][i] != v {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := New(t.Columns...)
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		nr := make([]string, len(row))
		copy(nr, row)
		out.Rows[i] = nr
	}
	return out
}

// Records renders rows as column→value maps, the shape handed to the web
// layer for JSON encoding.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, len(t.Rows))
	for r, row := range t.Rows {
		m := make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			m[c] = row[i]
		}
		out[r] = m
	}
	return out
}

// WriteCSV writes the table as CSV with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
