// Package filter evaluates session/status criteria against the wide overview
// table.
//
// Criteria are compiled into a small predicate tree (typed equality and
// membership nodes bound to column indexes) instead of a query-language
// string, so user-supplied status values can never alter the query structure.
//
// The two operators are deliberately asymmetric:
//
//   - OR is row-level: keep rows whose session is one of the selected labels
//     and whose pipeline statuses all match.
//   - AND is subject-level: a participant qualifies only if every selected
//     session exists for them with matching statuses, and then ALL of that
//     participant's rows at the selected sessions are kept, matching or not.
//     It answers "which participants completed all required sessions", not
//     "which rows matched".
package filter

import (
	"fmt"
	"sort"
	"time"

	"digest/internal/bagel"
	"digest/internal/metrics"
	"digest/internal/table"
)

// Operators recognized by Apply.
const (
	OpAnd = "AND"
	OpOr  = "OR"
)

// Criteria is one filter request. A pipeline absent from Statuses (or mapped
// to the empty string) is unconstrained.
type Criteria struct {
	Sessions []string          `json:"sessions"`
	Operator string            `json:"operator"`
	Statuses map[string]string `json:"statuses"`
}

// InvalidOperatorError reports an operator outside {AND, OR}. The upstream
// selection UI constrains the value, so hitting this is a caller bug; it is
// surfaced rather than guessed around.
type InvalidOperatorError struct{ Operator string }

func (e *InvalidOperatorError) Error() string {
	return fmt.Sprintf("invalid combination operator %q (want %s or %s)", e.Operator, OpAnd, OpOr)
}

// equalsNode is an exact-match predicate on one column. Comparison is full
// string equality, never substring or prefix, so distinct literal status
// values can never shadow each other.
type equalsNode struct {
	col   int
	value string
}

func (n equalsNode) match(row []string) bool { return row[n.col] == n.value }

// conjunction is the AND of its nodes; an empty conjunction matches all rows.
// A constraint on a column the table does not have makes the whole
// conjunction unsatisfiable (the pipeline cannot have the required status if
// it is not present at all).
type conjunction struct {
	nodes         []equalsNode
	unsatisfiable bool
}

func (c conjunction) match(row []string) bool {
	if c.unsatisfiable {
		return false
	}
	for _, n := range c.nodes {
		if !n.match(row) {
			return false
		}
	}
	return true
}

// compile binds the status constraints to column indexes of t.
func compile(t *table.Table, statuses map[string]string) conjunction {
	// Deterministic node order keeps evaluation reproducible.
	pipelines := make([]string, 0, len(statuses))
	for p := range statuses {
		pipelines = append(pipelines, p)
	}
	sort.Strings(pipelines)

	var c conjunction
	for _, p := range pipelines {
		want := statuses[p]
		if want == "" {
			continue
		}
		col := t.Index(p)
		if col < 0 {
			c.unsatisfiable = true
			continue
		}
		c.nodes = append(c.nodes, equalsNode{col: col, value: want})
	}
	return c
}

// Apply filters the overview table by the criteria and returns the matching
// subset as a new table. An empty result is a well-formed table with the same
// columns and zero rows.
func Apply(overview *table.Table, crit Criteria) (*table.Table, error) {
	start := time.Now()
	out, err := apply(overview, crit)
	metrics.RecordFilter(err, time.Since(start))
	return out, err
}

func apply(overview *table.Table, crit Criteria) (*table.Table, error) {
	pred := compile(overview, crit.Statuses)
	out := table.New(overview.Columns...)

	if len(crit.Sessions) == 0 {
		for _, row := range overview.Rows {
			if pred.match(row) {
				out.Rows = append(out.Rows, row)
			}
		}
		return out, nil
	}

	switch crit.Operator {
	case OpAnd:
		return applySubjectLevel(overview, crit.Sessions, pred)
	case OpOr:
		sessIdx := overview.Index(bagel.ColSession)
		selected := stringSet(crit.Sessions)
		for _, row := range overview.Rows {
			if sessIdx < 0 {
				break
			}
			if _, ok := selected[row[sessIdx]]; ok && pred.match(row) {
				out.Rows = append(out.Rows, row)
			}
		}
		return out, nil
	default:
		return nil, &InvalidOperatorError{Operator: crit.Operator}
	}
}

// applySubjectLevel implements the AND semantics as an explicit two-pass
// grouping algorithm: first find the participants for whom every selected
// session has a matching row, then project the qualifying participants and
// the selected sessions back onto the full row set.
func applySubjectLevel(overview *table.Table, sessions []string, pred conjunction) (*table.Table, error) {
	out := table.New(overview.Columns...)
	partIdx := overview.Index(bagel.ColParticipant)
	sessIdx := overview.Index(bagel.ColSession)
	if partIdx < 0 || sessIdx < 0 {
		return out, nil
	}

	// Pass 1: per participant, per selected session, is there a matching row?
	matched := make(map[string]map[string]bool) // participant → session → matched
	selected := stringSet(sessions)
	for _, row := range overview.Rows {
		sess := row[sessIdx]
		if _, ok := selected[sess]; !ok {
			continue
		}
		if !pred.match(row) {
			continue
		}
		part := row[partIdx]
		if matched[part] == nil {
			matched[part] = make(map[string]bool, len(sessions))
		}
		matched[part][sess] = true
	}
	qualifying := make(map[string]struct{}, len(matched))
	for part, bySess := range matched {
		ok := true
		for _, sess := range sessions {
			if !bySess[sess] {
				ok = false
				break
			}
		}
		if ok {
			qualifying[part] = struct{}{}
		}
	}

	// Pass 2: keep every row of a qualifying participant at a selected
	// session, regardless of whether that particular row matched.
	for _, row := range overview.Rows {
		if _, ok := qualifying[row[partIdx]]; !ok {
			continue
		}
		if _, ok := selected[row[sessIdx]]; !ok {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func stringSet(vals []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}
