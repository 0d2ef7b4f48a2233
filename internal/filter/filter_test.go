package filter

import (
	"errors"
	"reflect"
	"testing"

	"digest/internal/table"
)

// overview builds a wide table with two pipeline columns. Each row is
// (participant, session, fmriprep status, mriqc status).
func overview(t *testing.T, rows ...[4]string) *table.Table {
	t.Helper()
	tbl := table.New("participant_id", "session", "fmriprep-20.2.7", "mriqc-1.0")
	for _, r := range rows {
		if err := tbl.Append(r[:]); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return tbl
}

// Standard fixture: P01 succeeded fmriprep at both sessions, P02 only at
// ses-1.
func fixture(t *testing.T) *table.Table {
	t.Helper()
	return overview(t,
		[4]string{"P01", "ses-1", "SUCCESS", "SUCCESS"},
		[4]string{"P01", "ses-2", "SUCCESS", "FAIL"},
		[4]string{"P02", "ses-1", "SUCCESS", "SUCCESS"},
		[4]string{"P02", "ses-2", "FAIL", "SUCCESS"},
	)
}

func TestApplyAndSubjectLevel(t *testing.T) {
	got, err := Apply(fixture(t), Criteria{
		Sessions: []string{"ses-1", "ses-2"},
		Operator: OpAnd,
		Statuses: map[string]string{"fmriprep-20.2.7": "SUCCESS"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Only P01 has a matching row at every selected session; both of P01's
	// rows are kept, P02 is excluded entirely.
	want := [][]string{
		{"P01", "ses-1", "SUCCESS", "SUCCESS"},
		{"P01", "ses-2", "SUCCESS", "FAIL"},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("rows = %v, want %v", got.Rows, want)
	}
}

func TestApplyAndKeepsNonMatchingRowsOfQualifier(t *testing.T) {
	// P01 qualifies via the fmriprep constraint; the ses-2 row is kept even
	// though its mriqc status is FAIL and mriqc is unconstrained.
	got, err := Apply(fixture(t), Criteria{
		Sessions: []string{"ses-2"},
		Operator: OpAnd,
		Statuses: map[string]string{"fmriprep-20.2.7": "SUCCESS"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := [][]string{{"P01", "ses-2", "SUCCESS", "FAIL"}}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("rows = %v, want %v", got.Rows, want)
	}
}

func TestApplyAndOrWithAbsentSessionRow(t *testing.T) {
	// P1 has both sessions with SUCCESS; P2 has no ses-2 row at all.
	tbl := overview(t,
		[4]string{"P1", "ses-1", "SUCCESS", "SUCCESS"},
		[4]string{"P1", "ses-2", "SUCCESS", "SUCCESS"},
		[4]string{"P2", "ses-1", "SUCCESS", "SUCCESS"},
	)
	crit := Criteria{
		Sessions: []string{"ses-1", "ses-2"},
		Statuses: map[string]string{"fmriprep-20.2.7": "SUCCESS"},
	}

	crit.Operator = OpAnd
	got, err := Apply(tbl, crit)
	if err != nil {
		t.Fatalf("Apply AND: %v", err)
	}
	want := [][]string{
		{"P1", "ses-1", "SUCCESS", "SUCCESS"},
		{"P1", "ses-2", "SUCCESS", "SUCCESS"},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("AND rows = %v, want only P1", got.Rows)
	}

	crit.Operator = OpOr
	got, err = Apply(tbl, crit)
	if err != nil {
		t.Fatalf("Apply OR: %v", err)
	}
	if len(got.Rows) != 3 {
		t.Errorf("OR rows = %v, want all three", got.Rows)
	}
}

func TestApplyOrRowLevel(t *testing.T) {
	got, err := Apply(fixture(t), Criteria{
		Sessions: []string{"ses-1", "ses-2"},
		Operator: OpOr,
		Statuses: map[string]string{"fmriprep-20.2.7": "SUCCESS"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Row-level: every row with a selected session and matching status, so
	// P02's ses-1 row survives even though its ses-2 row does not.
	want := [][]string{
		{"P01", "ses-1", "SUCCESS", "SUCCESS"},
		{"P01", "ses-2", "SUCCESS", "FAIL"},
		{"P02", "ses-1", "SUCCESS", "SUCCESS"},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("rows = %v, want %v", got.Rows, want)
	}
}

func TestApplyNoSessions(t *testing.T) {
	// Without a session selection the operator is irrelevant and statuses
	// apply row-level over the whole table.
	for _, op := range []string{OpAnd, OpOr, "", "bogus"} {
		got, err := Apply(fixture(t), Criteria{
			Operator: op,
			Statuses: map[string]string{"mriqc-1.0": "FAIL"},
		})
		if err != nil {
			t.Fatalf("Apply(op=%q): %v", op, err)
		}
		want := [][]string{{"P01", "ses-2", "SUCCESS", "FAIL"}}
		if !reflect.DeepEqual(got.Rows, want) {
			t.Errorf("op=%q rows = %v, want %v", op, got.Rows, want)
		}
	}
}

func TestApplyInvalidOperator(t *testing.T) {
	_, err := Apply(fixture(t), Criteria{
		Sessions: []string{"ses-1"},
		Operator: "XOR",
	})
	var opErr *InvalidOperatorError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected *InvalidOperatorError, got %v", err)
	}
	if opErr.Operator != "XOR" {
		t.Errorf("Operator = %q, want XOR", opErr.Operator)
	}
}

func TestApplyEmptyResultKeepsShape(t *testing.T) {
	in := fixture(t)
	got, err := Apply(in, Criteria{
		Sessions: []string{"ses-1"},
		Operator: OpOr,
		Statuses: map[string]string{"fmriprep-20.2.7": "UNAVAILABLE"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(got.Rows) != 0 {
		t.Errorf("expected empty result, got %v", got.Rows)
	}
	if !reflect.DeepEqual(got.Columns, in.Columns) {
		t.Errorf("empty result columns = %v, want %v", got.Columns, in.Columns)
	}
}

func TestApplyUnknownPipelineUnsatisfiable(t *testing.T) {
	got, err := Apply(fixture(t), Criteria{
		Sessions: []string{"ses-1"},
		Operator: OpOr,
		Statuses: map[string]string{"freesurfer-7.3.2": "SUCCESS"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(got.Rows) != 0 {
		t.Errorf("constraint on absent pipeline should match nothing, got %v", got.Rows)
	}
}

func TestApplyEmptyStatusUnconstrained(t *testing.T) {
	got, err := Apply(fixture(t), Criteria{
		Sessions: []string{"ses-1"},
		Operator: OpOr,
		Statuses: map[string]string{"fmriprep-20.2.7": ""},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(got.Rows) != 2 {
		t.Errorf("empty status should not constrain, got %d rows", len(got.Rows))
	}
}

func TestApplyExactStatusMatch(t *testing.T) {
	tbl := overview(t,
		[4]string{"P01", "ses-1", "SUCCESS", "SUCCESS"},
		[4]string{"P02", "ses-1", "SUCCESSFUL", "SUCCESS"},
	)
	got, err := Apply(tbl, Criteria{
		Sessions: []string{"ses-1"},
		Operator: OpOr,
		Statuses: map[string]string{"fmriprep-20.2.7": "SUCCESS"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Full equality, never prefix matching.
	if len(got.Rows) != 1 || got.Rows[0][0] != "P01" {
		t.Errorf("rows = %v, want only P01", got.Rows)
	}
}
