package ingest

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"digest/internal/bagel"
)

const goodCSV = `participant_id,bids_id,session,pipeline_name,pipeline_version,pipeline_complete
P01,B01,ses-1,fmriprep,20.2.7,SUCCESS
P01,B01,ses-2,fmriprep,20.2.7,FAIL
P02,B02,ses-1,fmriprep,20.2.7,SUCCESS
P02,B02,ses-2,fmriprep,20.2.7,UNAVAILABLE
P01,B01,ses-1,mriqc,1.0,SUCCESS
P01,B01,ses-2,mriqc,1.0,SUCCESS
P02,B02,ses-1,mriqc,1.0,FAIL
P02,B02,ses-2,mriqc,1.0,SUCCESS
`

func TestIngestHappyPath(t *testing.T) {
	ds, err := Ingest([]byte(goodCSV), "digest.csv")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if want := []string{"fmriprep-20.2.7", "mriqc-1.0"}; !reflect.DeepEqual(ds.PipelineLabels, want) {
		t.Errorf("PipelineLabels = %v, want %v", ds.PipelineLabels, want)
	}
	// Sessions keep first-appearance order, not sorted order.
	if want := []string{"ses-1", "ses-2"}; !reflect.DeepEqual(ds.Sessions, want) {
		t.Errorf("Sessions = %v, want %v", ds.Sessions, want)
	}
	if want := []string{"participant_id", "bids_id", "session"}; !reflect.DeepEqual(ds.IDColumns, want) {
		t.Errorf("IDColumns = %v, want %v", ds.IDColumns, want)
	}
	// 2 participants x 2 sessions in the overview.
	if len(ds.Overview.Rows) != 4 {
		t.Errorf("overview has %d rows, want 4", len(ds.Overview.Rows))
	}
	// Sub-table rows sum to the input row count.
	total := 0
	for _, label := range ds.PipelineLabels {
		total += len(ds.Pipelines[label].Rows)
	}
	if total != 8 {
		t.Errorf("pipeline rows sum to %d, want 8", total)
	}
}

func TestIngestIdempotentFingerprint(t *testing.T) {
	a, err := Ingest([]byte(goodCSV), "digest.csv")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	b, err := Ingest([]byte(goodCSV), "digest.csv")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if a.Fingerprint != b.Fingerprint {
		t.Errorf("fingerprints differ: %x vs %x", a.Fingerprint, b.Fingerprint)
	}
	if !a.Overview.Equal(b.Overview) {
		t.Error("repeated ingests of the same file produced different overviews")
	}
}

func TestIngestSinglePipelineRoundTrip(t *testing.T) {
	csv := `participant_id,bids_id,session,pipeline_name,pipeline_version,pipeline_complete
P02,B02,ses-1,fmriprep,20.2.7,FAIL
P01,B01,ses-1,fmriprep,20.2.7,SUCCESS
`
	ds, err := Ingest([]byte(csv), "digest.csv")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	// With one pipeline, the overview's status column carries exactly the
	// long-form statuses; keyed lookup recovers each input row.
	col, ok := ds.Overview.Column("fmriprep-20.2.7")
	if !ok {
		t.Fatalf("overview lacks pipeline column: %v", ds.Overview.Columns)
	}
	if want := []string{"SUCCESS", "FAIL"}; !reflect.DeepEqual(col, want) {
		t.Errorf("statuses = %v, want %v (rows ordered by identity key)", col, want)
	}
	if len(ds.Overview.Rows) != 2 {
		t.Errorf("overview rows = %d, want 2", len(ds.Overview.Rows))
	}
}

func TestIngestDecodeError(t *testing.T) {
	_, err := Ingest([]byte{0xff, 0xfe, 0x00, 0x41}, "digest.csv")
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
}

func TestIngestFormatError(t *testing.T) {
	for _, name := range []string{"digest.tsv", "digest", "digest.csv.gz"} {
		_, err := Ingest([]byte(goodCSV), name)
		var fmtErr *FormatError
		if !errors.As(err, &fmtErr) {
			t.Errorf("Ingest(%q): expected *FormatError, got %v", name, err)
		}
	}
	// Extension matching is case-insensitive.
	if _, err := Ingest([]byte(goodCSV), "DIGEST.CSV"); err != nil {
		t.Errorf("uppercase extension rejected: %v", err)
	}
}

func TestIngestParseError(t *testing.T) {
	ragged := "participant_id,session\nP01,ses-1,extra\n"
	_, err := Ingest([]byte(ragged), "digest.csv")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestIngestSchemaError(t *testing.T) {
	csv := "participant_id,session\nP01,ses-1\n"
	_, err := Ingest([]byte(csv), "digest.csv")
	var schErr *SchemaError
	if !errors.As(err, &schErr) {
		t.Fatalf("expected *SchemaError, got %v", err)
	}
	want := []string{"pipeline_complete", "pipeline_name", "pipeline_version"}
	if !reflect.DeepEqual(schErr.Missing, want) {
		t.Errorf("Missing = %v, want %v", schErr.Missing, want)
	}
	if !strings.Contains(schErr.Error(), "missing the following required metadata columns") {
		t.Errorf("unexpected message: %s", schErr.Error())
	}
}

func TestIngestConsistencyError(t *testing.T) {
	csv := `participant_id,bids_id,session,pipeline_name,pipeline_version,pipeline_complete
P01,B01,ses-1,fmriprep,20.2.7,SUCCESS
P01,B01,ses-1,mriqc,1.0,SUCCESS
P02,B02,ses-1,mriqc,1.0,SUCCESS
`
	_, err := Ingest([]byte(csv), "digest.csv")
	var conErr *ConsistencyError
	if !errors.As(err, &conErr) {
		t.Fatalf("expected *ConsistencyError, got %v", err)
	}
}

func TestIngestShapeError(t *testing.T) {
	csv := `participant_id,bids_id,session,pipeline_name,pipeline_version,pipeline_complete
P01,B01,ses-1,fmriprep,20.2.7,SUCCESS
P01,B01,ses-1,fmriprep,20.2.7,FAIL
`
	_, err := Ingest([]byte(csv), "digest.csv")
	var shapeErr *bagel.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected *bagel.ShapeError, got %v", err)
	}
}

func TestNormalizeHeaders(t *testing.T) {
	got := normalizeHeaders([]string{utf8BOM + "participant_id", " session ", "Âge exact", "group label"})
	want := []string{"participant_id", "session", "Age_exact", "group_label"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("normalizeHeaders = %v, want %v", got, want)
	}
}

func TestIngestBOMHeader(t *testing.T) {
	ds, err := Ingest([]byte(utf8BOM+goodCSV), "digest.csv")
	if err != nil {
		t.Fatalf("Ingest with BOM: %v", err)
	}
	if !ds.Overview.HasColumn("participant_id") {
		t.Errorf("BOM not stripped from first header: %v", ds.Overview.Columns)
	}
}
