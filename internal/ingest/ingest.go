// Package ingest orchestrates the path from a raw CSV upload to a loaded
// Dataset: decode → file-type gate → parse → schema check → consistency
// check → pivot. Each step short-circuits with a typed error and the caller
// never sees partial results.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zeebo/xxh3"

	"digest/internal/bagel"
	"digest/internal/dataset"
	"digest/internal/metrics"
	"digest/internal/schema"
	"digest/internal/table"
)

// Ingest runs the full pipeline over a decoded upload. filename gates the
// accepted file type; only a ".csv" suffix (case-insensitive) is recognized.
// On success the returned Dataset is complete and immutable; on failure the
// error is one of the types in this package, or *bagel.ShapeError.
func Ingest(contents []byte, filename string) (*dataset.Dataset, error) {
	start := time.Now()
	ds, err := run(contents, filename)
	metrics.RecordIngest(err, time.Since(start))
	return ds, err
}

func run(contents []byte, filename string) (*dataset.Dataset, error) {
	if !utf8.Valid(contents) {
		return nil, &DecodeError{Err: errInvalidUTF8}
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, &FormatError{Filename: filename}
	}
	long, err := parseCSV(bytes.NewReader(contents))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return IngestTable(long)
}

// IngestTable runs the schema, consistency, and pivot steps over an
// already-parsed long-form table. Sources that do not go through CSV bytes
// (e.g. a Postgres table) enter here.
func IngestTable(long *table.Table) (*dataset.Dataset, error) {
	sch, err := schema.Load()
	if err != nil {
		return nil, err
	}
	if missing := bagel.MissingRequiredColumns(long, sch.RequiredColumns()); len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	idCols := bagel.IDColumns(long)
	ex, err := bagel.ExtractPipelines(long)
	if err != nil {
		return nil, err
	}
	if !bagel.SameIdentityAcrossPipelines(ex, idCols) {
		return nil, &ConsistencyError{}
	}
	overview, err := bagel.Overview(long, idCols)
	if err != nil {
		return nil, err
	}

	return &dataset.Dataset{
		Overview:       overview,
		Pipelines:      ex.Pipelines,
		PipelineLabels: ex.Labels,
		Sessions:       distinctSessions(long),
		IDColumns:      idCols,
		Fingerprint:    fingerprint(long),
	}, nil
}

// distinctSessions returns session labels in order of first appearance, so
// the session selector keeps the chronological order of the input.
func distinctSessions(t *table.Table) []string {
	col, ok := t.Column(bagel.ColSession)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(col))
	var out []string
	for _, s := range col {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// fingerprint hashes the canonical CSV rendering of the long table, so the
// same logical content fingerprints identically regardless of source.
func fingerprint(t *table.Table) uint64 {
	h := xxh3.New()
	_ = t.WriteCSV(h)
	return h.Sum64()
}

// errInvalidUTF8 is the cause recorded inside DecodeError.
var errInvalidUTF8 = errors.New("invalid byte sequence")

func parseCSV(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	t := table.New(normalizeHeaders(header)...)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := make([]string, len(row))
		copy(rec, row)
		if err := t.Append(rec); err != nil {
			return nil, err
		}
	}
	return t, nil
}
