// Package schema holds the static column schema for long-form "bagel" digest
// files and the closed set of pipeline completion statuses.
//
// The schema is a nested JSON document mapping column category → column name →
// properties (at minimum an IsRequired flag). It is embedded at build time and
// decoded once; it is configuration, not runtime input, and is not editable
// while the process runs.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

//go:embed bagel_schema.json
var bagelSchemaJSON []byte

// ColumnSpec describes one schema column.
type ColumnSpec struct {
	Description string `json:"Description,omitempty"`
	IsRequired  bool   `json:"IsRequired"`
}

// Schema maps column category → column name → spec.
type Schema map[string]map[string]ColumnSpec

var (
	loadOnce sync.Once
	loaded   Schema
	loadErr  error
)

// Load decodes the embedded bagel schema. The decode happens once; subsequent
// calls return the cached value.
func Load() (Schema, error) {
	loadOnce.Do(func() {
		var s Schema
		if err := json.Unmarshal(bagelSchemaJSON, &s); err != nil {
			loadErr = fmt.Errorf("decode bagel schema: %w", err)
			return
		}
		loaded = s
	})
	return loaded, loadErr
}

// RequiredColumns returns the names of all columns flagged IsRequired, sorted
// for deterministic error messages.
func (s Schema) RequiredColumns() []string {
	var req []string
	for _, cols := range s {
		for name, props := range cols {
			if props.IsRequired {
				req = append(req, name)
			}
		}
	}
	sort.Strings(req)
	return req
}

// Pipeline completion statuses. The set is closed: filter predicates validate
// against it and the legend is generated from it.
const (
	StatusSuccess     = "SUCCESS"
	StatusFail        = "FAIL"
	StatusUnavailable = "UNAVAILABLE"
)

// statusDesc pairs each status with its human-readable description, in legend
// display order.
var statusDesc = []struct{ Status, Desc string }{
	{StatusSuccess, "All stages of pipeline finished successfully (all expected output files present)."},
	{StatusFail, "At least one stage of the pipeline failed."},
	{StatusUnavailable, "Pipeline has not yet been run (output directory not available)."},
}

// Statuses returns the recognized completion statuses in display order.
func Statuses() []string {
	out := make([]string, len(statusDesc))
	for i, sd := range statusDesc {
		out[i] = sd.Status
	}
	return out
}

// KnownStatus reports whether s is a recognized completion status.
func KnownStatus(s string) bool {
	for _, sd := range statusDesc {
		if sd.Status == s {
			return true
		}
	}
	return false
}

// Legend renders the status descriptions as a multi-line "STATUS: description"
// string for display next to the overview table.
func Legend() string {
	lines := make([]string, len(statusDesc))
	for i, sd := range statusDesc {
		lines[i] = sd.Status + ": " + sd.Desc
	}
	return strings.Join(lines, "\n")
}
