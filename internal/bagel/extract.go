package bagel

import (
	"fmt"
	"sort"
	"strings"

	"digest/internal/table"
)

// keyOf builds a composite map key from the given cell indexes. 0x1f is an
// unlikely separator in tabular data (same trick as a dedup business key).
func keyOf(row []string, idx []int) string {
	var b strings.Builder
	for i, j := range idx {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(row[j])
	}
	return b.String()
}

// Extraction is the result of partitioning a bagel by pipeline: one sub-table
// per distinct (pipeline_name, pipeline_version), keyed by the synthesized
// "{name}-{version}" label. Labels preserves deterministic (name, version)
// order for display.
type Extraction struct {
	Labels    []string
	Pipelines map[string]*table.Table
}

// ExtractPipelines groups the bagel's rows by (pipeline_name,
// pipeline_version). Each sub-table keeps every non-grouping column and is
// sorted by (participant_id, session) ascending. Every input row lands in
// exactly one sub-table, so sub-table row counts sum to the input row count.
func ExtractPipelines(t *table.Table) (*Extraction, error) {
	nameIdx := t.Index(ColPipelineName)
	verIdx := t.Index(ColPipelineVersion)
	if nameIdx < 0 || verIdx < 0 {
		return nil, fmt.Errorf("extract pipelines: input lacks %s/%s columns", ColPipelineName, ColPipelineVersion)
	}

	type group struct{ name, version string }
	groups := make(map[group][][]string)
	var order []group
	for _, row := range t.Rows {
		g := group{row[nameIdx], row[verIdx]}
		if _, seen := groups[g]; !seen {
			order = append(order, g)
		}
		groups[g] = append(groups[g], row)
	}
	// Deterministic order: by (name, version), not label string, so that
	// "fmriprep-20.2" sorts before "fmriprep-20.2.7" the same way every run.
	sort.Slice(order, func(a, b int) bool {
		if order[a].name != order[b].name {
			return order[a].name < order[b].name
		}
		return order[a].version < order[b].version
	})

	ex := &Extraction{Pipelines: make(map[string]*table.Table, len(order))}
	for _, g := range order {
		sub := table.New(t.Columns...)
		sub.Rows = groups[g]
		sub = sub.Drop(ColPipelineName, ColPipelineVersion)
		sub.SortRows(ColParticipant, ColSession)
		label := g.name + PipelineLabelSep + g.version
		ex.Labels = append(ex.Labels, label)
		ex.Pipelines[label] = sub
	}
	return ex, nil
}
