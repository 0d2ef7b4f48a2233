// Package bagel implements the transformations over long-form digest tables:
// identity resolution, required-column validation, per-pipeline extraction,
// cross-pipeline consistency checking, and the long→wide pivot that produces
// the overview table.
//
// A "bagel" is the long-form input: one row per participant-session-pipeline,
// with a completion status. The combination of the identity columns plus
// (pipeline_name, pipeline_version) uniquely identifies a row in valid input.
package bagel

import "digest/internal/table"

// Well-known bagel column names.
const (
	ColParticipant     = "participant_id"
	ColBIDS            = "bids_id"
	ColSession         = "session"
	ColPipelineName    = "pipeline_name"
	ColPipelineVersion = "pipeline_version"
	ColPipelineStatus  = "pipeline_complete"
)

// PipelineLabelSep joins pipeline name and version into a single column label.
const PipelineLabelSep = "-"

// IDColumns returns the ordered column names that identify a unique
// participant-session row. The BIDS identifier participates only when the
// input carries it. Pure function of the column set.
func IDColumns(t *table.Table) []string {
	if t.HasColumn(ColBIDS) {
		return []string{ColParticipant, ColBIDS, ColSession}
	}
	return []string{ColParticipant, ColSession}
}
