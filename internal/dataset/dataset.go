// Package dataset defines the immutable result of a successful ingest and a
// small per-session store with replace-wholesale semantics.
//
// A Dataset is built once per upload and never mutated; filtering and summary
// reads take it as a snapshot. The Store maps session tokens to their current
// Dataset so concurrent users never share state: a failed ingest leaves the
// previous Dataset untouched, and a successful one swaps it atomically.
package dataset

import (
	"sync"

	"digest/internal/table"
)

// Dataset is the wholesale-replaced state produced by one successful ingest.
type Dataset struct {
	// Overview is the wide table: one row per participant-session, one column
	// per pipeline label.
	Overview *table.Table

	// Pipelines maps pipeline label → long-form sub-table; PipelineLabels
	// preserves deterministic order for display.
	Pipelines      map[string]*table.Table
	PipelineLabels []string

	// Sessions lists distinct session labels in order of first appearance in
	// the input.
	Sessions []string

	// IDColumns is the identity key resolved for this input.
	IDColumns []string

	// Fingerprint is an xxh3 content hash of the source bytes; two ingests of
	// the same file produce the same fingerprint.
	Fingerprint uint64
}

// Store holds the current Dataset per session token. The zero value is ready
// to use.
type Store struct {
	mu   sync.RWMutex
	byID map[string]*Dataset
}

// Get returns the Dataset for token, or nil when none has been loaded.
func (s *Store) Get(token string) *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[token]
}

// Put replaces the Dataset for token wholesale.
func (s *Store) Put(token string, d *Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byID == nil {
		s.byID = make(map[string]*Dataset)
	}
	s.byID[token] = d
}

// Drop removes the Dataset for token, if any.
func (s *Store) Drop(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, token)
}
