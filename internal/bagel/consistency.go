package bagel

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"

	"digest/internal/table"
)

// SameIdentityAcrossPipelines reports whether every extracted sub-table covers
// the same participants and sessions. The check compares the ordered identity
// projection of each sub-table against the first one's; duplicates are
// significant, so the comparison is over the projection as a sequence, not a
// set. Sub-tables are already sorted by (participant_id, session), which makes
// sequence equality the right equivalence.
//
// Projections are compared by a 128-bit xxh3 fingerprint of a canonical,
// injective encoding rather than cell-by-cell, which keeps the check O(rows)
// with a single pass per sub-table.
func SameIdentityAcrossPipelines(ex *Extraction, idCols []string) bool {
	if len(ex.Labels) <= 1 {
		return true
	}
	first := identityFingerprint(ex.Pipelines[ex.Labels[0]], idCols)
	for _, label := range ex.Labels[1:] {
		if identityFingerprint(ex.Pipelines[label], idCols) != first {
			return false
		}
	}
	return true
}

// identityFingerprint hashes the ordered identity projection of t. Each cell
// is length-prefixed so distinct projections cannot encode to the same bytes.
func identityFingerprint(t *table.Table, idCols []string) xxh3.Uint128 {
	idx := make([]int, 0, len(idCols))
	for _, c := range idCols {
		if j := t.Index(c); j >= 0 {
			idx = append(idx, j)
		}
	}
	h := xxh3.New()
	var lenBuf [4]byte
	for _, row := range t.Rows {
		for _, j := range idx {
			binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(row[j])))
			_, _ = h.Write(lenBuf[:])
			_, _ = h.Write([]byte(row[j]))
		}
	}
	return h.Sum128()
}
