package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// normalizeHeaders canonicalizes parsed CSV header names: BOM strip on the
// first cell, surrounding whitespace trimmed, accents folded to ASCII, and
// spaces converted to underscores. Required schema columns are already in
// this form; arbitrary phenotypic columns get a predictable shape.
func normalizeHeaders(h []string) []string {
	out := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		out[i] = strings.ReplaceAll(foldASCII(c), " ", "_")
	}
	return out
}

// foldASCII strips accents: decompose, remove nonspacing marks, recompose.
func foldASCII(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
