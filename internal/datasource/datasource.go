// Package datasource abstracts where a digest file's bytes come from when the
// server preloads a dataset at startup: a local path or an HTTP URL. Uploads
// through the web UI do not pass through here; they arrive as decoded bytes.
package datasource

import (
	"context"
	"fmt"
	"io"
)

// Source yields the raw bytes of one digest file.
type Source interface {
	// Open returns a reader over the file contents. The caller closes it.
	Open(ctx context.Context) (io.ReadCloser, error)

	// Name returns the declared filename, which gates the accepted file type
	// at ingest.
	Name() string
}

// MaxFetchBytes caps how much a preload source may yield. Digest files are
// small; anything larger is almost certainly the wrong file.
const MaxFetchBytes = 64 << 20 // 64 MiB

// Fetch opens src and reads its contents fully, enforcing MaxFetchBytes.
func Fetch(ctx context.Context, src Source) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Name(), err)
	}
	if len(data) > MaxFetchBytes {
		return nil, fmt.Errorf("read %s: file exceeds %d bytes", src.Name(), MaxFetchBytes)
	}
	return data, nil
}
