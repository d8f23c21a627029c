package artifact

import (
	"context"
	"io"
)

// Source yields the bytes of a model artifact.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Location names the artifact for logs.
	Location() string
}

// ReadAll opens src and reads it fully, capped at limit bytes.
func ReadAll(ctx context.Context, src Source, limit int64) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, limit))
}
