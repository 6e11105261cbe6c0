package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// DefaultChunkSize is the read size used when the caller passes 0.
const DefaultChunkSize = 32 * 1024

// ErrTooLarge reports a source longer than the configured byte limit.
var ErrTooLarge = errors.New("input exceeds size limit")

// chunkPool holds DefaultChunkSize read buffers shared by ReadSource calls.
var chunkPool = sync.Pool{
	New: func() any {
		b := make([]byte, DefaultChunkSize)
		return &b
	},
}

func acquireChunk(size int) ([]byte, func()) {
	if size != DefaultChunkSize {
		return make([]byte, size), func() {}
	}
	p := chunkPool.Get().(*[]byte)
	return *p, func() { chunkPool.Put(p) }
}

// ReadSource drains r into a slice owned by the caller, checking ctx before
// every chunk. A positive limit caps the accepted size: one byte past it
// fails with ErrTooLarge.
func ReadSource(ctx context.Context, r io.Reader, chunkSize int, limit int64) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	chunk, release := acquireChunk(chunkSize)
	defer release()

	var buf bytes.Buffer
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		buf.Write(chunk[:n])
		if limit > 0 && int64(buf.Len()) > limit {
			return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
		}
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
