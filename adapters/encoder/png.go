package encoder

import (
	"bytes"
	"context"
	"image/png"
	"sync"

	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
)

// PNG encodes images to PNG, keeping 16-bit samples and alpha.
type PNG struct {
	pool *bufferPool
}

func NewPNG() *PNG { return &PNG{pool: &bufferPool{}} }

func (p *PNG) CanEncode(format core.Format) bool { return format == core.FormatPNG }

func (p *PNG) Encode(ctx context.Context, img *core.ImageData, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "png.encode", err)
	}

	src, err := stdSource("png.encode", img)
	if err != nil {
		return nil, err
	}

	enc := &png.Encoder{CompressionLevel: png.DefaultCompression, BufferPool: p.pool}
	if opts.Lossless {
		enc.CompressionLevel = png.BestCompression
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, src); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "png.encode", err)
	}
	return buf.Bytes(), nil
}

// bufferPool shares zlib and row buffers across encodes.
type bufferPool struct{ p sync.Pool }

func (b *bufferPool) Get() *png.EncoderBuffer {
	if v, ok := b.p.Get().(*png.EncoderBuffer); ok {
		return v
	}
	return nil
}

func (b *bufferPool) Put(v *png.EncoderBuffer) { b.p.Put(v) }
