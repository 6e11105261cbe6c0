package encoder

import (
	"bytes"
	"context"

	"github.com/gen2brain/webp"

	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
)

// WebP encodes images to WebP without cgo. A system libwebp is used through
// purego when present, otherwise the bundled WASM build.
type WebP struct {
	DefaultQuality int
}

func NewWebP(defaultQuality int) *WebP {
	if defaultQuality <= 0 {
		defaultQuality = 85
	}
	return &WebP{DefaultQuality: defaultQuality}
}

func (w *WebP) CanEncode(format core.Format) bool { return format == core.FormatWebP }

func (w *WebP) Encode(ctx context.Context, img *core.ImageData, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "webp.encode", err)
	}

	src, err := stdSource("webp.encode", img)
	if err != nil {
		return nil, err
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = w.DefaultQuality
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, src, webp.Options{Quality: quality, Lossless: opts.Lossless}); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "webp.encode", err)
	}
	return buf.Bytes(), nil
}
