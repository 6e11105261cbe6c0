// Package vips binds libvips to the core decoder and encoder contracts.
package vips

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/image-codecs/adapters/encoder"
	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	DefaultQuality int
	MaxCacheSize   int
	MaxWorkers     int
	ReportLeaks    bool
}

// Backend is a libvips-powered decoder factory and encoder.
// Safe for concurrent use across goroutines.
type Backend struct {
	cfg  BackendConfig
	png  *encoder.PNG
	stop sync.Once
}

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg BackendConfig) *Backend {
	if cfg.DefaultQuality <= 0 {
		cfg.DefaultQuality = 85
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	govips.Startup(&govips.Config{
		ConcurrencyLevel: cfg.MaxWorkers,
		MaxCacheSize:     cfg.MaxCacheSize,
		ReportLeaks:      cfg.ReportLeaks,
		CollectStats:     true,
	})
	return &Backend{cfg: cfg, png: encoder.NewPNG()}
}

// Shutdown releases all libvips resources. libvips cannot be started
// again afterwards; repeated calls are no-ops.
func (b *Backend) Shutdown() {
	b.stop.Do(govips.Shutdown)
}

// ─── Decoder ──────────────────────────────────────────────────────────────────

// Factory returns a DecoderFactory that decodes format through libvips.
func (b *Backend) Factory(format core.Format) core.DecoderFactory {
	return func(data []byte, opts core.DecoderOptions) core.Decoder {
		return core.NewAdapter("VIPS Decoder", format, newCodec(format, data), opts)
	}
}

// ─── Encoder ──────────────────────────────────────────────────────────────────

func (b *Backend) CanEncode(f core.Format) bool {
	switch f {
	case core.FormatJPEG, core.FormatPNG, core.FormatWebP:
		return true
	}
	return false
}

// Encode hands the canonical image to libvips as lossless PNG and exports
// it in img.Format.
func (b *Backend) Encode(ctx context.Context, img *core.ImageData, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode", err)
	}
	if !b.CanEncode(img.Format) {
		return nil, apperrors.New(apperrors.CategoryEncode, "vips.encode",
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, img.Format))
	}

	staged, err := b.png.Encode(ctx, img, core.EncodeOptions{})
	if err != nil {
		return nil, err
	}
	ref, err := govips.NewImageFromBuffer(staged)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode.load", err)
	}
	defer ref.Close()

	quality := opts.Quality
	if quality <= 0 {
		quality = b.cfg.DefaultQuality
	}

	switch img.Format {
	case core.FormatJPEG:
		ep := govips.NewJpegExportParams()
		ep.Quality = quality
		ep.StripMetadata = opts.StripEXIF
		ep.Interlace = opts.Interlaced
		buf, _, err := ref.ExportJpeg(ep)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode.jpeg", err)
		}
		return buf, nil

	case core.FormatPNG:
		ep := govips.NewPngExportParams()
		ep.StripMetadata = opts.StripEXIF
		ep.Interlace = opts.Interlaced
		buf, _, err := ref.ExportPng(ep)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode.png", err)
		}
		return buf, nil

	default:
		ep := govips.NewWebpExportParams()
		ep.Quality = quality
		ep.Lossless = opts.Lossless
		ep.StripMetadata = opts.StripEXIF
		buf, _, err := ref.ExportWebp(ep)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode.webp", err)
		}
		return buf, nil
	}
}

// ─── RegisterVipsBackend ──────────────────────────────────────────────────────

// RegisterVipsBackend replaces the Go codecs with libvips for JPEG, PNG and
// WebP. ZRAW stays on its native codec.
func RegisterVipsBackend(reg core.Registry, b *Backend) {
	for _, f := range []core.Format{core.FormatJPEG, core.FormatPNG, core.FormatWebP} {
		reg.RegisterDecoder(f, b.Factory(f))
		reg.RegisterEncoder(f, b)
	}
}

var _ core.Encoder = (*Backend)(nil)
