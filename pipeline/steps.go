package pipeline

import (
	"context"
	"fmt"

	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
)

// ── Decode ────────────────────────────────────────────────────────────────────

// DecodeStep turns the encoded bytes in img.Data into a canonical image
// using a fresh decoder from the registry.
//
// Decoders are synchronous, so the decode runs on its own goroutine and the
// step returns as soon as ctx is done. An abandoned decode finishes in the
// background and its result is discarded.
type DecodeStep struct {
	Registry core.Registry
	Options  core.DecoderOptions
	// HeadersOnly stops after header inspection; Image is then nil and
	// Header holds the record.
	HeadersOnly bool
}

func (s *DecodeStep) Name() string { return "decode" }

type decodeResult struct {
	md    *core.Metadata
	img   *core.Image
	err   error
	panic any
}

func (s *DecodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if img.Image != nil {
		return img, nil // already decoded
	}
	if len(img.Data) == 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, s.Name(), apperrors.ErrEmptyInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	dec, ok := core.NewDecoder(s.Registry, img.Format, img.Data, s.Options)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryDecode, s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, img.Format))
	}

	done := make(chan decodeResult, 1)
	go func() {
		var r decodeResult
		defer func() {
			if p := recover(); p != nil {
				r.panic = p
			}
			done <- r
		}()
		r.md, r.err = dec.ReadHeaders()
		if r.err != nil || s.HeadersOnly {
			return
		}
		r.img, r.err = dec.Decode()
	}()

	var r decodeResult
	select {
	case <-ctx.Done():
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), ctx.Err())
	case r = <-done:
	}
	if r.panic != nil {
		// Integration faults surface on the caller's goroutine.
		panic(r.panic)
	}
	if r.err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, dec.Name(), r.err)
	}

	out := *img
	out.Image = r.img
	out.Header = r.md
	return &out, nil
}

// ── Format conversion ─────────────────────────────────────────────────────────

// FormatStep sets the target format for the subsequent encode step.
type FormatStep struct {
	Format core.Format
}

func (s *FormatStep) Name() string { return "format" }

func (s *FormatStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	out := *img
	out.Format = s.Format
	return &out, nil
}

// ── Quality ───────────────────────────────────────────────────────────────────

// QualityStep records the desired encode quality for EncodeStep.
type QualityStep struct {
	Quality int
}

func (s *QualityStep) Name() string { return "quality" }

func (s *QualityStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	if s.Quality < 0 || s.Quality > 100 {
		return nil, apperrors.New(apperrors.CategoryConfig, s.Name(),
			fmt.Errorf("quality %d out of range 1-100", s.Quality))
	}
	out := *img
	out.Quality = s.Quality
	return &out, nil
}

// ── Encode ────────────────────────────────────────────────────────────────────

// EncodeStep serialises the canonical image into img.Format using the
// registry.
type EncodeStep struct {
	Registry    core.Registry
	BaseOptions core.EncodeOptions
}

func (s *EncodeStep) Name() string { return "encode" }

func (s *EncodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	enc, ok := s.Registry.EncoderFor(img.Format)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryEncode, s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, img.Format))
	}

	opts := s.BaseOptions
	if img.Quality > 0 {
		opts.Quality = img.Quality
	}

	data, err := enc.Encode(ctx, img, opts)
	if err != nil {
		return nil, err
	}

	out := *img
	out.Data = data
	out.SizeBytes = int64(len(data))
	return &out, nil
}

// ── AdaptiveCompress ──────────────────────────────────────────────────────────

// AdaptiveCompressStep lowers JPEG/WebP quality step by step until the
// encoded size fits TargetSizeBytes or MinQuality is reached.
type AdaptiveCompressStep struct {
	Registry        core.Registry
	TargetSizeBytes int64
	MinQuality      int
	MaxQuality      int
	StepSize        int
}

func (s *AdaptiveCompressStep) Name() string { return "adaptive_compress" }

func (s *AdaptiveCompressStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if s.TargetSizeBytes <= 0 {
		return img, nil
	}
	if img.Format != core.FormatJPEG && img.Format != core.FormatWebP {
		return img, nil // quality has no effect
	}
	enc, ok := s.Registry.EncoderFor(img.Format)
	if !ok {
		return img, nil
	}

	quality := s.MaxQuality
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	minQ := s.MinQuality
	if minQ <= 0 || minQ > quality {
		minQ = quality
	}
	step := s.StepSize
	if step <= 0 {
		step = 5
	}

	var (
		best []byte
		used int
	)
	for ; quality >= minQ; quality -= step {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
		}
		data, err := enc.Encode(ctx, img, core.EncodeOptions{Quality: quality})
		if err != nil {
			return nil, err
		}
		best, used = data, quality
		if int64(len(data)) <= s.TargetSizeBytes {
			break
		}
	}

	out := *img
	out.Data = best
	out.SizeBytes = int64(len(best))
	out.Quality = used
	return &out, nil
}

var (
	_ core.Step = (*DecodeStep)(nil)
	_ core.Step = (*FormatStep)(nil)
	_ core.Step = (*QualityStep)(nil)
	_ core.Step = (*EncodeStep)(nil)
	_ core.Step = (*AdaptiveCompressStep)(nil)
)
