package pipeline

import (
	"context"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
	"github.com/Skryldev/image-codecs/utils"
)

// Transform steps work on the canonical image and keep its colour space
// and bit depth unless stated otherwise. The attached metadata record is
// cloned and its geometry updated, so the input ImageData is never mutated.

func source(op string, img *core.ImageData) (*core.Image, image.Image, error) {
	if img == nil || img.Image == nil {
		return nil, nil, apperrors.New(apperrors.CategoryPipeline, op, apperrors.ErrEmptyInput)
	}
	std, err := img.Image.ToStdImage()
	if err != nil {
		return nil, nil, apperrors.New(apperrors.CategoryPipeline, op, err)
	}
	return img.Image, std, nil
}

// canvas allocates a drawing target that holds cs at depth without loss.
func canvas(cs core.ColorSpace, depth core.BitDepth, r image.Rectangle) xdraw.Image {
	switch {
	case cs == core.ColorSpaceGray && depth == core.BitDepth16:
		return image.NewGray16(r)
	case cs == core.ColorSpaceGray:
		return image.NewGray(r)
	case cs == core.ColorSpaceCMYK:
		return image.NewCMYK(r)
	case depth == core.BitDepth16:
		return image.NewNRGBA64(r)
	}
	return image.NewNRGBA(r)
}

// replace returns a copy of img holding px, with the metadata record of
// prev carried over.
func replace(img *core.ImageData, prev, px *core.Image) *core.ImageData {
	md := prev.Metadata.Clone()
	if md != nil {
		md.Width, md.Height = px.Dimensions()
		md.ColorSpace = px.ColorSpace()
		md.Depth = px.Depth()
	}
	out := *img
	out.Image = px.WithMetadata(md)
	return &out
}

func rebuild(op string, img *core.ImageData, prev *core.Image, std image.Image, cs core.ColorSpace) (*core.ImageData, error) {
	px, err := core.FromStdImage(std, cs, prev.Depth())
	if err != nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, op, err)
	}
	return replace(img, prev, px), nil
}

// ── Resize ────────────────────────────────────────────────────────────────────

// ResizeStep resizes the image to the given dimensions, preserving aspect ratio
// when one axis is 0.
type ResizeStep struct {
	Width, Height int
	// Resampler controls quality vs speed.  Defaults to draw.BiLinear.
	Resampler xdraw.Interpolator
}

func (s *ResizeStep) Name() string { return "resize" }

func (s *ResizeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	prev, src, err := source(s.Name(), img)
	if err != nil {
		return nil, err
	}

	srcB := src.Bounds()
	dstW, dstH := utils.ScaleDimensions(srcB.Dx(), srcB.Dy(), s.Width, s.Height)
	if dstW == srcB.Dx() && dstH == srcB.Dy() {
		return img, nil // nothing to do
	}
	if dstW <= 0 || dstH <= 0 {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), apperrors.ErrInvalidDimensions)
	}

	sampler := s.Resampler
	if sampler == nil {
		sampler = xdraw.BiLinear
	}
	dst := canvas(prev.ColorSpace(), prev.Depth(), image.Rect(0, 0, dstW, dstH))
	sampler.Scale(dst, dst.Bounds(), src, srcB, xdraw.Src, nil)

	return rebuild(s.Name(), img, prev, dst, prev.ColorSpace())
}

// ── Crop ──────────────────────────────────────────────────────────────────────

// CropStep crops a rectangle from the image.
type CropStep struct {
	X, Y, Width, Height int
}

func (s *CropStep) Name() string { return "crop" }

func (s *CropStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	prev, src, err := source(s.Name(), img)
	if err != nil {
		return nil, err
	}

	rect := image.Rect(s.X, s.Y, s.X+s.Width, s.Y+s.Height)
	if rect.Empty() || !rect.In(src.Bounds()) {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(),
			fmt.Errorf("%w: crop rect %v exceeds image bounds %v", apperrors.ErrInvalidDimensions, rect, src.Bounds()))
	}

	dst := canvas(prev.ColorSpace(), prev.Depth(), image.Rect(0, 0, s.Width, s.Height))
	xdraw.Draw(dst, dst.Bounds(), src, rect.Min, xdraw.Src)

	return rebuild(s.Name(), img, prev, dst, prev.ColorSpace())
}

// ── Thumbnail ────────────────────────────────────────────────────────────────

// ThumbnailStep is a convenience step that combines Resize with square cropping.
type ThumbnailStep struct {
	Size int // square size in pixels
}

func (s *ThumbnailStep) Name() string { return "thumbnail" }

func (s *ThumbnailStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if img == nil || img.Image == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), apperrors.ErrEmptyInput)
	}
	if s.Size <= 0 {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), apperrors.ErrInvalidDimensions)
	}

	// Resize so the smaller side equals Size, then centre-crop.
	w, h := img.Image.Dimensions()
	rw, rh := 0, s.Size
	if w < h {
		rw, rh = s.Size, 0
	}
	resized, err := (&ResizeStep{Width: rw, Height: rh}).Execute(ctx, img)
	if err != nil {
		return nil, err
	}

	w, h = resized.Image.Dimensions()
	return (&CropStep{X: (w - s.Size) / 2, Y: (h - s.Size) / 2, Width: s.Size, Height: s.Size}).Execute(ctx, resized)
}

// ── Grayscale ─────────────────────────────────────────────────────────────────

// GrayscaleStep converts the image to gray, keeping alpha and bit depth.
type GrayscaleStep struct{}

func (s *GrayscaleStep) Name() string { return "grayscale" }

func (s *GrayscaleStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	prev, src, err := source(s.Name(), img)
	if err != nil {
		return nil, err
	}
	cs := core.ColorSpaceGray
	if prev.ColorSpace().HasAlpha() {
		cs = core.ColorSpaceGrayAlpha
	}
	if cs == prev.ColorSpace() {
		return img, nil
	}
	return rebuild(s.Name(), img, prev, src, cs)
}

// ── EXIF strip ────────────────────────────────────────────────────────────────

// StripEXIFStep removes parsed EXIF from the metadata record.
type StripEXIFStep struct{}

func (s *StripEXIFStep) Name() string { return "strip_exif" }

func (s *StripEXIFStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	out := *img
	if img.Image != nil && img.Image.Metadata != nil {
		md := img.Image.Metadata.Clone()
		md.EXIF = nil
		md.Orientation = 1
		out.Image = img.Image.WithMetadata(md)
	}
	if img.Header != nil {
		hdr := img.Header.Clone()
		hdr.EXIF = nil
		hdr.Orientation = 1
		out.Header = hdr
	}
	return &out, nil
}

// ── Auto-orient ───────────────────────────────────────────────────────────────

// AutoOrientStep applies the EXIF orientation to the pixels and resets the
// recorded orientation to 1.
type AutoOrientStep struct{}

func (s *AutoOrientStep) Name() string { return "auto_orient" }

func (s *AutoOrientStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	if img == nil || img.Image == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), apperrors.ErrEmptyInput)
	}
	prev := img.Image
	if prev.Metadata == nil || prev.Metadata.Orientation <= 1 || prev.Metadata.Orientation > 8 {
		return img, nil
	}

	o := prev.Metadata.Orientation
	w, h := prev.Dimensions()
	var (
		px  *core.Image
		err error
	)
	switch buf := prev.Interleaved().(type) {
	case core.EightBit:
		out, ow, oh := reorient([]uint8(buf), w, h, prev.Channels(), o)
		px, err = core.FromEightBit(out, ow, oh, prev.ColorSpace())
	case core.SixteenBit:
		out, ow, oh := reorient([]uint16(buf), w, h, prev.Channels(), o)
		px, err = core.FromSixteenBit(out, ow, oh, prev.ColorSpace())
	default:
		err = fmt.Errorf("%w: %d-bit samples", apperrors.ErrUnsupportedFormat, prev.Depth())
	}
	if err != nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), err)
	}

	out := replace(img, prev, px)
	out.Image.Metadata.Orientation = 1
	return out, nil
}

// reorient maps interleaved samples through EXIF orientation o. Orientations
// 5-8 swap the axes.
func reorient[T any](px []T, w, h, ch, o int) ([]T, int, int) {
	ow, oh := w, h
	if o >= 5 {
		ow, oh = h, w
	}
	out := make([]T, len(px))
	for y := 0; y < oh; y++ {
		for x := 0; x < ow; x++ {
			var sx, sy int
			switch o {
			case 2:
				sx, sy = w-1-x, y
			case 3:
				sx, sy = w-1-x, h-1-y
			case 4:
				sx, sy = x, h-1-y
			case 5:
				sx, sy = y, x
			case 6:
				sx, sy = y, h-1-x
			case 7:
				sx, sy = w-1-y, h-1-x
			case 8:
				sx, sy = w-1-y, x
			default:
				sx, sy = x, y
			}
			copy(out[(y*ow+x)*ch:(y*ow+x+1)*ch], px[(sy*w+sx)*ch:(sy*w+sx+1)*ch])
		}
	}
	return out, ow, oh
}

// ── Watermark ─────────────────────────────────────────────────────────────────

// WatermarkStep composites a watermark image at the given offset.
type WatermarkStep struct {
	Watermark image.Image
	OffsetX   int
	OffsetY   int
}

func (s *WatermarkStep) Name() string { return "watermark" }

func (s *WatermarkStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	prev, src, err := source(s.Name(), img)
	if err != nil {
		return nil, err
	}
	if s.Watermark == nil {
		return img, nil
	}

	dst := canvas(prev.ColorSpace(), prev.Depth(), src.Bounds())
	xdraw.Draw(dst, dst.Bounds(), src, image.Point{}, xdraw.Src)
	offset := image.Point{X: s.OffsetX, Y: s.OffsetY}
	xdraw.Draw(dst, s.Watermark.Bounds().Sub(s.Watermark.Bounds().Min).Add(offset), s.Watermark, s.Watermark.Bounds().Min, xdraw.Over)

	return rebuild(s.Name(), img, prev, dst, prev.ColorSpace())
}

var (
	_ core.Step = (*ResizeStep)(nil)
	_ core.Step = (*CropStep)(nil)
	_ core.Step = (*ThumbnailStep)(nil)
	_ core.Step = (*GrayscaleStep)(nil)
	_ core.Step = (*StripEXIFStep)(nil)
	_ core.Step = (*AutoOrientStep)(nil)
	_ core.Step = (*WatermarkStep)(nil)
)
