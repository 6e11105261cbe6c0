package core

import (
	"fmt"
	"math"

	apperrors "github.com/Skryldev/image-codecs/errors"
)

// Image is the canonical decoded image. Samples are stored planar, one
// contiguous plane per channel. Geometry, colour space and bit depth are
// fixed at construction; Metadata is attached by the decoder that built it.
type Image struct {
	pixels     PixelBuffer
	width      int
	height     int
	colorspace ColorSpace
	depth      BitDepth

	Metadata *Metadata
}

// FromEightBit builds an 8-bit image from interleaved samples.
func FromEightBit(samples []uint8, width, height int, cs ColorSpace) (*Image, error) {
	if err := checkGeometry(len(samples), width, height, cs); err != nil {
		return nil, err
	}
	planar, err := DeinterleaveU8(samples, cs.Channels())
	if err != nil {
		return nil, err
	}
	return &Image{pixels: EightBit(planar), width: width, height: height, colorspace: cs, depth: BitDepth8}, nil
}

// FromSixteenBit builds a 16-bit image from interleaved samples.
func FromSixteenBit(samples []uint16, width, height int, cs ColorSpace) (*Image, error) {
	if err := checkGeometry(len(samples), width, height, cs); err != nil {
		return nil, err
	}
	planar, err := DeinterleaveU16(samples, cs.Channels())
	if err != nil {
		return nil, err
	}
	return &Image{pixels: SixteenBit(planar), width: width, height: height, colorspace: cs, depth: BitDepth16}, nil
}

func checkGeometry(n, width, height int, cs ColorSpace) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", apperrors.ErrInvalidDimensions, width, height)
	}
	ch := cs.Channels()
	if ch == 0 {
		return fmt.Errorf("%w: colour space %q", apperrors.ErrSampleCount, cs)
	}
	if width > math.MaxInt/height/ch {
		return fmt.Errorf("%w: %dx%d %s overflows the sample count",
			apperrors.ErrInvalidDimensions, width, height, cs)
	}
	if want := width * height * ch; n != want {
		return fmt.Errorf("%w: got %d samples, %dx%d %s needs %d",
			apperrors.ErrSampleCount, n, width, height, cs, want)
	}
	return nil
}

func (img *Image) Width() int             { return img.width }
func (img *Image) Height() int            { return img.height }
func (img *Image) Dimensions() (int, int) { return img.width, img.height }
func (img *Image) ColorSpace() ColorSpace { return img.colorspace }
func (img *Image) Depth() BitDepth        { return img.depth }
func (img *Image) Pixels() PixelBuffer    { return img.pixels }
func (img *Image) Channels() int          { return img.colorspace.Channels() }
func (img *Image) planeLen() int          { return img.width * img.height }

// Channel returns plane i as the active variant (EightBit or SixteenBit).
// The returned slice aliases the image's storage.
func (img *Image) Channel(i int) PixelBuffer {
	if i < 0 || i >= img.Channels() {
		panic(fmt.Sprintf("core: channel %d out of range for %s", i, img.colorspace))
	}
	lo, hi := i*img.planeLen(), (i+1)*img.planeLen()
	switch px := img.pixels.(type) {
	case EightBit:
		return px[lo:hi]
	case SixteenBit:
		return px[lo:hi]
	}
	panic(fmt.Sprintf("core: image holds %T", img.pixels))
}

// Interleaved returns a fresh channel-interleaved copy of the samples.
func (img *Image) Interleaved() PixelBuffer {
	switch px := img.pixels.(type) {
	case EightBit:
		out, _ := Interleave([]uint8(px), img.Channels())
		return EightBit(out)
	case SixteenBit:
		out, _ := Interleave([]uint16(px), img.Channels())
		return SixteenBit(out)
	}
	panic(fmt.Sprintf("core: image holds %T", img.pixels))
}

// WithMetadata returns a shallow copy of img carrying md. Pixel storage is
// shared.
func (img *Image) WithMetadata(md *Metadata) *Image {
	out := *img
	out.Metadata = md
	return &out
}
