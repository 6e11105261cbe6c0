package vips

import (
	"encoding/binary"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/image-codecs/adapters/decoder"
	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
)

// codec is a core.Codec over a libvips image. The image is loaded lazily by
// DecodeHeaders and released once its pixels have been read.
type codec struct {
	format core.Format
	data   []byte

	ref  *govips.ImageRef
	hdr  *header
	err  error
	done bool
}

type header struct {
	width, height int
	cs            core.ColorSpace
	depth         core.BitDepth
	info          core.CodecInfo
}

func newCodec(format core.Format, data []byte) *codec {
	return &codec{format: format, data: data}
}

// fromRef wraps an already loaded image.
func fromRef(format core.Format, ref *govips.ImageRef, exif []byte) (*codec, error) {
	c := &codec{format: format, ref: ref}
	if err := c.describe(exif); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *codec) prefix() string { return "vips/" + string(c.format) }

func (c *codec) DecodeHeaders() error {
	if c.hdr != nil {
		return nil
	}
	if c.err != nil {
		return c.err
	}
	ref, err := govips.NewImageFromBuffer(c.data)
	if err != nil {
		c.err = apperrors.Translate(c.prefix(), apperrors.StageHeaders, err)
		return c.err
	}
	runtime.SetFinalizer(ref, func(r *govips.ImageRef) { r.Close() })
	c.ref = ref
	if err := c.describe(decoder.RawEXIF(c.format, c.data)); err != nil {
		c.err = err
		return err
	}
	return nil
}

func (c *codec) describe(exif []byte) error {
	bands := c.ref.Bands()
	cs := core.ColorSpaceUnknown
	switch bands {
	case 1:
		cs = core.ColorSpaceGray
	case 2:
		cs = core.ColorSpaceGrayAlpha
	case 3:
		cs = core.ColorSpaceRGB
	case 4:
		cs = core.ColorSpaceRGBA
		if c.ref.Interpretation() == govips.InterpretationCMYK {
			cs = core.ColorSpaceCMYK
		}
	default:
		return apperrors.Decodef(apperrors.KindMalformed, c.prefix(), "%d bands", bands)
	}
	depth := core.BitDepth8
	if c.ref.BandFormat() == govips.BandFormatUshort {
		depth = core.BitDepth16
	}
	c.hdr = &header{
		width:  c.ref.Width(),
		height: c.ref.Height(),
		cs:     cs,
		depth:  depth,
		info:   core.CodecInfo{EXIF: exif},
	}
	return nil
}

func (c *codec) DecodePixels() (core.PixelBuffer, error) {
	if err := c.DecodeHeaders(); err != nil {
		return nil, err
	}
	if c.done {
		return nil, apperrors.Decodef(apperrors.KindPixelReconstruction, c.prefix(), "image already released")
	}
	defer c.release()

	switch c.ref.BandFormat() {
	case govips.BandFormatUchar, govips.BandFormatUshort:
	default:
		if err := c.ref.Cast(govips.BandFormatUchar); err != nil {
			return nil, apperrors.Translate(c.prefix(), apperrors.StagePixels, err)
		}
	}
	raw, err := c.ref.ToBytes()
	if err != nil {
		return nil, apperrors.Translate(c.prefix(), apperrors.StagePixels, err)
	}

	if c.hdr.depth == core.BitDepth8 {
		return core.EightBit(raw), nil
	}
	px := make(core.SixteenBit, len(raw)/2)
	for i := range px {
		px[i] = binary.NativeEndian.Uint16(raw[2*i:])
	}
	return px, nil
}

func (c *codec) release() {
	c.done = true
	c.ref.Close()
	runtime.SetFinalizer(c.ref, nil)
}

func (c *codec) Dimensions() (int, int, bool) {
	if c.hdr == nil {
		return 0, 0, false
	}
	return c.hdr.width, c.hdr.height, true
}

func (c *codec) Depth() (core.BitDepth, bool) {
	if c.hdr == nil {
		return core.BitDepthUnknown, false
	}
	return c.hdr.depth, true
}

func (c *codec) Colorspace() (core.ColorSpace, bool) {
	if c.hdr == nil {
		return core.ColorSpaceUnknown, false
	}
	return c.hdr.cs, true
}

func (c *codec) Info() (core.CodecInfo, bool) {
	if c.hdr == nil {
		return core.CodecInfo{}, false
	}
	return c.hdr.info, true
}

var _ core.Codec = (*codec)(nil)
