// Package decoder binds each supported format codec to the core.Decoder
// contract.
package decoder

import (
	"bytes"
	"image"
	"io"

	"github.com/Skryldev/image-codecs/codec/pngcodec"
	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
)

// Register installs the PNG, JPEG, WebP and ZRAW decoders in reg.
func Register(reg core.Registry) {
	reg.RegisterDecoder(core.FormatPNG, NewPNG)
	reg.RegisterDecoder(core.FormatJPEG, NewJPEG)
	reg.RegisterDecoder(core.FormatWebP, NewWebP)
	reg.RegisterDecoder(core.FormatZRAW, NewZRAW)
}

// stdHeader is what a probe learns without decoding pixels.
type stdHeader struct {
	width, height int
	cs            core.ColorSpace
	info          core.CodecInfo
}

// stdCodec adapts an image.Image based decoder (image/jpeg, x/image/webp)
// to core.Codec. Samples are always 8-bit.
type stdCodec struct {
	format string
	data   []byte
	probe  func(data []byte) (stdHeader, error)
	decode func(r io.Reader) (image.Image, error)

	hdr *stdHeader
	err error
}

func (c *stdCodec) DecodeHeaders() error {
	if c.hdr != nil {
		return nil
	}
	if c.err != nil {
		return c.err
	}
	hdr, err := c.probe(c.data)
	if err != nil {
		c.err = apperrors.Translate(c.format, apperrors.StageHeaders, err)
		return c.err
	}
	c.hdr = &hdr
	return nil
}

func (c *stdCodec) DecodePixels() (core.PixelBuffer, error) {
	if err := c.DecodeHeaders(); err != nil {
		return nil, err
	}
	img, err := c.decode(bytes.NewReader(c.data))
	if err != nil {
		return nil, apperrors.Translate(c.format, apperrors.StagePixels, err)
	}
	if b := img.Bounds(); b.Dx() != c.hdr.width || b.Dy() != c.hdr.height {
		return nil, apperrors.Decodef(apperrors.KindPixelReconstruction, c.format,
			"decoded %dx%d, header says %dx%d", b.Dx(), b.Dy(), c.hdr.width, c.hdr.height)
	}
	px, err := core.StdImageSamples(img, c.hdr.cs, core.BitDepth8)
	if err != nil {
		return nil, apperrors.Translate(c.format, apperrors.StagePixels, err)
	}
	return px, nil
}

func (c *stdCodec) Dimensions() (int, int, bool) {
	if c.hdr == nil {
		return 0, 0, false
	}
	return c.hdr.width, c.hdr.height, true
}

func (c *stdCodec) Depth() (core.BitDepth, bool) {
	return core.BitDepth8, c.hdr != nil
}

func (c *stdCodec) Colorspace() (core.ColorSpace, bool) {
	if c.hdr == nil {
		return core.ColorSpaceUnknown, false
	}
	return c.hdr.cs, true
}

func (c *stdCodec) Info() (core.CodecInfo, bool) {
	if c.hdr == nil {
		return core.CodecInfo{}, false
	}
	return c.hdr.info, true
}

// RawEXIF extracts the raw EXIF block of an encoded PNG, JPEG or WebP
// without decoding pixels. It returns nil when there is none or the format
// carries no EXIF.
func RawEXIF(format core.Format, data []byte) []byte {
	switch format {
	case core.FormatPNG:
		dec := pngcodec.NewDecoder(data)
		if dec.DecodeHeaders() != nil {
			return nil
		}
		info, _ := dec.Info()
		return info.EXIF
	case core.FormatJPEG:
		return scanJPEGSegments(data).EXIF
	case core.FormatWebP:
		return scanRIFF(data).info.EXIF
	}
	return nil
}
