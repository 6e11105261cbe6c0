package decoder

import (
	"github.com/Skryldev/image-codecs/codec/pngcodec"
	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
)

// NewPNG returns a decoder for PNG data.
func NewPNG(data []byte, opts core.DecoderOptions) core.Decoder {
	return core.NewAdapter("PNG Decoder", core.FormatPNG, &pngCodec{dec: pngcodec.NewDecoder(data)}, opts)
}

type pngCodec struct {
	dec *pngcodec.Decoder
}

func (c *pngCodec) DecodeHeaders() error {
	return apperrors.Translate("png", apperrors.StageHeaders, c.dec.DecodeHeaders())
}

func (c *pngCodec) DecodePixels() (core.PixelBuffer, error) {
	res, err := c.dec.Decode()
	if err != nil {
		stage := apperrors.StagePixels
		if _, ok := c.dec.Info(); !ok {
			stage = apperrors.StageHeaders
		}
		return nil, apperrors.Translate("png", stage, err)
	}
	switch px := res.(type) {
	case pngcodec.U8:
		return core.EightBit(px), nil
	case pngcodec.U16:
		return core.SixteenBit(px), nil
	}
	return nil, apperrors.Decodef(apperrors.KindPixelReconstruction, "png", "unexpected result %T", res)
}

func (c *pngCodec) Dimensions() (int, int, bool) { return c.dec.Dimensions() }

func (c *pngCodec) Depth() (core.BitDepth, bool) {
	d, ok := c.dec.Depth()
	return core.BitDepth(d), ok
}

func (c *pngCodec) Colorspace() (core.ColorSpace, bool) {
	l, ok := c.dec.Layout()
	if !ok {
		return core.ColorSpaceUnknown, false
	}
	switch l {
	case pngcodec.Luma:
		return core.ColorSpaceGray, true
	case pngcodec.LumaA:
		return core.ColorSpaceGrayAlpha, true
	case pngcodec.RGB:
		return core.ColorSpaceRGB, true
	}
	return core.ColorSpaceRGBA, true
}

func (c *pngCodec) Info() (core.CodecInfo, bool) {
	info, ok := c.dec.Info()
	if !ok {
		return core.CodecInfo{}, false
	}
	return core.CodecInfo{
		Gamma:         info.Gamma,
		EXIF:          info.EXIF,
		HasICCProfile: info.ICCProfile,
		Interlaced:    info.Interlace == 1,
	}, true
}
