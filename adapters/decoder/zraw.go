package decoder

import (
	"github.com/Skryldev/image-codecs/codec/zraw"
	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
)

// NewZRAW returns a decoder for zstd-compressed raw samples.
func NewZRAW(data []byte, opts core.DecoderOptions) core.Decoder {
	return core.NewAdapter("ZRAW Decoder", core.FormatZRAW, &zrawCodec{dec: zraw.NewDecoder(data)}, opts)
}

type zrawCodec struct {
	dec *zraw.Decoder
}

var zrawColorSpaces = map[zraw.ColorSpace]core.ColorSpace{
	zraw.Gray:      core.ColorSpaceGray,
	zraw.GrayAlpha: core.ColorSpaceGrayAlpha,
	zraw.RGB:       core.ColorSpaceRGB,
	zraw.RGBA:      core.ColorSpaceRGBA,
	zraw.CMYK:      core.ColorSpaceCMYK,
}

func (c *zrawCodec) DecodeHeaders() error {
	return apperrors.Translate("zraw", apperrors.StageHeaders, c.dec.DecodeHeaders())
}

func (c *zrawCodec) DecodePixels() (core.PixelBuffer, error) {
	res, err := c.dec.Decode()
	if err != nil {
		return nil, apperrors.Translate("zraw", apperrors.StagePixels, err)
	}
	switch px := res.(type) {
	case zraw.U8:
		return core.EightBit(px), nil
	case zraw.U16:
		return core.SixteenBit(px), nil
	}
	return nil, apperrors.Decodef(apperrors.KindPixelReconstruction, "zraw", "unexpected result %T", res)
}

func (c *zrawCodec) Dimensions() (int, int, bool) { return c.dec.Dimensions() }

func (c *zrawCodec) Depth() (core.BitDepth, bool) {
	h, ok := c.dec.Header()
	return core.BitDepth(h.Depth), ok
}

func (c *zrawCodec) Colorspace() (core.ColorSpace, bool) {
	h, ok := c.dec.Header()
	if !ok {
		return core.ColorSpaceUnknown, false
	}
	cs, ok := zrawColorSpaces[h.ColorSpace]
	return cs, ok
}

// Info is always empty: the container has no gamma or auxiliary data.
func (c *zrawCodec) Info() (core.CodecInfo, bool) {
	_, ok := c.dec.Header()
	return core.CodecInfo{}, ok
}
