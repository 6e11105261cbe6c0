package encoder

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Skryldev/image-codecs/codec/zraw"
	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
)

// ZRAW stores the canonical samples losslessly, at their original depth.
type ZRAW struct{}

func NewZRAW() *ZRAW { return &ZRAW{} }

func (z *ZRAW) CanEncode(format core.Format) bool { return format == core.FormatZRAW }

var zrawColorSpaces = map[core.ColorSpace]zraw.ColorSpace{
	core.ColorSpaceGray:      zraw.Gray,
	core.ColorSpaceGrayAlpha: zraw.GrayAlpha,
	core.ColorSpaceRGB:       zraw.RGB,
	core.ColorSpaceRGBA:      zraw.RGBA,
	core.ColorSpaceCMYK:      zraw.CMYK,
}

func (z *ZRAW) Encode(ctx context.Context, img *core.ImageData, _ core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "zraw.encode", err)
	}
	if img == nil || img.Image == nil {
		return nil, apperrors.New(apperrors.CategoryEncode, "zraw.encode", apperrors.ErrEmptyInput)
	}

	m := img.Image
	cs, ok := zrawColorSpaces[m.ColorSpace()]
	if !ok {
		return nil, apperrors.New(apperrors.CategoryEncode, "zraw.encode",
			fmt.Errorf("%w: colour space %q", apperrors.ErrUnsupportedFormat, m.ColorSpace()))
	}
	hdr := zraw.Header{
		Width:      uint32(m.Width()),
		Height:     uint32(m.Height()),
		ColorSpace: cs,
		Depth:      uint8(m.Depth()),
	}

	var px zraw.Result
	switch s := m.Interleaved().(type) {
	case core.EightBit:
		px = zraw.U8(s)
	case core.SixteenBit:
		px = zraw.U16(s)
	}

	var buf bytes.Buffer
	if err := zraw.Encode(&buf, hdr, px); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "zraw.encode", err)
	}
	return buf.Bytes(), nil
}
