package core

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	apperrors "github.com/Skryldev/image-codecs/errors"
)

// ColorSpaceOf guesses the canonical colour space and depth of a standard
// library image from its concrete type.
func ColorSpaceOf(img image.Image) (ColorSpace, BitDepth) {
	switch m := img.(type) {
	case *image.Gray:
		return ColorSpaceGray, BitDepth8
	case *image.Gray16:
		return ColorSpaceGray, BitDepth16
	case *image.YCbCr:
		return ColorSpaceRGB, BitDepth8
	case *image.CMYK:
		return ColorSpaceCMYK, BitDepth8
	case *image.RGBA64, *image.NRGBA64:
		return ColorSpaceRGBA, BitDepth16
	case *image.RGBA:
		if m.Opaque() {
			return ColorSpaceRGB, BitDepth8
		}
	}
	return ColorSpaceRGBA, BitDepth8
}

// StdImageSamples extracts channel-interleaved samples of the requested
// colour space and depth from any image.Image.
func StdImageSamples(img image.Image, cs ColorSpace, depth BitDepth) (PixelBuffer, error) {
	b := img.Bounds()
	ch := cs.Channels()
	if ch == 0 {
		return nil, fmt.Errorf("%w: colour space %q", apperrors.ErrUnsupportedFormat, cs)
	}
	n := b.Dx() * b.Dy() * ch

	switch depth {
	case BitDepth8:
		out := make([]uint8, 0, n)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				out = appendSample8(out, img.At(x, y), cs)
			}
		}
		return EightBit(out), nil
	case BitDepth16:
		if cs == ColorSpaceCMYK {
			return nil, fmt.Errorf("%w: 16-bit cmyk", apperrors.ErrUnsupportedFormat)
		}
		out := make([]uint16, 0, n)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				out = appendSample16(out, img.At(x, y), cs)
			}
		}
		return SixteenBit(out), nil
	}
	return nil, fmt.Errorf("%w: %d-bit samples", apperrors.ErrUnsupportedFormat, depth)
}

func appendSample8(out []uint8, c color.Color, cs ColorSpace) []uint8 {
	switch cs {
	case ColorSpaceGray:
		return append(out, color.GrayModel.Convert(c).(color.Gray).Y)
	case ColorSpaceCMYK:
		k := color.CMYKModel.Convert(c).(color.CMYK)
		return append(out, k.C, k.M, k.Y, k.K)
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	switch cs {
	case ColorSpaceGrayAlpha:
		g := color.GrayModel.Convert(color.NRGBA{R: n.R, G: n.G, B: n.B, A: 0xff}).(color.Gray)
		return append(out, g.Y, n.A)
	case ColorSpaceRGB:
		return append(out, n.R, n.G, n.B)
	}
	return append(out, n.R, n.G, n.B, n.A)
}

func appendSample16(out []uint16, c color.Color, cs ColorSpace) []uint16 {
	if cs == ColorSpaceGray {
		return append(out, color.Gray16Model.Convert(c).(color.Gray16).Y)
	}
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	switch cs {
	case ColorSpaceGrayAlpha:
		g := color.Gray16Model.Convert(color.NRGBA64{R: n.R, G: n.G, B: n.B, A: 0xffff}).(color.Gray16)
		return append(out, g.Y, n.A)
	case ColorSpaceRGB:
		return append(out, n.R, n.G, n.B)
	}
	return append(out, n.R, n.G, n.B, n.A)
}

// FromStdImage builds a canonical image from a standard library image.
func FromStdImage(img image.Image, cs ColorSpace, depth BitDepth) (*Image, error) {
	px, err := StdImageSamples(img, cs, depth)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	switch px := px.(type) {
	case EightBit:
		return FromEightBit(px, b.Dx(), b.Dy(), cs)
	case SixteenBit:
		return FromSixteenBit(px, b.Dx(), b.Dy(), cs)
	}
	return nil, fmt.Errorf("%w: %T", apperrors.ErrUnsupportedFormat, px)
}

// ToStdImage renders the canonical image as a standard library image for
// encoders and drawing steps. Alpha is kept non-premultiplied.
func (img *Image) ToStdImage() (image.Image, error) {
	r := image.Rect(0, 0, img.width, img.height)
	cs := img.colorspace

	switch px := img.Interleaved().(type) {
	case EightBit:
		switch cs {
		case ColorSpaceGray:
			dst := image.NewGray(r)
			copy(dst.Pix, px)
			return dst, nil
		case ColorSpaceCMYK:
			dst := image.NewCMYK(r)
			copy(dst.Pix, px)
			return dst, nil
		case ColorSpaceRGB:
			dst := image.NewRGBA(r)
			for i, j := 0, 0; i < len(px); i, j = i+3, j+4 {
				dst.Pix[j], dst.Pix[j+1], dst.Pix[j+2], dst.Pix[j+3] = px[i], px[i+1], px[i+2], 0xff
			}
			return dst, nil
		case ColorSpaceGrayAlpha:
			dst := image.NewNRGBA(r)
			for i, j := 0, 0; i < len(px); i, j = i+2, j+4 {
				dst.Pix[j], dst.Pix[j+1], dst.Pix[j+2], dst.Pix[j+3] = px[i], px[i], px[i], px[i+1]
			}
			return dst, nil
		case ColorSpaceRGBA:
			dst := image.NewNRGBA(r)
			copy(dst.Pix, px)
			return dst, nil
		}
	case SixteenBit:
		be := binary.BigEndian
		switch cs {
		case ColorSpaceGray:
			dst := image.NewGray16(r)
			for i, v := range px {
				be.PutUint16(dst.Pix[i*2:], v)
			}
			return dst, nil
		case ColorSpaceRGB:
			dst := image.NewRGBA64(r)
			for i, j := 0, 0; i < len(px); i, j = i+3, j+8 {
				be.PutUint16(dst.Pix[j:], px[i])
				be.PutUint16(dst.Pix[j+2:], px[i+1])
				be.PutUint16(dst.Pix[j+4:], px[i+2])
				be.PutUint16(dst.Pix[j+6:], 0xffff)
			}
			return dst, nil
		case ColorSpaceGrayAlpha:
			dst := image.NewNRGBA64(r)
			for i, j := 0, 0; i < len(px); i, j = i+2, j+8 {
				be.PutUint16(dst.Pix[j:], px[i])
				be.PutUint16(dst.Pix[j+2:], px[i])
				be.PutUint16(dst.Pix[j+4:], px[i])
				be.PutUint16(dst.Pix[j+6:], px[i+1])
			}
			return dst, nil
		case ColorSpaceRGBA:
			dst := image.NewNRGBA64(r)
			for i, v := range px {
				be.PutUint16(dst.Pix[i*2:], v)
			}
			return dst, nil
		}
	}
	return nil, fmt.Errorf("%w: %d-bit %s", apperrors.ErrUnsupportedFormat, img.depth, cs)
}
