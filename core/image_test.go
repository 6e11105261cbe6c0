package core

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Skryldev/image-codecs/errors"
)

func TestDeinterleave(t *testing.T) {
	got, err := Deinterleave([]uint8{1, 2, 3, 4, 5, 6, 7, 8, 9}, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 4, 7, 2, 5, 8, 3, 6, 9}, got)

	single := []uint16{9, 8}
	got16, err := Deinterleave(single, 1)
	require.NoError(t, err)
	assert.Equal(t, single, got16)
	got16[0] = 0
	assert.Equal(t, uint16(9), single[0])
}

func TestDeinterleave_RoundTrip(t *testing.T) {
	for _, ch := range []int{1, 2, 3, 4} {
		in := make([]uint16, 12*ch)
		for i := range in {
			in[i] = uint16(i*4099 + ch)
		}
		planar, err := DeinterleaveU16(in, ch)
		require.NoError(t, err)
		assert.Len(t, planar, len(in))
		back, err := Interleave(planar, ch)
		require.NoError(t, err)
		assert.Equal(t, in, back, "channels=%d", ch)
	}
}

func TestDeinterleave_Errors(t *testing.T) {
	_, err := DeinterleaveU8([]uint8{1, 2, 3, 4}, 3)
	assert.ErrorIs(t, err, apperrors.ErrSampleCount)
	_, err = DeinterleaveU8([]uint8{1}, 0)
	assert.ErrorIs(t, err, apperrors.ErrSampleCount)
}

func TestFromEightBit(t *testing.T) {
	img, err := FromEightBit([]uint8{1, 2, 3, 4, 5, 6}, 2, 1, ColorSpaceRGB)
	require.NoError(t, err)

	w, h := img.Dimensions()
	assert.Equal(t, 2, w)
	assert.Equal(t, 1, h)
	assert.Equal(t, BitDepth8, img.Depth())
	assert.Equal(t, 3, img.Channels())
	assert.Equal(t, EightBit{1, 4, 2, 5, 3, 6}, img.Pixels())
	assert.Equal(t, EightBit{2, 5}, img.Channel(1))
	assert.Equal(t, EightBit{1, 2, 3, 4, 5, 6}, img.Interleaved())
	assert.Panics(t, func() { img.Channel(3) })
}

func TestFromSixteenBit(t *testing.T) {
	img, err := FromSixteenBit([]uint16{65535, 0, 65535, 0}, 2, 2, ColorSpaceGray)
	require.NoError(t, err)
	assert.Equal(t, BitDepth16, img.Depth())
	assert.Equal(t, SixteenBit{65535, 0, 65535, 0}, img.Pixels())
}

func TestImageConstructors_RejectBadGeometry(t *testing.T) {
	tests := []struct {
		name string
		n    int
		w, h int
		cs   ColorSpace
		want error
	}{
		{"short", 5, 2, 1, ColorSpaceRGB, apperrors.ErrSampleCount},
		{"long", 7, 2, 1, ColorSpaceRGB, apperrors.ErrSampleCount},
		{"zero width", 0, 0, 1, ColorSpaceGray, apperrors.ErrInvalidDimensions},
		{"negative height", 3, 3, -1, ColorSpaceGray, apperrors.ErrInvalidDimensions},
		{"unknown colorspace", 4, 2, 2, ColorSpaceUnknown, apperrors.ErrSampleCount},
		{"area overflows", 0, math.MaxInt / 4, 8, ColorSpaceGray, apperrors.ErrInvalidDimensions},
		{"channels overflow", 0, math.MaxInt / 2, 1, ColorSpaceRGB, apperrors.ErrInvalidDimensions},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromEightBit(make([]uint8, tc.n), tc.w, tc.h, tc.cs)
			assert.ErrorIs(t, err, tc.want)
			_, err = FromSixteenBit(make([]uint16, tc.n), tc.w, tc.h, tc.cs)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestWithMetadata(t *testing.T) {
	img, err := FromEightBit([]uint8{1}, 1, 1, ColorSpaceGray)
	require.NoError(t, err)
	md := &Metadata{Width: 1, Height: 1}
	out := img.WithMetadata(md)
	assert.Same(t, md, out.Metadata)
	assert.Nil(t, img.Metadata)
}

func TestMetadata_ParseRawEXIF(t *testing.T) {
	md := &Metadata{Orientation: 5, EXIF: map[string]any{"Make": "x"}}
	require.Error(t, md.ParseRawEXIF([]byte("nonsense")))
	assert.Nil(t, md.EXIF)
	assert.Equal(t, 1, md.Orientation)
	assert.False(t, md.HasEXIF())
}

func TestMetadata_ParseRawEXIF_NoTagsIsAbsent(t *testing.T) {
	// Sound TIFF header, IFD0 with zero entries and no next IFD.
	empty := []byte("II*\x00\x08\x00\x00\x00\x00\x00\x00\x00\x00\x00")
	md := &Metadata{Orientation: 3}
	require.NoError(t, md.ParseRawEXIF(empty))
	assert.Nil(t, md.EXIF)
	assert.Equal(t, 1, md.Orientation)
}

func TestMetadata_Clone(t *testing.T) {
	md := &Metadata{ColorSpace: ColorSpaceRGBA, EXIF: map[string]any{"Make": "a"}}
	c := md.Clone()
	c.EXIF["Make"] = "b"
	assert.Equal(t, "a", md.EXIF["Make"])
	assert.True(t, c.HasAlpha())

	var nilMD *Metadata
	assert.Nil(t, nilMD.Clone())
}

func TestStdImageRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		cs    ColorSpace
		depth BitDepth
		px    PixelBuffer
	}{
		{"gray8", ColorSpaceGray, BitDepth8, EightBit{0, 50, 100, 255}},
		{"graya8", ColorSpaceGrayAlpha, BitDepth8, EightBit{0, 255, 50, 128, 100, 0, 255, 255}},
		{"rgb8", ColorSpaceRGB, BitDepth8, EightBit{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		{"rgba8", ColorSpaceRGBA, BitDepth8, EightBit{1, 2, 3, 255, 4, 5, 6, 128, 7, 8, 9, 1, 10, 11, 12, 0}},
		{"cmyk8", ColorSpaceCMYK, BitDepth8, EightBit{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}},
		{"gray16", ColorSpaceGray, BitDepth16, SixteenBit{0, 1, 65534, 65535}},
		{"rgb16", ColorSpaceRGB, BitDepth16, SixteenBit{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		{"rgba16", ColorSpaceRGBA, BitDepth16, SixteenBit{1, 2, 3, 65535, 4, 5, 6, 65535, 7, 8, 9, 65535, 10, 11, 12, 65535}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var (
				img *Image
				err error
			)
			switch px := tc.px.(type) {
			case EightBit:
				img, err = FromEightBit(px, 2, 2, tc.cs)
			case SixteenBit:
				img, err = FromSixteenBit(px, 2, 2, tc.cs)
			}
			require.NoError(t, err)

			std, err := img.ToStdImage()
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 2, 2), std.Bounds())

			back, err := FromStdImage(std, tc.cs, tc.depth)
			require.NoError(t, err)
			assert.Equal(t, img.Pixels(), back.Pixels())
		})
	}
}

func TestColorSpaceOf(t *testing.T) {
	r := image.Rect(0, 0, 1, 1)
	opaque := image.NewRGBA(r)
	opaque.Set(0, 0, color.White)

	cs, d := ColorSpaceOf(image.NewGray16(r))
	assert.Equal(t, ColorSpaceGray, cs)
	assert.Equal(t, BitDepth16, d)

	cs, _ = ColorSpaceOf(opaque)
	assert.Equal(t, ColorSpaceRGB, cs)

	cs, _ = ColorSpaceOf(image.NewNRGBA(r))
	assert.Equal(t, ColorSpaceRGBA, cs)

	cs, _ = ColorSpaceOf(image.NewYCbCr(r, image.YCbCrSubsampleRatio444))
	assert.Equal(t, ColorSpaceRGB, cs)
}

func TestStdImageSamples_Unsupported(t *testing.T) {
	_, err := StdImageSamples(image.NewCMYK(image.Rect(0, 0, 1, 1)), ColorSpaceCMYK, BitDepth16)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
	_, err = StdImageSamples(image.NewGray(image.Rect(0, 0, 1, 1)), ColorSpaceGray, BitDepthFloat32)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
}
