package decoder_test

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/gen2brain/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/image-codecs/adapters/decoder"
	"github.com/Skryldev/image-codecs/codec/zraw"
	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type recordingLogger struct{ warns []string }

func (l *recordingLogger) Debug(string, ...interface{})      {}
func (l *recordingLogger) Info(string, ...interface{})       {}
func (l *recordingLogger) Error(string, ...interface{})      {}
func (l *recordingLogger) Warn(msg string, _ ...interface{}) { l.warns = append(l.warns, msg) }

func opts(l core.Logger) core.DecoderOptions {
	return core.DecoderOptions{ParseAuxiliaryMetadata: true, Logger: l}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngChunk(typ string, body []byte) []byte {
	out := make([]byte, 8, 12+len(body))
	binary.BigEndian.PutUint32(out, uint32(len(body)))
	copy(out[4:], typ)
	out = append(out, body...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(out[4:]))
}

// afterIHDR inserts chunks between IHDR and the first IDAT.
func afterIHDR(data []byte, chunks ...[]byte) []byte {
	const at = 8 + 8 + 13 + 4
	out := append([]byte(nil), data[:at]...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return append(out, data[at:]...)
}

func grayPNG(t *testing.T, v uint8) []byte {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return encodePNG(t, img)
}

func gray16PNG(t *testing.T, v uint16) []byte {
	img := image.NewGray16(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetGray16(x, y, color.Gray16{Y: v})
		}
	}
	return encodePNG(t, img)
}

// tiffOrientation is a little-endian TIFF block holding Orientation only.
func tiffOrientation(o uint16) []byte {
	le := binary.LittleEndian
	b := make([]byte, 8+2+12+4)
	copy(b, "II")
	le.PutUint16(b[2:], 42)
	le.PutUint32(b[4:], 8)
	le.PutUint16(b[8:], 1)
	le.PutUint16(b[10:], 0x0112)
	le.PutUint16(b[12:], 3)
	le.PutUint32(b[14:], 1)
	le.PutUint16(b[18:], o)
	return b
}

// ── properties of the decoder contract ────────────────────────────────────────

func TestPNG_Gray8AllWhite(t *testing.T) {
	dec := decoder.NewPNG(grayPNG(t, 255), core.DefaultDecoderOptions())
	img, err := dec.Decode()
	require.NoError(t, err)

	assert.Equal(t, core.EightBit{255, 255, 255, 255}, img.Pixels())
	assert.Equal(t, core.ColorSpaceGray, img.ColorSpace())
	assert.Equal(t, core.BitDepth8, img.Depth())
}

func TestPNG_Gray16AllWhite(t *testing.T) {
	dec := decoder.NewPNG(gray16PNG(t, 65535), core.DefaultDecoderOptions())
	img, err := dec.Decode()
	require.NoError(t, err)

	assert.Equal(t, core.SixteenBit{65535, 65535, 65535, 65535}, img.Pixels())
	assert.Equal(t, core.BitDepth16, img.Depth())
}

func TestPNG_DimensionsAndDepthMatchRecord(t *testing.T) {
	rgba := image.NewNRGBA(image.Rect(0, 0, 3, 5))
	rgba.SetNRGBA(1, 1, color.NRGBA{R: 9, A: 100})

	for name, data := range map[string][]byte{
		"gray8":  grayPNG(t, 1),
		"gray16": gray16PNG(t, 1),
		"rgba8":  encodePNG(t, rgba),
	} {
		t.Run(name, func(t *testing.T) {
			dec := decoder.NewPNG(data, core.DefaultDecoderOptions())
			md, err := dec.ReadHeaders()
			require.NoError(t, err)

			w, h, ok := dec.Dimensions()
			require.True(t, ok)
			assert.Equal(t, md.Width, w)
			assert.Equal(t, md.Height, h)
			assert.Equal(t, md.ColorSpace, dec.OutColorspace())

			img, err := dec.Decode()
			require.NoError(t, err)
			assert.Equal(t, md.Width, img.Width())
			assert.Equal(t, md.Height, img.Height())
			assert.Equal(t, md.Depth, img.Depth())
			assert.Contains(t, []core.BitDepth{core.BitDepth8, core.BitDepth16}, img.Depth())
			assert.Equal(t, md.Depth, img.Pixels().BitDepth())
			assert.Equal(t, md, img.Metadata)
		})
	}
}

func TestPNG_PlanarLayout(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	src.SetNRGBA(1, 0, color.NRGBA{R: 5, G: 6, B: 7, A: 8})

	img, err := decoder.NewPNG(encodePNG(t, src), core.DefaultDecoderOptions()).Decode()
	require.NoError(t, err)
	assert.Equal(t, core.ColorSpaceRGBA, img.ColorSpace())
	assert.Equal(t, core.EightBit{1, 5, 2, 6, 3, 7, 4, 8}, img.Pixels())
	assert.Equal(t, core.EightBit{3, 7}, img.Channel(2))
	assert.Equal(t, core.EightBit{1, 2, 3, 4, 5, 6, 7, 8}, img.Interleaved())
}

func TestPNG_ReadHeadersIdempotent(t *testing.T) {
	data := afterIHDR(grayPNG(t, 3), pngChunk("eXIf", tiffOrientation(6)))
	dec := decoder.NewPNG(data, core.DefaultDecoderOptions())

	first, err := dec.ReadHeaders()
	require.NoError(t, err)
	second, err := dec.ReadHeaders()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NotSame(t, first, second)
	assert.Equal(t, 6, first.Orientation)

	first.EXIF["Orientation"] = uint16(1)
	third, _ := dec.ReadHeaders()
	assert.Equal(t, uint16(6), third.EXIF["Orientation"])
}

func TestPNG_CorruptEXIFIsDropped(t *testing.T) {
	log := &recordingLogger{}
	data := afterIHDR(grayPNG(t, 0), pngChunk("eXIf", []byte("garbage!!!")))
	dec := decoder.NewPNG(data, opts(log))

	md, err := dec.ReadHeaders()
	require.NoError(t, err)
	assert.Nil(t, md.EXIF)
	assert.Equal(t, 1, md.Orientation)
	assert.Equal(t, []string{"metadata.exif.dropped"}, log.warns)

	_, err = dec.Decode()
	assert.NoError(t, err)
}

func TestPNG_TruncatedEXIFIsDropped(t *testing.T) {
	block := tiffOrientation(6)
	binary.LittleEndian.PutUint16(block[8:], 5) // IFD0 claims 5 entries, holds 1
	log := &recordingLogger{}
	data := afterIHDR(grayPNG(t, 0), pngChunk("eXIf", block))

	md, err := decoder.NewPNG(data, opts(log)).ReadHeaders()
	require.NoError(t, err)
	assert.Nil(t, md.EXIF)
	assert.Equal(t, 1, md.Orientation)
	assert.Equal(t, []string{"metadata.exif.dropped"}, log.warns)
}

func TestPNG_AuxiliaryParsingDisabled(t *testing.T) {
	data := afterIHDR(grayPNG(t, 0), pngChunk("eXIf", tiffOrientation(8)))
	md, err := decoder.NewPNG(data, core.DecoderOptions{}).ReadHeaders()
	require.NoError(t, err)
	assert.Nil(t, md.EXIF)
	assert.Equal(t, 1, md.Orientation)
}

func TestPNG_Gamma(t *testing.T) {
	md, err := decoder.NewPNG(grayPNG(t, 0), core.DefaultDecoderOptions()).ReadHeaders()
	require.NoError(t, err)
	assert.Equal(t, core.DefaultGamma, md.Gamma)
	assert.False(t, md.GammaExplicit)

	gama := binary.BigEndian.AppendUint32(nil, 55556)
	md, err = decoder.NewPNG(afterIHDR(grayPNG(t, 0), pngChunk("gAMA", gama)), core.DefaultDecoderOptions()).ReadHeaders()
	require.NoError(t, err)
	assert.Equal(t, 1.8, md.Gamma)
	assert.True(t, md.GammaExplicit)
}

func TestPNG_TruncatedHeader(t *testing.T) {
	dec := decoder.NewPNG(grayPNG(t, 0)[:20], core.DefaultDecoderOptions())

	md, err := dec.ReadHeaders()
	require.Error(t, err)
	assert.Nil(t, md)
	assert.True(t, apperrors.IsKind(err, apperrors.KindTruncated))
	assert.ErrorIs(t, err, apperrors.ErrTruncated)
	assert.Contains(t, err.Error(), "png: ")

	_, _, ok := dec.Dimensions()
	assert.False(t, ok)
	assert.Panics(t, func() { dec.OutColorspace() })

	_, again := dec.Decode()
	assert.Equal(t, err, again)
}

func TestPNG_MalformedHeader(t *testing.T) {
	_, err := decoder.NewPNG([]byte("definitely not a png"), core.DefaultDecoderOptions()).ReadHeaders()
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindMalformed))
	assert.Equal(t, "png: invalid format: not a PNG file", err.Error())
}

func TestPNG_PixelFailureKeepsHeaders(t *testing.T) {
	data := grayPNG(t, 0)
	dec := decoder.NewPNG(data[:len(data)-12], core.DefaultDecoderOptions())

	_, err := dec.ReadHeaders()
	require.NoError(t, err)
	_, err = dec.Decode()
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindTruncated))

	w, h, ok := dec.Dimensions()
	assert.True(t, ok)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
}

func TestPNG_SecondDecodeFails(t *testing.T) {
	dec := decoder.NewPNG(grayPNG(t, 1), core.DefaultDecoderOptions())
	_, err := dec.Decode()
	require.NoError(t, err)

	_, err = dec.Decode()
	assert.ErrorIs(t, err, apperrors.ErrAlreadyDecoded)

	md, err := dec.ReadHeaders()
	require.NoError(t, err)
	assert.Equal(t, 2, md.Width)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "PNG Decoder", decoder.NewPNG(nil, core.DecoderOptions{}).Name())
	assert.Equal(t, "JPEG Decoder", decoder.NewJPEG(nil, core.DecoderOptions{}).Name())
	assert.Equal(t, "WebP Decoder", decoder.NewWebP(nil, core.DecoderOptions{}).Name())
	assert.Equal(t, "ZRAW Decoder", decoder.NewZRAW(nil, core.DecoderOptions{}).Name())
}

// ── other formats ─────────────────────────────────────────────────────────────

func TestJPEG_GrayWithEXIF(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 8, 4))
	for i := range src.Pix {
		src.Pix[i] = 128
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, &jpeg.Options{Quality: 95}))
	enc := buf.Bytes()

	body := append([]byte("Exif\x00\x00"), tiffOrientation(3)...)
	app1 := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(app1[2:], uint16(2+len(body)))
	data := append(append(append([]byte(nil), enc[:2]...), append(app1, body...)...), enc[2:]...)

	dec := decoder.NewJPEG(data, core.DefaultDecoderOptions())
	md, err := dec.ReadHeaders()
	require.NoError(t, err)
	assert.Equal(t, core.FormatJPEG, md.Format)
	assert.Equal(t, core.ColorSpaceGray, md.ColorSpace)
	assert.Equal(t, 3, md.Orientation)
	assert.Equal(t, core.DefaultGamma, md.Gamma)

	img, err := dec.Decode()
	require.NoError(t, err)
	px := img.Pixels().(core.EightBit)
	require.Len(t, px, 32)
	for _, v := range px {
		assert.InDelta(t, 128, int(v), 2)
	}
}

func TestJPEG_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)), nil))
	_, err := decoder.NewJPEG(buf.Bytes()[:10], core.DefaultDecoderOptions()).ReadHeaders()
	assert.True(t, apperrors.IsKind(err, apperrors.KindTruncated), "%v", err)
}

func TestWebP_LosslessAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 128})
	src.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 255})
	var buf bytes.Buffer
	require.NoError(t, webp.Encode(&buf, src, webp.Options{Lossless: true}))

	dec := decoder.NewWebP(buf.Bytes(), core.DefaultDecoderOptions())
	md, err := dec.ReadHeaders()
	require.NoError(t, err)
	assert.Equal(t, core.ColorSpaceRGBA, md.ColorSpace)
	assert.Equal(t, 2, md.Width)

	img, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, core.EightBit{10, 20, 30, 128, 40, 50, 60, 255}, img.Interleaved())
}

func TestZRAW_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	hdr := zraw.Header{Width: 2, Height: 1, ColorSpace: zraw.RGB, Depth: 16}
	require.NoError(t, zraw.Encode(&buf, hdr, zraw.U16{1, 2, 3, 4, 5, 6}))

	dec := decoder.NewZRAW(buf.Bytes(), core.DefaultDecoderOptions())
	md, err := dec.ReadHeaders()
	require.NoError(t, err)
	assert.Equal(t, core.ColorSpaceRGB, md.ColorSpace)
	assert.Equal(t, core.BitDepth16, md.Depth)
	assert.False(t, md.GammaExplicit)

	img, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, core.SixteenBit{1, 4, 2, 5, 3, 6}, img.Pixels())
}

func TestZRAW_TruncatedHeader(t *testing.T) {
	_, err := decoder.NewZRAW([]byte("ZRAW\x01"), core.DefaultDecoderOptions()).ReadHeaders()
	assert.ErrorIs(t, err, apperrors.ErrTruncated)
}

func TestRegister(t *testing.T) {
	reg := core.NewRegistry()
	decoder.Register(reg)
	for _, f := range []core.Format{core.FormatPNG, core.FormatJPEG, core.FormatWebP, core.FormatZRAW} {
		_, ok := reg.DecoderFor(f)
		assert.True(t, ok, f)
	}

	dec, ok := core.NewDecoder(reg, core.FormatPNG, grayPNG(t, 7), core.DefaultDecoderOptions())
	require.True(t, ok)
	img, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, core.EightBit{7, 7, 7, 7}, img.Pixels())
}

func TestRawEXIF(t *testing.T) {
	block := tiffOrientation(6)
	data := afterIHDR(grayPNG(t, 0), pngChunk("eXIf", block))
	assert.Equal(t, block, decoder.RawEXIF(core.FormatPNG, data))
	assert.Nil(t, decoder.RawEXIF(core.FormatPNG, grayPNG(t, 0)))
	assert.Nil(t, decoder.RawEXIF(core.FormatZRAW, data))
}
