// Package pngcodec decodes PNG with header inspection split from pixel
// decoding. Chunk walking and validation happen here; inflate and
// unfiltering are delegated to image/png.
package pngcodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// Layout is the sample layout Decode produces. Palettes are expanded and
// tRNS turns into an alpha channel.
type Layout int

const (
	Luma Layout = iota + 1
	LumaA
	RGB
	RGBA
)

// Channels returns samples per pixel.
func (l Layout) Channels() int {
	switch l {
	case Luma:
		return 1
	case LumaA:
		return 2
	case RGB:
		return 3
	case RGBA:
		return 4
	}
	return 0
}

// Result is the pixel output of Decode: U8 or U16, channel-interleaved.
type Result interface{ isResult() }

// U8 holds 8-bit samples; bit depths below 8 are scaled up.
type U8 []uint8

// U16 holds 16-bit samples.
type U16 []uint16

func (U8) isResult()  {}
func (U16) isResult() {}

// Decoder decodes one PNG stream held in memory.
type Decoder struct {
	data []byte
	info *Info
	err  error
}

// NewDecoder binds a decoder to data. Nothing is parsed until
// DecodeHeaders or Decode is called.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// DecodeHeaders parses every chunk up to the first IDAT. It is idempotent.
func (d *Decoder) DecodeHeaders() error {
	if d.info != nil {
		return nil
	}
	if d.err != nil {
		return d.err
	}
	info, err := parseHeaders(d.data)
	if err != nil {
		d.err = err
		return err
	}
	d.info = info
	return nil
}

// Dimensions returns the IHDR size.
func (d *Decoder) Dimensions() (int, int, bool) {
	if d.info == nil {
		return 0, 0, false
	}
	return int(d.info.Width), int(d.info.Height), true
}

// Depth returns the output sample width in bits: 16 for 16-bit input, 8
// otherwise.
func (d *Decoder) Depth() (int, bool) {
	if d.info == nil {
		return 0, false
	}
	if d.info.BitDepth == 16 {
		return 16, true
	}
	return 8, true
}

// Layout returns the output sample layout.
func (d *Decoder) Layout() (Layout, bool) {
	if d.info == nil {
		return 0, false
	}
	switch d.info.ColorType {
	case Grayscale:
		if d.info.Transparency {
			return LumaA, true
		}
		return Luma, true
	case Truecolor, Indexed:
		if d.info.Transparency {
			return RGBA, true
		}
		return RGB, true
	case GrayscaleAlpha:
		return LumaA, true
	}
	return RGBA, true
}

// Info returns the structural header information.
func (d *Decoder) Info() (*Info, bool) {
	return d.info, d.info != nil
}

// Decode decodes the full image, reading headers first if needed.
func (d *Decoder) Decode() (Result, error) {
	if err := d.DecodeHeaders(); err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(d.data))
	if err != nil {
		return nil, err
	}

	w, h, _ := d.Dimensions()
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		return nil, FormatError(fmt.Sprintf("decoded %dx%d, header says %dx%d", b.Dx(), b.Dy(), w, h))
	}
	layout, _ := d.Layout()
	offs := channelOffsets(layout)

	switch m := img.(type) {
	case *image.Gray:
		return U8(pack8(m.Pix, m.Stride, w, h, 1, offs[:1])), nil
	case *image.NRGBA:
		return U8(pack8(m.Pix, m.Stride, w, h, 4, offs)), nil
	case *image.RGBA:
		return U8(pack8(m.Pix, m.Stride, w, h, 4, offs)), nil
	case *image.Paletted:
		return U8(expandPalette(m, w, h, layout)), nil
	case *image.Gray16:
		return U16(pack16(m.Pix, m.Stride, w, h, 2, offs[:1])), nil
	case *image.NRGBA64:
		return U16(pack16(m.Pix, m.Stride, w, h, 8, offs)), nil
	case *image.RGBA64:
		return U16(pack16(m.Pix, m.Stride, w, h, 8, offs)), nil
	}
	return nil, UnsupportedError(fmt.Sprintf("decoded image type %T", img))
}

// channelOffsets selects which RGBA channel indices feed each output sample.
func channelOffsets(l Layout) []int {
	switch l {
	case Luma:
		return []int{0}
	case LumaA:
		return []int{0, 3}
	case RGB:
		return []int{0, 1, 2}
	}
	return []int{0, 1, 2, 3}
}

func pack8(pix []byte, stride, w, h, bpp int, offs []int) []uint8 {
	out := make([]uint8, 0, w*h*len(offs))
	for y := 0; y < h; y++ {
		row := pix[y*stride:]
		for x := 0; x < w; x++ {
			p := row[x*bpp:]
			for _, o := range offs {
				out = append(out, p[o])
			}
		}
	}
	return out
}

func pack16(pix []byte, stride, w, h, bpp int, offs []int) []uint16 {
	out := make([]uint16, 0, w*h*len(offs))
	for y := 0; y < h; y++ {
		row := pix[y*stride:]
		for x := 0; x < w; x++ {
			p := row[x*bpp:]
			for _, o := range offs {
				out = append(out, binary.BigEndian.Uint16(p[o*2:]))
			}
		}
	}
	return out
}

func expandPalette(m *image.Paletted, w, h int, l Layout) []uint8 {
	ch := l.Channels()
	lut := make([][4]uint8, len(m.Palette))
	for i, c := range m.Palette {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		lut[i] = [4]uint8{n.R, n.G, n.B, n.A}
	}
	out := make([]uint8, 0, w*h*ch)
	for y := 0; y < h; y++ {
		row := m.Pix[y*m.Stride:]
		for x := 0; x < w; x++ {
			var e [4]uint8
			if idx := int(row[x]); idx < len(lut) {
				e = lut[idx]
			}
			out = append(out, e[:ch]...)
		}
	}
	return out
}
