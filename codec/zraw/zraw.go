// Package zraw is a minimal lossless container for canonical samples: a
// fixed 16-byte header followed by one zstd frame of interleaved samples.
// 16-bit samples are stored big-endian.
//
//	offset size
//	0      4    "ZRAW"
//	4      1    version (1)
//	5      1    colour space
//	6      1    bit depth (8 or 16)
//	7      1    reserved, zero
//	8      4    width
//	12     4    height
package zraw

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

const (
	Magic      = "ZRAW"
	Version    = 1
	HeaderSize = 16

	maxPixels = 1 << 28
)

// ColorSpace is the channel layout byte.
type ColorSpace uint8

const (
	Gray ColorSpace = iota + 1
	GrayAlpha
	RGB
	RGBA
	CMYK
)

// Channels returns samples per pixel, 0 for an unknown value.
func (c ColorSpace) Channels() int {
	switch c {
	case Gray:
		return 1
	case GrayAlpha:
		return 2
	case RGB:
		return 3
	case RGBA, CMYK:
		return 4
	}
	return 0
}

var (
	ErrMagic   = errors.New("zraw: bad magic")
	ErrVersion = errors.New("zraw: unsupported version")
	ErrHeader  = errors.New("zraw: invalid header")
	ErrSamples = errors.New("zraw: sample count mismatch")
)

// Header describes the stored image.
type Header struct {
	Width      uint32
	Height     uint32
	ColorSpace ColorSpace
	Depth      uint8
}

func (h Header) samples() int { return int(h.Width) * int(h.Height) * h.ColorSpace.Channels() }

func (h Header) validate() error {
	if h.Width == 0 || h.Height == 0 || uint64(h.Width)*uint64(h.Height) > maxPixels {
		return fmt.Errorf("%w: dimensions %dx%d", ErrHeader, h.Width, h.Height)
	}
	if h.ColorSpace.Channels() == 0 {
		return fmt.Errorf("%w: colour space %d", ErrHeader, h.ColorSpace)
	}
	if h.Depth != 8 && h.Depth != 16 {
		return fmt.Errorf("%w: depth %d", ErrHeader, h.Depth)
	}
	return nil
}

// Result holds decoded interleaved samples: U8 or U16.
type Result interface{ isResult() }

type U8 []uint8
type U16 []uint16

func (U8) isResult()  {}
func (U16) isResult() {}

var encoder = mustNewEncoder()

func mustNewEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

// Encode writes hdr and px to w. The sample width of px must match
// hdr.Depth.
func Encode(w io.Writer, hdr Header, px Result) error {
	if err := hdr.validate(); err != nil {
		return err
	}
	var raw []byte
	switch px := px.(type) {
	case U8:
		if hdr.Depth != 8 || len(px) != hdr.samples() {
			return fmt.Errorf("%w: %d 8-bit samples for %+v", ErrSamples, len(px), hdr)
		}
		raw = px
	case U16:
		if hdr.Depth != 16 || len(px) != hdr.samples() {
			return fmt.Errorf("%w: %d 16-bit samples for %+v", ErrSamples, len(px), hdr)
		}
		raw = make([]byte, 2*len(px))
		for i, v := range px {
			binary.BigEndian.PutUint16(raw[2*i:], v)
		}
	default:
		return fmt.Errorf("%w: %T", ErrSamples, px)
	}

	out := make([]byte, HeaderSize, HeaderSize+len(raw)/2)
	copy(out, Magic)
	out[4] = Version
	out[5] = byte(hdr.ColorSpace)
	out[6] = hdr.Depth
	binary.BigEndian.PutUint32(out[8:], hdr.Width)
	binary.BigEndian.PutUint32(out[12:], hdr.Height)
	out = encoder.EncodeAll(raw, out)
	_, err := w.Write(out)
	return err
}

// Decoder decodes one ZRAW stream held in memory.
type Decoder struct {
	data []byte
	hdr  *Header
	err  error
}

// NewDecoder binds a decoder to data.
func NewDecoder(data []byte) *Decoder { return &Decoder{data: data} }

// DecodeHeaders parses the fixed header. It is idempotent.
func (d *Decoder) DecodeHeaders() error {
	if d.hdr != nil {
		return nil
	}
	if d.err != nil {
		return d.err
	}
	hdr, err := parseHeader(d.data)
	if err != nil {
		d.err = err
		return err
	}
	d.hdr = &hdr
	return nil
}

func parseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		if len(b) < len(Magic) && Magic[:len(b)] == string(b) {
			return Header{}, io.ErrUnexpectedEOF
		}
		if len(b) >= len(Magic) && string(b[:4]) == Magic {
			return Header{}, io.ErrUnexpectedEOF
		}
		return Header{}, ErrMagic
	}
	if string(b[:4]) != Magic {
		return Header{}, ErrMagic
	}
	if b[4] != Version {
		return Header{}, fmt.Errorf("%w %d", ErrVersion, b[4])
	}
	hdr := Header{
		ColorSpace: ColorSpace(b[5]),
		Depth:      b[6],
		Width:      binary.BigEndian.Uint32(b[8:]),
		Height:     binary.BigEndian.Uint32(b[12:]),
	}
	return hdr, hdr.validate()
}

// Header returns the parsed header.
func (d *Decoder) Header() (Header, bool) {
	if d.hdr == nil {
		return Header{}, false
	}
	return *d.hdr, true
}

// Dimensions returns the stored size.
func (d *Decoder) Dimensions() (int, int, bool) {
	if d.hdr == nil {
		return 0, 0, false
	}
	return int(d.hdr.Width), int(d.hdr.Height), true
}

// Decode inflates the sample payload.
func (d *Decoder) Decode() (Result, error) {
	if err := d.DecodeHeaders(); err != nil {
		return nil, err
	}
	hdr := *d.hdr
	want := hdr.samples() * int(hdr.Depth/8)

	// Output is capped one byte past want; the header is untrusted.
	zr, err := zstd.NewReader(bytes.NewReader(d.data[HeaderSize:]),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		return nil, fmt.Errorf("zraw: payload: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(io.LimitReader(zr, int64(want)+1))
	if err != nil {
		return nil, fmt.Errorf("zraw: payload: %w", err)
	}
	if len(raw) < want {
		return nil, fmt.Errorf("zraw: payload holds %d of %d bytes: %w", len(raw), want, io.ErrUnexpectedEOF)
	}
	if len(raw) > want {
		return nil, fmt.Errorf("%w: payload holds %d bytes, want %d", ErrSamples, len(raw), want)
	}

	if hdr.Depth == 8 {
		return U8(raw), nil
	}
	out := make(U16, len(raw)/2)
	for i := range out {
		out[i] = binary.BigEndian.Uint16(raw[2*i:])
	}
	return out, nil
}
