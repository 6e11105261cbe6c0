package pngcodec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"strings"
)

const signature = "\x89PNG\r\n\x1a\n"

// ColorType is the IHDR colour type.
type ColorType uint8

const (
	Grayscale      ColorType = 0
	Truecolor      ColorType = 2
	Indexed        ColorType = 3
	GrayscaleAlpha ColorType = 4
	TruecolorAlpha ColorType = 6
)

// IHDR is the image header chunk.
type IHDR struct {
	Width       uint32
	Height      uint32
	BitDepth    uint8
	ColorType   ColorType
	Compression uint8
	Filter      uint8
	Interlace   uint8
}

// Info is everything DecodeHeaders learns without inflating image data.
type Info struct {
	IHDR

	// Gamma is the decoding exponent: 2.2 for sRGB, 100000/gAMA otherwise,
	// 0 when the stream states neither.
	Gamma        float64
	SRGB         bool
	ICCProfile   bool
	Transparency bool // tRNS present before IDAT
	PaletteSize  int
	EXIF         []byte // eXIf payload, nil when absent
}

// FormatError reports structurally invalid PNG data.
type FormatError string

func (e FormatError) Error() string { return "invalid format: " + string(e) }

// UnsupportedError reports a valid but unsupported PNG feature.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "unsupported feature: " + string(e) }

// validDepths lists the allowed bit depths per colour type.
var validDepths = map[ColorType][]uint8{
	Grayscale:      {1, 2, 4, 8, 16},
	Truecolor:      {8, 16},
	Indexed:        {1, 2, 4, 8},
	GrayscaleAlpha: {8, 16},
	TruecolorAlpha: {8, 16},
}

const maxPixels = 1 << 30

func parseHeaders(data []byte) (*Info, error) {
	if len(data) < len(signature) {
		if strings.HasPrefix(signature, string(data)) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, FormatError("not a PNG file")
	}
	if string(data[:len(signature)]) != signature {
		return nil, FormatError("not a PNG file")
	}

	var info *Info
	src := data[len(signature):]
	for {
		typ, body, rest, err := nextChunk(src)
		if err != nil {
			return nil, err
		}
		src = rest

		if info == nil {
			if typ != "IHDR" {
				return nil, FormatError("IHDR is not the first chunk")
			}
			hdr, err := parseIHDR(body)
			if err != nil {
				return nil, err
			}
			info = &Info{IHDR: hdr}
			continue
		}

		switch typ {
		case "IDAT":
			if info.ColorType == Indexed && info.PaletteSize == 0 {
				return nil, FormatError("missing PLTE for indexed image")
			}
			if info.SRGB {
				info.Gamma = 2.2
			}
			if info.EXIF == nil {
				info.EXIF = scanTrailingEXIF(src)
			}
			return info, nil
		case "IEND":
			return nil, FormatError("no IDAT chunk")
		case "PLTE":
			if len(body)%3 != 0 || len(body) == 0 || len(body)/3 > 256 {
				return nil, FormatError("bad PLTE length")
			}
			info.PaletteSize = len(body) / 3
		case "tRNS":
			if info.ColorType == GrayscaleAlpha || info.ColorType == TruecolorAlpha {
				return nil, FormatError("tRNS with alpha colour type")
			}
			info.Transparency = true
		case "gAMA":
			if len(body) != 4 {
				return nil, FormatError("bad gAMA length")
			}
			info.Gamma = gammaFromChunk(binary.BigEndian.Uint32(body))
		case "sRGB":
			info.SRGB = true
		case "iCCP":
			info.ICCProfile = true
		case "eXIf":
			info.EXIF = append([]byte(nil), body...)
		}
	}
}

// nextChunk splits one CRC-checked chunk off the front of src.
func nextChunk(src []byte) (typ string, body, rest []byte, err error) {
	if len(src) < 8 {
		return "", nil, nil, io.ErrUnexpectedEOF
	}
	length := binary.BigEndian.Uint32(src)
	if length > 0x7fffffff {
		return "", nil, nil, FormatError("chunk length overflow")
	}
	typ = string(src[4:8])
	end := 8 + int(length)
	if len(src) < end+4 {
		return "", nil, nil, io.ErrUnexpectedEOF
	}
	if crc32.ChecksumIEEE(src[4:end]) != binary.BigEndian.Uint32(src[end:]) {
		return "", nil, nil, FormatError("invalid checksum in " + typ)
	}
	return typ, src[8:end], src[end+4:], nil
}

func parseIHDR(b []byte) (IHDR, error) {
	if len(b) != 13 {
		return IHDR{}, FormatError("bad IHDR length")
	}
	h := IHDR{
		Width:       binary.BigEndian.Uint32(b[0:4]),
		Height:      binary.BigEndian.Uint32(b[4:8]),
		BitDepth:    b[8],
		ColorType:   ColorType(b[9]),
		Compression: b[10],
		Filter:      b[11],
		Interlace:   b[12],
	}
	if h.Width == 0 || h.Height == 0 || h.Width > 0x7fffffff || h.Height > 0x7fffffff {
		return IHDR{}, FormatError(fmt.Sprintf("invalid dimensions %dx%d", h.Width, h.Height))
	}
	if uint64(h.Width)*uint64(h.Height) > maxPixels {
		return IHDR{}, UnsupportedError(fmt.Sprintf("dimensions %dx%d", h.Width, h.Height))
	}
	depths, ok := validDepths[h.ColorType]
	if !ok {
		return IHDR{}, FormatError(fmt.Sprintf("invalid colour type %d", h.ColorType))
	}
	valid := false
	for _, d := range depths {
		valid = valid || d == h.BitDepth
	}
	if !valid {
		return IHDR{}, FormatError(fmt.Sprintf("bit depth %d not allowed for colour type %d", h.BitDepth, h.ColorType))
	}
	if h.Compression != 0 {
		return IHDR{}, UnsupportedError("compression method")
	}
	if h.Filter != 0 {
		return IHDR{}, UnsupportedError("filter method")
	}
	if h.Interlace > 1 {
		return IHDR{}, FormatError("invalid interlace method")
	}
	return h, nil
}

func gammaFromChunk(inverse uint32) float64 {
	switch inverse {
	case 0:
		return 0
	case 45455:
		return 2.2
	case 55556:
		return 1.8
	}
	return 100000 / float64(inverse)
}

// scanTrailingEXIF looks for an eXIf chunk after the first IDAT without
// verifying anything; a damaged tail simply yields nil.
func scanTrailingEXIF(src []byte) []byte {
	for len(src) >= 12 {
		length := int(binary.BigEndian.Uint32(src))
		if length < 0 || len(src) < 12+length {
			return nil
		}
		switch string(src[4:8]) {
		case "eXIf":
			return append([]byte(nil), src[8:8+length]...)
		case "IEND":
			return nil
		}
		src = src[12+length:]
	}
	return nil
}
