// Package exif parses raw EXIF blocks (a TIFF header followed by IFDs) into
// a flat tag-name → value map.
package exif

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/bep/imagemeta"
)

var (
	ErrShortHeader = errors.New("exif: block shorter than a TIFF header")
	ErrByteOrder   = errors.New("exif: invalid TIFF byte order")
	ErrMagic       = errors.New("exif: invalid TIFF magic number")
	ErrIFDOffset   = errors.New("exif: IFD offset out of bounds")
	ErrTruncated   = errors.New("exif: IFD runs past the end of the block")
)

// ErrNoTags reports a well-formed block without a single tag.
var ErrNoTags = errors.New("exif: no tags")

// identifier is the APP1 prefix JPEG carries in front of the TIFF header.
var identifier = []byte("Exif\x00\x00")

// Parse decodes a raw EXIF block. The optional "Exif\0\0" prefix is
// accepted. Any structural damage fails the whole block.
func Parse(raw []byte) (map[string]any, error) {
	block := bytes.TrimPrefix(raw, identifier)
	if err := checkIFD0(block); err != nil {
		return nil, err
	}

	tags := make(map[string]any)
	_, err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(block),
		ImageFormat: imagemeta.TIFF,
		Sources:     imagemeta.EXIF,
		HandleTag: func(ti imagemeta.TagInfo) error {
			tags[ti.Tag] = normalize(ti.Tag, ti.Value)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("exif: %w", err)
	}
	if len(tags) == 0 {
		return nil, ErrNoTags
	}
	return tags, nil
}

// checkIFD0 rejects a block whose header, IFD0 entry table or out-of-line
// IFD0 values do not fit inside it.
func checkIFD0(b []byte) error {
	if len(b) < 8 {
		return ErrShortHeader
	}
	var order binary.ByteOrder
	switch string(b[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return ErrByteOrder
	}
	if order.Uint16(b[2:4]) != 42 {
		return ErrMagic
	}

	at := uint64(order.Uint32(b[4:8]))
	if at < 8 || at+2 > uint64(len(b)) {
		return fmt.Errorf("%w: %d", ErrIFDOffset, at)
	}
	n := uint64(order.Uint16(b[at:]))
	entries := at + 2
	if entries+n*12 > uint64(len(b)) {
		return fmt.Errorf("%w: %d entries at offset %d", ErrTruncated, n, at)
	}
	for i := uint64(0); i < n; i++ {
		e := b[entries+i*12 : entries+(i+1)*12]
		size := typeSize(order.Uint16(e[2:4])) * uint64(order.Uint32(e[4:8]))
		if size <= 4 {
			continue
		}
		if off := uint64(order.Uint32(e[8:12])); off+size > uint64(len(b)) {
			return fmt.Errorf("%w: tag 0x%04x value at %d", ErrTruncated, order.Uint16(e[0:2]), off)
		}
	}
	return nil
}

// typeSize is the byte width of one value of a TIFF field type.
func typeSize(typ uint16) uint64 {
	switch typ {
	case 3, 8: // SHORT, SSHORT
		return 2
	case 4, 9, 11: // LONG, SLONG, FLOAT
		return 4
	case 5, 10, 12: // RATIONAL, SRATIONAL, DOUBLE
		return 8
	}
	return 1
}

func normalize(tag string, v any) any {
	if s, ok := v.(string); ok {
		return strings.TrimRight(s, "\x00 ")
	}
	if tag == "Orientation" {
		if o, ok := toInt(v); ok && o >= 0 && o <= 0xFFFF {
			return uint16(o)
		}
	}
	return v
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case uint8:
		return int(x), true
	case uint16:
		return int(x), true
	case uint32:
		return int(x), true
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case uint64:
		return int(x), true
	}
	return 0, false
}

// Orientation returns the orientation tag of a parsed block, or 1 (the
// EXIF default, "top-left") when it is missing or out of range.
func Orientation(tags map[string]any) int {
	if v, ok := tags["Orientation"].(uint16); ok && v >= 1 && v <= 8 {
		return int(v)
	}
	return 1
}
