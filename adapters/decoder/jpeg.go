package decoder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/color"
	"image/jpeg"
	"io"

	"github.com/Skryldev/image-codecs/core"
)

// NewJPEG returns a decoder for baseline and progressive JPEG.
func NewJPEG(data []byte, opts core.DecoderOptions) core.Decoder {
	c := &stdCodec{format: "jpeg", data: data, probe: probeJPEG, decode: jpeg.Decode}
	return core.NewAdapter("JPEG Decoder", core.FormatJPEG, c, opts)
}

func probeJPEG(data []byte) (stdHeader, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return stdHeader{}, err
	}
	hdr := stdHeader{width: cfg.Width, height: cfg.Height, cs: core.ColorSpaceRGB}
	switch cfg.ColorModel {
	case color.GrayModel:
		hdr.cs = core.ColorSpaceGray
	case color.CMYKModel:
		hdr.cs = core.ColorSpaceCMYK
	}
	hdr.info = scanJPEGSegments(data)
	return hdr, nil
}

var errShortSegment = errors.New("jpeg: short segment")

// scanJPEGSegments walks the marker segments before the first scan and
// collects APP1 EXIF, APP2 ICC and the progressive flag. A damaged segment
// list ends the walk; whatever was found so far is kept.
func scanJPEGSegments(data []byte) core.CodecInfo {
	var info core.CodecInfo
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return info
	}
	p := data[2:]
	for {
		marker, body, rest, err := nextSegment(p)
		if err != nil {
			return info
		}
		p = rest
		switch {
		case marker == 0xE1 && bytes.HasPrefix(body, []byte("Exif\x00\x00")):
			if info.EXIF == nil {
				info.EXIF = append([]byte(nil), body...)
			}
		case marker == 0xE2 && bytes.HasPrefix(body, []byte("ICC_PROFILE\x00")):
			info.HasICCProfile = true
		case marker == 0xC2 || marker == 0xC6 || marker == 0xCA || marker == 0xCE:
			info.Interlaced = true
		case marker == 0xDA || marker == 0xD9:
			return info
		}
	}
}

func nextSegment(p []byte) (marker byte, body, rest []byte, err error) {
	for len(p) > 1 && p[0] == 0xFF && p[1] == 0xFF {
		p = p[1:]
	}
	if len(p) < 2 || p[0] != 0xFF {
		return 0, nil, nil, io.ErrUnexpectedEOF
	}
	marker = p[1]
	if marker == 0xD9 || (marker >= 0xD0 && marker <= 0xD7) || marker == 0x01 {
		return marker, nil, p[2:], nil
	}
	if len(p) < 4 {
		return 0, nil, nil, io.ErrUnexpectedEOF
	}
	n := int(binary.BigEndian.Uint16(p[2:]))
	if n < 2 || len(p) < 2+n {
		return 0, nil, nil, errShortSegment
	}
	return marker, p[4 : 2+n], p[2+n:], nil
}
