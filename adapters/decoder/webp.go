package decoder

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/image/webp"

	"github.com/Skryldev/image-codecs/core"
)

// NewWebP returns a decoder for still WebP images, lossy or lossless.
func NewWebP(data []byte, opts core.DecoderOptions) core.Decoder {
	c := &stdCodec{format: "webp", data: data, probe: probeWebP, decode: webp.Decode}
	return core.NewAdapter("WebP Decoder", core.FormatWebP, c, opts)
}

func probeWebP(data []byte) (stdHeader, error) {
	cfg, err := webp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return stdHeader{}, err
	}
	riff := scanRIFF(data)
	hdr := stdHeader{width: cfg.Width, height: cfg.Height, cs: core.ColorSpaceRGB, info: riff.info}
	if riff.alpha {
		hdr.cs = core.ColorSpaceRGBA
	}
	return hdr, nil
}

type riffInfo struct {
	info  core.CodecInfo
	alpha bool
}

// scanRIFF walks the top-level WebP chunks for the alpha flag, ICCP and
// EXIF. Chunk payloads are padded to an even length.
func scanRIFF(data []byte) riffInfo {
	var out riffInfo
	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return out
	}
	p := data[12:]
	for len(p) >= 8 {
		fourcc := string(p[:4])
		n := int(binary.LittleEndian.Uint32(p[4:8]))
		if n < 0 || len(p)-8 < n {
			return out
		}
		body := p[8 : 8+n]
		switch fourcc {
		case "VP8X":
			if n >= 1 {
				out.alpha = body[0]&0x10 != 0
				out.info.HasICCProfile = body[0]&0x20 != 0
			}
		case "VP8L":
			// Bit 28 of the header word after the 0x2f signature.
			if n >= 5 && body[0] == 0x2f {
				out.alpha = binary.LittleEndian.Uint32(body[1:5])&(1<<28) != 0
			}
		case "ALPH":
			out.alpha = true
		case "ICCP":
			out.info.HasICCProfile = true
		case "EXIF":
			out.info.EXIF = append([]byte(nil), body...)
		}
		step := 8 + n + n&1
		if step > len(p) {
			return out
		}
		p = p[step:]
	}
	return out
}
