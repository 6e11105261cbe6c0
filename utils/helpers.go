package utils

import (
	"bytes"
	"math"
	"net/http"
)

// Format names returned by DetectFormat. They match core.Format values.
const (
	FormatJPEG    = "jpeg"
	FormatPNG     = "png"
	FormatWebP    = "webp"
	FormatZRAW    = "zraw"
	FormatUnknown = "unknown"
)

type signature struct {
	format string
	offset int
	magic  []byte
}

var signatures = []signature{
	{FormatPNG, 0, []byte("\x89PNG\r\n\x1a\n")},
	{FormatJPEG, 0, []byte{0xFF, 0xD8, 0xFF}},
	{FormatWebP, 8, []byte("WEBP")},
	{FormatZRAW, 0, []byte("ZRAW")},
}

// DetectFormat identifies data by its leading magic bytes and falls back to
// net/http sniffing for anything the table does not know.
func DetectFormat(data []byte) string {
	for _, s := range signatures {
		end := s.offset + len(s.magic)
		if len(data) >= end && bytes.Equal(data[s.offset:end], s.magic) {
			if s.format == FormatWebP && !bytes.HasPrefix(data, []byte("RIFF")) {
				continue
			}
			return s.format
		}
	}
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return FormatJPEG
	case "image/png":
		return FormatPNG
	case "image/webp":
		return FormatWebP
	}
	return FormatUnknown
}

// ScaleDimensions computes output (w, h) preserving aspect ratio. Pass 0 for
// either axis to derive it from the other; a derived axis never drops below 1.
func ScaleDimensions(srcW, srcH, targetW, targetH int) (int, int) {
	switch {
	case targetW == 0 && targetH == 0:
		return srcW, srcH
	case srcW <= 0 || srcH <= 0:
		return targetW, targetH
	case targetW == 0:
		return derive(srcW, targetH, srcH), targetH
	case targetH == 0:
		return targetW, derive(srcH, targetW, srcW)
	}
	return targetW, targetH
}

func derive(side, num, den int) int {
	return max(1, int(math.Round(float64(side)*float64(num)/float64(den))))
}
