package core

import (
	"errors"
	"maps"

	"github.com/Skryldev/image-codecs/exif"
)

// DefaultGamma is recorded when a format has no gamma concept or the input
// does not state one.
const DefaultGamma = 2.2

// Metadata is the format-independent record produced by header inspection.
// Width, Height, ColorSpace and Depth are always set once headers are read.
type Metadata struct {
	Format     Format // FormatUnknown when the codec declares none
	Width      int
	Height     int
	ColorSpace ColorSpace
	Depth      BitDepth

	Gamma         float64
	GammaExplicit bool

	EXIF        map[string]any // nil when absent or dropped
	Orientation int            // EXIF orientation, 1 when unknown

	HasICCProfile bool
	Interlaced    bool
}

// ParseRawEXIF parses a raw auxiliary EXIF block into m.EXIF. On failure
// m is left without EXIF and the parse error is returned for the caller to
// log; it is never a decode failure. A block without tags counts as absent.
func (m *Metadata) ParseRawEXIF(raw []byte) error {
	tags, err := exif.Parse(raw)
	if err != nil {
		m.EXIF = nil
		m.Orientation = 1
		if errors.Is(err, exif.ErrNoTags) {
			return nil
		}
		return err
	}
	m.EXIF = tags
	m.Orientation = exif.Orientation(tags)
	return nil
}

// HasEXIF reports whether a parsed EXIF block is attached.
func (m *Metadata) HasEXIF() bool { return len(m.EXIF) > 0 }

// HasAlpha is derived from the colour space.
func (m *Metadata) HasAlpha() bool { return m.ColorSpace.HasAlpha() }

// Clone returns a deep copy.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	out := *m
	if m.EXIF != nil {
		out.EXIF = maps.Clone(m.EXIF)
	}
	return &out
}
