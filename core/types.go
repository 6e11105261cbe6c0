package core

import (
	"context"
	"io"
	"time"
)

// Format identifies an image codec.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatWebP    Format = "webp"
	FormatZRAW    Format = "zraw"
	FormatUnknown Format = "unknown"
)

// ColorSpace represents the channel layout of pixel samples.
type ColorSpace string

const (
	ColorSpaceGray      ColorSpace = "gray"
	ColorSpaceGrayAlpha ColorSpace = "gray_alpha"
	ColorSpaceRGB       ColorSpace = "rgb"
	ColorSpaceRGBA      ColorSpace = "rgba"
	ColorSpaceCMYK      ColorSpace = "cmyk"
	ColorSpaceUnknown   ColorSpace = "unknown"
)

// Channels returns the number of samples per pixel, or 0 for an unknown
// colour space.
func (c ColorSpace) Channels() int {
	switch c {
	case ColorSpaceGray:
		return 1
	case ColorSpaceGrayAlpha:
		return 2
	case ColorSpaceRGB:
		return 3
	case ColorSpaceRGBA, ColorSpaceCMYK:
		return 4
	}
	return 0
}

// HasAlpha reports whether the last channel is alpha.
func (c ColorSpace) HasAlpha() bool {
	return c == ColorSpaceGrayAlpha || c == ColorSpaceRGBA
}

// BitDepth is the number of bits per sample per channel.
type BitDepth int

const (
	BitDepthUnknown BitDepth = 0
	BitDepth8       BitDepth = 8
	BitDepth16      BitDepth = 16
	BitDepthFloat32 BitDepth = 32
)

// ImageData is the value passed between pipeline steps.
// Data holds encoded bytes; Image holds the canonical decoded image once a
// decode step has run.
type ImageData struct {
	Data   []byte
	Format Format

	Image *Image
	// Header is the record from header inspection. It is set by a decode
	// step even when pixels are not decoded.
	Header *Metadata

	// Size of the original raw input for adaptive compression decisions.
	OriginalSize int64
	// Size of Data after the most recent encode.
	SizeBytes int64
	// Quality overrides the encoder default when non-zero.
	Quality int
}

// Width returns the decoded width, falling back to the header record, or 0
// before any decode step has run.
func (d *ImageData) Width() int {
	switch {
	case d == nil:
		return 0
	case d.Image != nil:
		return d.Image.Width()
	case d.Header != nil:
		return d.Header.Width
	}
	return 0
}

// Height mirrors Width.
func (d *ImageData) Height() int {
	switch {
	case d == nil:
		return 0
	case d.Image != nil:
		return d.Image.Height()
	case d.Header != nil:
		return d.Header.Height
	}
	return 0
}

// ProcessingResult is returned to the caller after the full pipeline completes.
type ProcessingResult struct {
	Primary  *ImageData
	Variants map[string]*ImageData // keyed by variant name

	// Observability.
	ProcessingTime time.Duration
	StepTimings    map[string]time.Duration
}

// Source abstracts where raw bytes come from (reader, file path, URL, etc.).
type Source struct {
	Reader      io.Reader
	ContentType string // optional hint
	Name        string // optional logical name / filename
	Size        int64  // -1 if unknown
}

// Job encapsulates a single unit of work for the worker pool.
type Job struct {
	ID     string
	Ctx    context.Context //nolint:containedctx // intentional for async jobs
	Source Source
	Steps  []Step
	// Result channel; nil for fire-and-forget.
	ResultCh chan<- JobResult
}

// VariantDefinition names a step chain run on a shared decoded base.
type VariantDefinition struct {
	Name  string
	Steps []Step
}

// JobResult wraps the outcome of an async job.
type JobResult struct {
	JobID  string
	Result *ProcessingResult
	Err    error
}

// Step is the fundamental pipeline building block.  Each Step transforms an
// *ImageData value and must be safe for concurrent use across goroutines.
type Step interface {
	Name() string
	Execute(ctx context.Context, img *ImageData) (*ImageData, error)
}

// Hook is an optional observer invoked around pipeline steps.
type Hook interface {
	BeforeStep(ctx context.Context, stepName string, img *ImageData)
	AfterStep(ctx context.Context, stepName string, img *ImageData, d time.Duration, err error)
}
