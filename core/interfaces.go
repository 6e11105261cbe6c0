package core

import (
	"context"
)

// Decoder is the format-agnostic decoding contract. An instance is bound
// to one input and is not safe for concurrent use.
//
// State machine: Unopened --ReadHeaders--> HeadersRead --Decode--> Decoded.
// Decode reads headers itself when needed, and headers are parsed at most
// once per instance.
type Decoder interface {
	// ReadHeaders parses only the structural header. Repeated calls return
	// an identical record. It returns (nil, nil) only for formats that have
	// no header metadata.
	ReadHeaders() (*Metadata, error)
	// Decode performs the full pixel decode and returns the canonical image
	// with the header record attached.
	Decode() (*Image, error)
	// Dimensions is valid after headers are read; ok is false before that.
	Dimensions() (width, height int, ok bool)
	// OutColorspace is the colour space Decode will produce. It panics when
	// called before headers are read.
	OutColorspace() ColorSpace
	// Name is a fixed human-readable identifier, e.g. "PNG Decoder".
	Name() string
}

// DecoderOptions configures decoders built by a DecoderFactory.
type DecoderOptions struct {
	// ParseAuxiliaryMetadata enables the best-effort EXIF parse during
	// header inspection.
	ParseAuxiliaryMetadata bool
	// Logger receives dropped-metadata warnings. nil logs through slog's
	// default logger.
	Logger Logger
}

// DefaultDecoderOptions returns options with auxiliary parsing enabled.
func DefaultDecoderOptions() DecoderOptions {
	return DecoderOptions{ParseAuxiliaryMetadata: true}
}

// DecoderFactory binds a new Decoder to an encoded input.
type DecoderFactory func(data []byte, opts DecoderOptions) Decoder

// CodecInfo is the structural side information a codec exposes after its
// header is parsed.
type CodecInfo struct {
	Gamma         float64 // 0 when the input states none
	EXIF          []byte  // raw auxiliary block, nil when absent
	HasICCProfile bool
	Interlaced    bool
}

// Codec is the surface consumed from a wrapped format codec. Errors are
// returned already translated into the shared error domain. Accessors
// report ok=false until DecodeHeaders has succeeded.
type Codec interface {
	DecodeHeaders() error
	DecodePixels() (PixelBuffer, error)
	Dimensions() (width, height int, ok bool)
	Depth() (BitDepth, bool)
	Colorspace() (ColorSpace, bool)
	Info() (CodecInfo, bool)
}

// Encoder serialises a decoded image to bytes in a target format.
// Implementations live in adapters/encoder/.
type Encoder interface {
	Encode(ctx context.Context, img *ImageData, opts EncodeOptions) ([]byte, error)
	CanEncode(format Format) bool
}

// EncodeOptions carries format-specific encoding parameters.
type EncodeOptions struct {
	Quality    int  // 1-100; 0 = use encoder default
	Lossless   bool // WebP lossless mode
	StripEXIF  bool
	Interlaced bool // progressive JPEG / interlaced PNG (vips only)
}

// MetricsCollector receives performance observations from the pipeline.
type MetricsCollector interface {
	RecordProcessingTime(stepName string, d interface{ Seconds() float64 })
	RecordThroughput(bytes int64)
	RecordError(stepName string, category string)
}

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Registry maps Format values to decoder factories and encoders.
type Registry interface {
	DecoderFor(format Format) (DecoderFactory, bool)
	EncoderFor(format Format) (Encoder, bool)
	RegisterDecoder(format Format, f DecoderFactory)
	RegisterEncoder(format Format, e Encoder)
}
