package errors

import (
	"errors"
	"fmt"
	"io"
)

// Kind is the failure class of a DecodeError.
type Kind int

const (
	// KindMalformed marks structurally invalid input.
	KindMalformed Kind = iota + 1
	// KindTruncated marks input that ended before the codec was done with it.
	KindTruncated
	// KindPixelReconstruction marks a failure while decoding sample data
	// after a valid header.
	KindPixelReconstruction
	// KindUnsupportedSampleWidth is only ever carried by a panic: the codec
	// produced a sample width no image constructor exists for.
	KindUnsupportedSampleWidth
	// KindAlreadyDecoded is returned by a second Decode on the same decoder.
	KindAlreadyDecoded
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindTruncated:
		return "truncated"
	case KindPixelReconstruction:
		return "pixel reconstruction"
	case KindUnsupportedSampleWidth:
		return "unsupported sample width"
	case KindAlreadyDecoded:
		return "already decoded"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels matched by errors.Is against any DecodeError of the same kind.
var (
	ErrMalformed              = errors.New("malformed image data")
	ErrTruncated              = errors.New("truncated image data")
	ErrPixelReconstruction    = errors.New("pixel reconstruction failed")
	ErrUnsupportedSampleWidth = errors.New("unsupported sample width")
	ErrAlreadyDecoded         = errors.New("image already decoded")
)

var kindSentinels = map[Kind]error{
	KindMalformed:              ErrMalformed,
	KindTruncated:              ErrTruncated,
	KindPixelReconstruction:    ErrPixelReconstruction,
	KindUnsupportedSampleWidth: ErrUnsupportedSampleWidth,
	KindAlreadyDecoded:         ErrAlreadyDecoded,
}

// DecodeError is the single error domain every codec's failures are
// translated into. Msg always starts with the format name.
type DecodeError struct {
	Kind   Kind
	Format string
	Msg    string
	Err    error // codec-native error, nil for adapter-originated failures
}

func (e *DecodeError) Error() string { return e.Msg }

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTruncated) and friends match by kind.
func (e *DecodeError) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// Stage identifies which part of the decode produced a codec error.
type Stage int

const (
	StageHeaders Stage = iota
	StagePixels
)

// Translate converts a codec-native error into a DecodeError. The original
// rendering is kept verbatim behind a "<format>: " prefix. The kind comes
// from the stage, except that a premature end of input is always Truncated.
func Translate(format string, stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	kind := KindMalformed
	if stage == StagePixels {
		kind = KindPixelReconstruction
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		kind = KindTruncated
	}
	return &DecodeError{
		Kind:   kind,
		Format: format,
		Msg:    fmt.Sprintf("%s: %v", format, err),
		Err:    err,
	}
}

// Decodef builds a DecodeError that did not originate in a codec.
func Decodef(kind Kind, format, msg string, args ...any) *DecodeError {
	return &DecodeError{
		Kind:   kind,
		Format: format,
		Msg:    format + ": " + fmt.Sprintf(msg, args...),
	}
}

// KindOf returns the DecodeError kind carried anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries a DecodeError of kind k.
func IsKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}
