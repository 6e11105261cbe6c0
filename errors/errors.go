package errors

import (
	"errors"
	"fmt"
)

// Category says which part of a codec run failed: reading the source,
// decoding, transforming, encoding, or setting the run up.
type Category string

const (
	CategoryDecode    Category = "decode"
	CategoryEncode    Category = "encode"
	CategoryPipeline  Category = "pipeline"
	CategoryConfig    Category = "config"
	CategoryTransient Category = "transient"
	CategoryInput     Category = "input"
)

// ProcessingError tags a failure with the category and step or codec that
// produced it. Decoder failures travel inside it as *DecodeError.
type ProcessingError struct {
	Category  Category
	Op        string // step or codec name
	Err       error
	Retryable bool
}

func (e *ProcessingError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("[%s] %v", e.Category, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// New creates a non-retryable ProcessingError.
func New(category Category, op string, err error) *ProcessingError {
	return &ProcessingError{Category: category, Op: op, Err: err}
}

// Transient creates a retryable ProcessingError.
func Transient(op string, err error) *ProcessingError {
	return &ProcessingError{Category: CategoryTransient, Op: op, Err: err, Retryable: true}
}

// Wrap wraps an existing error with context.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// IsRetryable reports whether err represents a transient failure.
func IsRetryable(err error) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	c, ok := CategoryOf(err)
	return ok && c == cat
}

// CategoryOf returns the category of the outermost ProcessingError in err's
// chain. A bare *DecodeError counts as CategoryDecode.
func CategoryOf(err error) (Category, bool) {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Category, true
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return CategoryDecode, true
	}
	return "", false
}

// Sentinel errors for common failure modes.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrSampleCount       = errors.New("sample count does not match geometry")
	ErrEmptyInput        = errors.New("empty input")
	ErrWorkerPoolFull    = errors.New("worker pool queue full")
)
