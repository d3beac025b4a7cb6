package errors

import (
	"errors"
	"fmt"
)

// Category classifies error types for targeted handling and monitoring.
type Category string

const (
	CategoryDecode  Category = "decode"
	CategoryEncode  Category = "encode"
	CategoryStorage Category = "storage"
	CategoryConfig  Category = "config"
	CategoryInput   Category = "input"
)

// ProcessingError is the structured error type used throughout the module.
// Err retains the wrapped diagnostic (native codec error, *fs.PathError, or a
// sentinel below) so callers can branch with errors.Is / errors.As without
// losing the underlying detail.
type ProcessingError struct {
	Category Category
	Op       string // operation name
	Err      error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// New creates a ProcessingError.
func New(category Category, op string, err error) *ProcessingError {
	return &ProcessingError{Category: category, Op: op, Err: err}
}

// Wrap wraps an existing error with context.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Category == cat
	}
	return false
}

// Sentinel errors for common failure modes.
var (
	ErrFileDoesNotExist     = errors.New("file does not exist")
	ErrInvalidFileExtension = errors.New("invalid file extension")
	ErrUnsupportedFormat    = errors.New("unsupported image format")
	ErrShapeMismatch        = errors.New("sample count does not match image shape")
	ErrLayoutMismatch       = errors.New("pixel layout does not match operation")
	ErrInvalidQuality       = errors.New("quality out of range")
	ErrInvalidDimensions    = errors.New("invalid dimensions")
	ErrEmptyInput           = errors.New("empty input")
	ErrImageTooLarge        = errors.New("declared image size exceeds limit")
)
