package core

import (
	"context"
	"time"
)

// Decoder converts encoded container bytes into a PixelBuffer.
// Implementations live in adapters/decoder/ and must be safe for concurrent
// use: a handle wrapping a native codec session serializes calls internally.
type Decoder interface {
	// ReadHeader parses the container header only and returns the declared
	// dimensions without allocating pixel storage.
	ReadHeader(ctx context.Context, data []byte) (Size, error)
	// Decode decodes data into a freshly allocated buffer of the given layout.
	Decode(ctx context.Context, data []byte, layout Layout) (*PixelBuffer, error)
	// CanDecode reports whether this decoder handles the given format.
	CanDecode(format Format) bool
}

// Encoder serialises a PixelBuffer to container bytes.
// Implementations live in adapters/encoder/.
type Encoder interface {
	Encode(ctx context.Context, img *PixelBuffer, opts EncodeOptions) ([]byte, error)
	CanEncode(format Format) bool
}

// EncodeOptions carries format-specific encoding parameters.
type EncodeOptions struct {
	Quality    int  // 1-100; 0 = use encoder default
	Lossless   bool // WebP lossless mode
	Interlaced bool // progressive JPEG / interlaced PNG
}

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// MetricsCollector receives performance observations from read/write ops.
type MetricsCollector interface {
	RecordOpTime(op string, d interface{ Seconds() float64 })
	RecordThroughput(bytes int64)
	RecordError(op string, category string)
}

// Hook is an optional observer invoked around facade operations.
type Hook interface {
	BeforeOp(ctx context.Context, op string, path string)
	AfterOp(ctx context.Context, op string, path string, d time.Duration, err error)
}

// FileStore abstracts path validation and whole-file byte I/O.
// Implementations live in adapters/storage/.
type FileStore interface {
	// ValidateAndRead checks that path exists and, when extensions is
	// non-empty, that its extension (case-insensitively) is in the set, then
	// reads the whole file.
	ValidateAndRead(path string, extensions []string) ([]byte, error)
	// Read checks existence only and reads the whole file.
	Read(path string) ([]byte, error)
	// Write replaces the file at path with data in a single write.
	Write(path string, data []byte) error
	Exists(path string) (bool, error)
}

// Registry maps Format values to Decoder/Encoder implementations.
type Registry interface {
	DecoderFor(format Format) (Decoder, bool)
	EncoderFor(format Format) (Encoder, bool)
	RegisterDecoder(format Format, d Decoder)
	RegisterEncoder(format Format, e Encoder)
}
