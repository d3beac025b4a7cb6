package core

import (
	"fmt"

	apperrors "github.com/kervell/imgio/errors"
)

// PixelBuffer is a fixed-shape container of raw samples, the common currency
// between codecs and callers. Samples are interleaved and tightly packed: the
// row pitch is always Width*Layout.PixelBytes(), with no padding.
//
// A PixelBuffer is owned exclusively by its holder; codecs never retain a
// reference to one after a call returns.
type PixelBuffer struct {
	size    Size
	layout  Layout
	samples []byte
}

// NewPixelBuffer wraps caller-supplied samples. It fails with ErrShapeMismatch
// when the sample count does not match size and layout. No pixel-value
// validation is performed.
func NewPixelBuffer(size Size, layout Layout, samples []byte) (*PixelBuffer, error) {
	want := size.Pixels() * layout.PixelBytes()
	if len(samples) != want {
		return nil, apperrors.New(apperrors.CategoryInput, "pixelbuffer.new",
			fmt.Errorf("%w: got %d samples, want %d for %dx%d %s",
				apperrors.ErrShapeMismatch, len(samples), want, size.Width, size.Height, layout))
	}
	return &PixelBuffer{size: size, layout: layout, samples: samples}, nil
}

// NewUniform allocates a buffer filled with the given sample value, used for
// scratch buffers prior to channel conversion or writing.
func NewUniform(size Size, layout Layout, val byte) (*PixelBuffer, error) {
	n := size.Pixels() * layout.PixelBytes()
	if n < 0 {
		return nil, apperrors.New(apperrors.CategoryInput, "pixelbuffer.uniform",
			fmt.Errorf("%w: %dx%d", apperrors.ErrInvalidDimensions, size.Width, size.Height))
	}
	samples := make([]byte, n)
	if val != 0 {
		for i := range samples {
			samples[i] = val
		}
	}
	return &PixelBuffer{size: size, layout: layout, samples: samples}, nil
}

// Size returns the image dimensions.
func (b *PixelBuffer) Size() Size { return b.size }

// Width returns the image width in pixels.
func (b *PixelBuffer) Width() int { return b.size.Width }

// Height returns the image height in pixels.
func (b *PixelBuffer) Height() int { return b.size.Height }

// Layout returns the pixel layout.
func (b *PixelBuffer) Layout() Layout { return b.layout }

// Channels returns the number of channels per pixel.
func (b *PixelBuffer) Channels() int { return b.layout.Channels() }

// Stride returns the number of bytes per row.
func (b *PixelBuffer) Stride() int { return b.size.Width * b.layout.PixelBytes() }

// Samples returns the raw sample storage. The slice aliases the buffer's
// backing array; treat it as read-only unless you own the buffer.
func (b *PixelBuffer) Samples() []byte { return b.samples }
