package decoder

import (
	"bytes"
	"context"
	"image"
	"sync"

	libjpeg "github.com/viam-labs/go-libjpeg/jpeg"
	"github.com/viam-labs/go-libjpeg/rgb"

	"github.com/kervell/imgio/core"
	apperrors "github.com/kervell/imgio/errors"
)

// JPEG decodes JPEG bitstreams through the libjpeg-turbo session.
//
// A handle is reusable any number of times and safe for concurrent use: the
// mutex serializes all native calls, so at most one decode runs per handle at
// a time. Every call is otherwise pure with respect to its inputs.
type JPEG struct {
	mu        sync.Mutex
	opts      libjpeg.DecoderOptions
	maxPixels int
}

// NewJPEG returns an initialised JPEG decoder. maxPixels caps width*height
// accepted from the header before pixel storage is allocated; 0 disables the
// guard.
func NewJPEG(maxPixels int) *JPEG {
	return &JPEG{
		opts:      libjpeg.DecoderOptions{DCTMethod: libjpeg.DCTIFast},
		maxPixels: maxPixels,
	}
}

func (j *JPEG) CanDecode(format core.Format) bool {
	return format == core.FormatJPEG || format == core.FormatUnknown
}

// ReadHeader parses the JPEG header only and returns the declared dimensions.
func (j *JPEG) ReadHeader(ctx context.Context, data []byte) (core.Size, error) {
	if err := ctx.Err(); err != nil {
		return core.Size{}, apperrors.Wrap(apperrors.CategoryDecode, "jpeg.read_header", err)
	}
	cfg, err := libjpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return core.Size{}, apperrors.Wrap(apperrors.CategoryDecode, "jpeg.read_header", err)
	}
	return core.Size{Width: cfg.Width, Height: cfg.Height}, nil
}

// Decode decompresses data into a freshly allocated buffer of the given
// layout with no padding between rows.
func (j *JPEG) Decode(ctx context.Context, data []byte, layout core.Layout) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "jpeg.decode", err)
	}

	size, err := j.ReadHeader(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := checkSize("jpeg.decode", size, j.maxPixels); err != nil {
		return nil, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if layout == core.RGB8 {
		img, err := libjpeg.DecodeIntoRGB(bytes.NewReader(data), &j.opts)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryDecode, "jpeg.decode", err)
		}
		if img.Stride == 3*size.Width {
			return core.NewPixelBuffer(size, core.RGB8, img.Pix[:size.Pixels()*3])
		}
		return repackRGB(size, img)
	}

	img, err := libjpeg.Decode(bytes.NewReader(data), &j.opts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "jpeg.decode", err)
	}
	if r, ok := img.(*rgb.Image); ok {
		// normalize.go only understands stdlib pixel types.
		img = rgbToNRGBA(r)
	}
	return bufferFromImage(img, layout)
}

// repackRGB drops the row padding libjpeg adds when the MCU-aligned stride
// exceeds the tight pitch.
func repackRGB(size core.Size, img *rgb.Image) (*core.PixelBuffer, error) {
	pitch := 3 * size.Width
	samples := make([]byte, size.Height*pitch)
	for y := 0; y < size.Height; y++ {
		copy(samples[y*pitch:(y+1)*pitch], img.Pix[y*img.Stride:y*img.Stride+pitch])
	}
	return core.NewPixelBuffer(size, core.RGB8, samples)
}

func rgbToNRGBA(src *rgb.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		s := src.Pix[y*src.Stride:]
		d := dst.Pix[y*dst.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			d[4*x] = s[3*x]
			d[4*x+1] = s[3*x+1]
			d[4*x+2] = s[3*x+2]
			d[4*x+3] = 0xFF
		}
	}
	return dst
}

var _ core.Decoder = (*JPEG)(nil)
