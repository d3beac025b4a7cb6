// Package encoder provides format-specific image encoders consuming
// tightly packed PixelBuffers.
package encoder

import (
	"fmt"
	"image"

	"github.com/kervell/imgio/core"
	apperrors "github.com/kervell/imgio/errors"
)

// grayView wraps Gray8 samples as an *image.Gray without copying.
func grayView(img *core.PixelBuffer) *image.Gray {
	return &image.Gray{
		Pix:    img.Samples(),
		Stride: img.Width(),
		Rect:   image.Rect(0, 0, img.Width(), img.Height()),
	}
}

// gray16View wraps big-endian Gray16 samples as an *image.Gray16 without
// copying.
func gray16View(img *core.PixelBuffer) *image.Gray16 {
	return &image.Gray16{
		Pix:    img.Samples(),
		Stride: 2 * img.Width(),
		Rect:   image.Rect(0, 0, img.Width(), img.Height()),
	}
}

// nrgbaView wraps RGBA8 samples as an *image.NRGBA without copying.
func nrgbaView(img *core.PixelBuffer) *image.NRGBA {
	return &image.NRGBA{
		Pix:    img.Samples(),
		Stride: 4 * img.Width(),
		Rect:   image.Rect(0, 0, img.Width(), img.Height()),
	}
}

// expandRGB copies RGB8 samples into an opaque NRGBA scratch image for
// encoders that have no 3-channel representation.
func expandRGB(img *core.PixelBuffer) (*image.NRGBA, error) {
	scratch, err := core.NewUniform(img.Size(), core.RGBA8, 0xFF)
	if err != nil {
		return nil, err
	}
	src := img.Samples()
	dst := scratch.Samples()
	for i, j := 0, 0; i < len(src); i, j = i+3, j+4 {
		dst[j] = src[i]
		dst[j+1] = src[i+1]
		dst[j+2] = src[i+2]
	}
	return nrgbaView(scratch), nil
}

// stdView maps a buffer to the stdlib image type encoders accept. RGB8 is
// expanded through a scratch NRGBA since the stdlib has no packed 3-channel
// type.
func stdView(op string, img *core.PixelBuffer) (image.Image, error) {
	switch img.Layout() {
	case core.RGB8:
		return expandRGB(img)
	case core.RGBA8:
		return nrgbaView(img), nil
	case core.Gray8:
		return grayView(img), nil
	case core.Gray16:
		return gray16View(img), nil
	}
	return nil, apperrors.New(apperrors.CategoryEncode, op,
		fmt.Errorf("%w: %s", apperrors.ErrLayoutMismatch, img.Layout()))
}

// checkDims rejects degenerate buffers before they reach a native encoder.
func checkDims(op string, img *core.PixelBuffer) error {
	if img == nil || img.Width() <= 0 || img.Height() <= 0 {
		return apperrors.New(apperrors.CategoryEncode, op, apperrors.ErrInvalidDimensions)
	}
	return nil
}
