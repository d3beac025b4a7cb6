// Package decoder provides format-specific image decoders producing
// tightly packed PixelBuffers.
package decoder

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/kervell/imgio/core"
	apperrors "github.com/kervell/imgio/errors"
)

// bufferFromImage converts a decoded image into a PixelBuffer of the requested
// layout. The output is always tightly packed (pitch = width*channels); the
// source's channel order and bounds offset are normalized away.
func bufferFromImage(src image.Image, layout core.Layout) (*core.PixelBuffer, error) {
	bounds := src.Bounds()
	size := core.Size{Width: bounds.Dx(), Height: bounds.Dy()}

	switch layout {
	case core.RGB8:
		nrgba := toNRGBA(src)
		samples := make([]byte, size.Pixels()*3)
		for i, j := 0, 0; i < len(nrgba.Pix); i, j = i+4, j+3 {
			samples[j] = nrgba.Pix[i]
			samples[j+1] = nrgba.Pix[i+1]
			samples[j+2] = nrgba.Pix[i+2]
		}
		return core.NewPixelBuffer(size, core.RGB8, samples)

	case core.RGBA8:
		return core.NewPixelBuffer(size, core.RGBA8, toNRGBA(src).Pix)

	case core.Gray8:
		if g, ok := src.(*image.Gray); ok && g.Stride == size.Width && bounds.Min == (image.Point{}) {
			return core.NewPixelBuffer(size, core.Gray8, g.Pix)
		}
		dst := image.NewGray(image.Rect(0, 0, size.Width, size.Height))
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
		return core.NewPixelBuffer(size, core.Gray8, dst.Pix)

	case core.Gray16:
		if g, ok := src.(*image.Gray16); ok && g.Stride == 2*size.Width && bounds.Min == (image.Point{}) {
			return core.NewPixelBuffer(size, core.Gray16, g.Pix)
		}
		dst := image.NewGray16(image.Rect(0, 0, size.Width, size.Height))
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
		return core.NewPixelBuffer(size, core.Gray16, dst.Pix)
	}

	return nil, apperrors.New(apperrors.CategoryInput, "decode.normalize",
		fmt.Errorf("%w: %s", apperrors.ErrLayoutMismatch, layout))
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && n.Stride == 4*bounds.Dx() && bounds.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst
}

// checkSize guards eager pixel allocation against untrusted header fields.
func checkSize(op string, size core.Size, maxPixels int) error {
	if size.Width <= 0 || size.Height <= 0 {
		return apperrors.New(apperrors.CategoryDecode, op,
			fmt.Errorf("%w: %dx%d", apperrors.ErrInvalidDimensions, size.Width, size.Height))
	}
	if maxPixels > 0 && size.Pixels() > maxPixels {
		return apperrors.New(apperrors.CategoryDecode, op,
			fmt.Errorf("%w: %dx%d exceeds %d pixels", apperrors.ErrImageTooLarge,
				size.Width, size.Height, maxPixels))
	}
	return nil
}
