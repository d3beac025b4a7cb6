package decoder

import (
	"bytes"
	"context"
	"image"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/kervell/imgio/core"
	apperrors "github.com/kervell/imgio/errors"
)

// XFormats decodes the secondary formats reachable through the any-format
// read path (TIFF, BMP) using golang.org/x/image.
type XFormats struct {
	maxPixels int
}

func NewXFormats(maxPixels int) *XFormats { return &XFormats{maxPixels: maxPixels} }

func (x *XFormats) CanDecode(format core.Format) bool {
	return format == core.FormatTIFF || format == core.FormatBMP
}

func (x *XFormats) ReadHeader(ctx context.Context, data []byte) (core.Size, error) {
	if err := ctx.Err(); err != nil {
		return core.Size{}, apperrors.Wrap(apperrors.CategoryDecode, "xformats.read_header", err)
	}
	cfg, err := x.decodeConfig(data)
	if err != nil {
		return core.Size{}, apperrors.Wrap(apperrors.CategoryDecode, "xformats.read_header", err)
	}
	return core.Size{Width: cfg.Width, Height: cfg.Height}, nil
}

func (x *XFormats) Decode(ctx context.Context, data []byte, layout core.Layout) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "xformats.decode", err)
	}

	size, err := x.ReadHeader(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := checkSize("xformats.decode", size, x.maxPixels); err != nil {
		return nil, err
	}

	var img image.Image
	if isBMP(data) {
		img, err = bmp.Decode(bytes.NewReader(data))
	} else {
		img, err = tiff.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "xformats.decode", err)
	}
	return bufferFromImage(img, layout)
}

func (x *XFormats) decodeConfig(data []byte) (image.Config, error) {
	if isBMP(data) {
		return bmp.DecodeConfig(bytes.NewReader(data))
	}
	return tiff.DecodeConfig(bytes.NewReader(data))
}

func isBMP(data []byte) bool {
	return len(data) >= 2 && data[0] == 'B' && data[1] == 'M'
}

var _ core.Decoder = (*XFormats)(nil)
