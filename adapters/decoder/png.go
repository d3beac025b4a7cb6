package decoder

import (
	"bytes"
	"context"
	"image/png"

	"github.com/kervell/imgio/core"
	apperrors "github.com/kervell/imgio/errors"
)

// PNG decodes PNG images using the standard library.
type PNG struct {
	maxPixels int
}

func NewPNG(maxPixels int) *PNG { return &PNG{maxPixels: maxPixels} }

func (p *PNG) CanDecode(format core.Format) bool {
	return format == core.FormatPNG
}

func (p *PNG) ReadHeader(ctx context.Context, data []byte) (core.Size, error) {
	if err := ctx.Err(); err != nil {
		return core.Size{}, apperrors.Wrap(apperrors.CategoryDecode, "png.read_header", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return core.Size{}, apperrors.Wrap(apperrors.CategoryDecode, "png.read_header", err)
	}
	return core.Size{Width: cfg.Width, Height: cfg.Height}, nil
}

func (p *PNG) Decode(ctx context.Context, data []byte, layout core.Layout) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "png.decode", err)
	}

	size, err := p.ReadHeader(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := checkSize("png.decode", size, p.maxPixels); err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "png.decode", err)
	}
	return bufferFromImage(img, layout)
}

var _ core.Decoder = (*PNG)(nil)
