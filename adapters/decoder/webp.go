package decoder

import (
	"bytes"
	"context"

	"golang.org/x/image/webp"

	"github.com/kervell/imgio/core"
	apperrors "github.com/kervell/imgio/errors"
)

// WebP decodes WebP images using golang.org/x/image/webp.
// NOTE: golang.org/x/image/webp does not decode animated WebP.
type WebP struct {
	maxPixels int
}

func NewWebP(maxPixels int) *WebP { return &WebP{maxPixels: maxPixels} }

func (w *WebP) CanDecode(format core.Format) bool {
	return format == core.FormatWebP
}

func (w *WebP) ReadHeader(ctx context.Context, data []byte) (core.Size, error) {
	if err := ctx.Err(); err != nil {
		return core.Size{}, apperrors.Wrap(apperrors.CategoryDecode, "webp.read_header", err)
	}
	cfg, err := webp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return core.Size{}, apperrors.Wrap(apperrors.CategoryDecode, "webp.read_header", err)
	}
	return core.Size{Width: cfg.Width, Height: cfg.Height}, nil
}

func (w *WebP) Decode(ctx context.Context, data []byte, layout core.Layout) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "webp.decode", err)
	}

	size, err := w.ReadHeader(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := checkSize("webp.decode", size, w.maxPixels); err != nil {
		return nil, err
	}

	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "webp.decode", err)
	}
	return bufferFromImage(img, layout)
}

var _ core.Decoder = (*WebP)(nil)
