package encoder

import (
	"context"

	"github.com/gen2brain/webp"

	"github.com/kervell/imgio/core"
	apperrors "github.com/kervell/imgio/errors"
	"github.com/kervell/imgio/utils"
)

// WebP encodes buffers to WebP using github.com/gen2brain/webp (pure-Go
// WASM-based libwebp; uses a system libwebp via purego when available).
type WebP struct {
	defaultQuality int
}

func NewWebP(defaultQuality int) *WebP {
	if defaultQuality < 1 || defaultQuality > 100 {
		defaultQuality = 85
	}
	return &WebP{defaultQuality: defaultQuality}
}

func (w *WebP) CanEncode(format core.Format) bool { return format == core.FormatWebP }

func (w *WebP) Encode(ctx context.Context, img *core.PixelBuffer, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "webp.encode", err)
	}
	if err := checkDims("webp.encode", img); err != nil {
		return nil, err
	}

	src, err := stdView("webp.encode", img)
	if err != nil {
		return nil, err
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = w.defaultQuality
	}

	buf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(buf)

	if err := webp.Encode(buf, src, webp.Options{Quality: quality, Lossless: opts.Lossless}); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "webp.encode", err)
	}
	return utils.CloneBytes(buf.Bytes()), nil
}

var _ core.Encoder = (*WebP)(nil)
