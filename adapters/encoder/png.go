package encoder

import (
	"context"
	"image/png"

	"github.com/kervell/imgio/core"
	apperrors "github.com/kervell/imgio/errors"
	"github.com/kervell/imgio/utils"
)

// PNG encodes buffers to PNG using the standard library. All four layouts are
// supported; Gray16 samples are written big-endian as stored.
type PNG struct{}

func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanEncode(format core.Format) bool { return format == core.FormatPNG }

func (p *PNG) Encode(ctx context.Context, img *core.PixelBuffer, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "png.encode", err)
	}
	if err := checkDims("png.encode", img); err != nil {
		return nil, err
	}

	src, err := stdView("png.encode", img)
	if err != nil {
		return nil, err
	}

	enc := &png.Encoder{CompressionLevel: png.DefaultCompression}
	if opts.Lossless {
		enc.CompressionLevel = png.BestCompression
	}

	buf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(buf)

	if err := enc.Encode(buf, src); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "png.encode", err)
	}
	return utils.CloneBytes(buf.Bytes()), nil
}

var _ core.Encoder = (*PNG)(nil)
