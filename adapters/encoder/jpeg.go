package encoder

import (
	"context"
	"fmt"
	"image"
	"sync"

	libjpeg "github.com/viam-labs/go-libjpeg/jpeg"
	"github.com/viam-labs/go-libjpeg/rgb"

	"github.com/kervell/imgio/core"
	apperrors "github.com/kervell/imgio/errors"
	"github.com/kervell/imgio/utils"
)

// JPEG encodes RGB8 and Gray8 buffers through the libjpeg-turbo session.
//
// A handle is reusable and safe for concurrent use; the mutex serializes all
// native calls so at most one compression runs per handle at a time.
type JPEG struct {
	mu             sync.Mutex
	defaultQuality int
}

// NewJPEG returns an initialised JPEG encoder. defaultQuality is used when
// EncodeOptions.Quality == 0; values outside 1-100 fall back to 85.
func NewJPEG(defaultQuality int) *JPEG {
	if defaultQuality < 1 || defaultQuality > 100 {
		defaultQuality = 85
	}
	return &JPEG{defaultQuality: defaultQuality}
}

func (j *JPEG) CanEncode(format core.Format) bool {
	return format == core.FormatJPEG
}

// SetQuality changes the default quality for subsequent encodes. Values
// outside the codec's accepted 1-100 range are rejected.
func (j *JPEG) SetQuality(quality int) error {
	if quality < 1 || quality > 100 {
		return apperrors.New(apperrors.CategoryEncode, "jpeg.set_quality",
			fmt.Errorf("%w: %d", apperrors.ErrInvalidQuality, quality))
	}
	j.mu.Lock()
	j.defaultQuality = quality
	j.mu.Unlock()
	return nil
}

// Encode compresses img into JPEG container bytes. The buffer's raw samples
// are handed to the native codec with pitch width*channels (no padding).
func (j *JPEG) Encode(ctx context.Context, img *core.PixelBuffer, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "jpeg.encode", err)
	}
	if err := checkDims("jpeg.encode", img); err != nil {
		return nil, err
	}

	var src image.Image
	switch img.Layout() {
	case core.RGB8:
		src = &rgb.Image{
			Pix:    img.Samples(),
			Stride: 3 * img.Width(),
			Rect:   image.Rect(0, 0, img.Width(), img.Height()),
		}
	case core.Gray8:
		src = grayView(img)
	default:
		return nil, apperrors.New(apperrors.CategoryEncode, "jpeg.encode",
			fmt.Errorf("%w: %s", apperrors.ErrLayoutMismatch, img.Layout()))
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	quality := opts.Quality
	if quality <= 0 {
		quality = j.defaultQuality
	}
	if quality > 100 {
		return nil, apperrors.New(apperrors.CategoryEncode, "jpeg.encode",
			fmt.Errorf("%w: %d", apperrors.ErrInvalidQuality, quality))
	}

	buf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(buf)

	err := libjpeg.Encode(buf, src, &libjpeg.EncoderOptions{
		Quality:         quality,
		ProgressiveMode: opts.Interlaced,
		DCTMethod:       libjpeg.DCTIFast,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "jpeg.encode", err)
	}
	return utils.CloneBytes(buf.Bytes()), nil
}

var _ core.Encoder = (*JPEG)(nil)
