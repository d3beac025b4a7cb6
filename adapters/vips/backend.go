// Package vips provides a unified libvips-powered Decoder and Encoder.
package vips

import (
	"context"
	"fmt"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/kervell/imgio/config"
	"github.com/kervell/imgio/core"
	apperrors "github.com/kervell/imgio/errors"
)

// Backend routes JPEG, PNG, and WebP through one shared libvips session.
// libvips serializes access to its operation cache internally, so a single
// Backend is safe for concurrent use across goroutines.
type Backend struct {
	cfg       config.VipsConfig
	quality   int
	maxPixels int
}

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg config.Config) *Backend {
	concurrency := cfg.Vips.ConcurrencyLevel
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	govips.Startup(&govips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheSize:     cfg.Vips.MaxCacheSize,
		ReportLeaks:      cfg.Vips.ReportLeaks,
	})
	quality := cfg.DefaultQuality
	if quality <= 0 {
		quality = 85
	}
	return &Backend{cfg: cfg.Vips, quality: quality, maxPixels: cfg.MaxPixels}
}

// Shutdown releases all libvips resources. Call once at process exit.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

// ─── Decoder ──────────────────────────────────────────────────────────────────

func (b *Backend) CanDecode(f core.Format) bool {
	switch f {
	case core.FormatJPEG, core.FormatPNG, core.FormatWebP, core.FormatUnknown:
		return true
	}
	return false
}

func (b *Backend) ReadHeader(ctx context.Context, data []byte) (core.Size, error) {
	if err := ctx.Err(); err != nil {
		return core.Size{}, apperrors.Wrap(apperrors.CategoryDecode, "vips.read_header", err)
	}
	// vips decodes lazily; constructing the ref reads the header only.
	ref, err := govips.NewImageFromBuffer(data)
	if err != nil {
		return core.Size{}, apperrors.Wrap(apperrors.CategoryDecode, "vips.read_header", err)
	}
	defer ref.Close()
	return core.Size{Width: ref.Width(), Height: ref.Height()}, nil
}

func (b *Backend) Decode(ctx context.Context, data []byte, layout core.Layout) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode", err)
	}

	ref, err := govips.NewImageFromBuffer(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode", err)
	}
	defer ref.Close()

	size := core.Size{Width: ref.Width(), Height: ref.Height()}
	if b.maxPixels > 0 && size.Pixels() > b.maxPixels {
		return nil, apperrors.New(apperrors.CategoryDecode, "vips.decode",
			fmt.Errorf("%w: %dx%d exceeds %d pixels", apperrors.ErrImageTooLarge,
				size.Width, size.Height, b.maxPixels))
	}

	switch layout {
	case core.RGB8:
		if ref.HasAlpha() {
			if err := ref.Flatten(&govips.Color{R: 255, G: 255, B: 255}); err != nil {
				return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.flatten", err)
			}
		}
		if err := ref.ToColorSpace(govips.InterpretationSRGB); err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.srgb", err)
		}
	case core.RGBA8:
		if err := ref.ToColorSpace(govips.InterpretationSRGB); err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.srgb", err)
		}
		if !ref.HasAlpha() {
			if err := ref.AddAlpha(); err != nil {
				return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.alpha", err)
			}
		}
	case core.Gray8:
		if ref.HasAlpha() {
			if err := ref.Flatten(&govips.Color{R: 255, G: 255, B: 255}); err != nil {
				return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.flatten", err)
			}
		}
		if err := ref.ToColorSpace(govips.InterpretationBW); err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.bw", err)
		}
	default:
		return nil, apperrors.New(apperrors.CategoryDecode, "vips.decode",
			fmt.Errorf("%w: %s not supported by the vips backend", apperrors.ErrLayoutMismatch, layout))
	}

	samples, err := ref.ToBytes()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.export", err)
	}
	// NewPixelBuffer verifies the exported sample count against the shape.
	return core.NewPixelBuffer(size, layout, samples)
}

// ─── Encoder ──────────────────────────────────────────────────────────────────

// FormatEncoder binds the shared Backend to one target container format, so
// one Backend can occupy several registry slots.
type FormatEncoder struct {
	b      *Backend
	format core.Format
}

// Encoder returns a core.Encoder producing the given format.
func (b *Backend) Encoder(format core.Format) *FormatEncoder {
	return &FormatEncoder{b: b, format: format}
}

func (e *FormatEncoder) CanEncode(f core.Format) bool { return f == e.format }

func (e *FormatEncoder) Encode(ctx context.Context, img *core.PixelBuffer, opts core.EncodeOptions) ([]byte, error) {
	op := "vips.encode." + string(e.format)
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, op, err)
	}
	if img == nil || img.Width() <= 0 || img.Height() <= 0 {
		return nil, apperrors.New(apperrors.CategoryEncode, op, apperrors.ErrInvalidDimensions)
	}
	if img.Layout() == core.Gray16 {
		return nil, apperrors.New(apperrors.CategoryEncode, op,
			fmt.Errorf("%w: %s not supported by the vips backend", apperrors.ErrLayoutMismatch, img.Layout()))
	}

	interp := govips.InterpretationSRGB
	if img.Layout() == core.Gray8 {
		interp = govips.InterpretationBW
	}
	ref, err := govips.NewImageFromMemory(img.Samples(), img.Width(), img.Height(), img.Channels(), govips.BandFormatUchar, interp)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, op, err)
	}
	defer ref.Close()

	quality := opts.Quality
	if quality <= 0 {
		quality = e.b.quality
	}

	switch e.format {
	case core.FormatJPEG:
		ep := govips.NewJpegExportParams()
		ep.Quality = quality
		ep.Interlace = opts.Interlaced
		buf, _, err := ref.ExportJpeg(ep)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryEncode, op, err)
		}
		return buf, nil

	case core.FormatPNG:
		ep := govips.NewPngExportParams()
		ep.Interlace = opts.Interlaced
		buf, _, err := ref.ExportPng(ep)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryEncode, op, err)
		}
		return buf, nil

	case core.FormatWebP:
		ep := govips.NewWebpExportParams()
		ep.Quality = quality
		ep.Lossless = opts.Lossless
		buf, _, err := ref.ExportWebp(ep)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryEncode, op, err)
		}
		return buf, nil

	default:
		return nil, apperrors.New(apperrors.CategoryEncode, op,
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, e.format))
	}
}

// RegisterBackend routes all supported formats through the shared libvips
// session, replacing the built-in codecs.
func RegisterBackend(reg core.Registry, b *Backend) {
	for _, f := range []core.Format{core.FormatJPEG, core.FormatPNG, core.FormatWebP} {
		reg.RegisterDecoder(f, b)
		reg.RegisterEncoder(f, b.Encoder(f))
	}
}

var _ core.Decoder = (*Backend)(nil)
var _ core.Encoder = (*FormatEncoder)(nil)
