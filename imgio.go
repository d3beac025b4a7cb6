// Package imgio is a thin image I/O layer: it opens files, detects the
// container format by extension or content, and delegates pixel
// decoding/encoding to the wrapped codec libraries.
package imgio

import (
	"context"
	"sync"

	"github.com/kervell/imgio/adapters/decoder"
	"github.com/kervell/imgio/adapters/encoder"
	"github.com/kervell/imgio/adapters/storage"
	"github.com/kervell/imgio/adapters/vips"
	"github.com/kervell/imgio/config"
	"github.com/kervell/imgio/core"
)

// Re-export Format and Layout constants for convenience.
const (
	JPEG = core.FormatJPEG
	PNG  = core.FormatPNG
	WebP = core.FormatWebP

	RGB8   = core.RGB8
	Gray8  = core.Gray8
	RGBA8  = core.RGBA8
	Gray16 = core.Gray16
)

// Accepted extension sets per format-checked operation (case-insensitive).
var (
	jpegExtensions = []string{"jpg", "jpeg"}
	pngExtensions  = []string{"png"}
	webpExtensions = []string{"webp"}
)

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() config.Config { return config.Default() }

// IO is the primary entry point.
type IO struct {
	inner *core.IO
	reg   *core.DefaultRegistry
	vips  *vips.Backend
}

// New creates a fully wired IO service with codecs for JPEG, PNG, WebP, TIFF,
// and BMP registered according to cfg.Backend.
func New(cfg config.Config) *IO {
	if cfg.DefaultQuality == 0 {
		cfg.DefaultQuality = config.Default().DefaultQuality
	}
	if cfg.MaxPixels == 0 {
		cfg.MaxPixels = config.DefaultMaxPixels
	}

	reg := core.NewRegistry()
	svc := &IO{reg: reg}

	// Built-in codecs.
	reg.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG(cfg.MaxPixels))
	reg.RegisterDecoder(core.FormatPNG, decoder.NewPNG(cfg.MaxPixels))
	reg.RegisterDecoder(core.FormatWebP, decoder.NewWebP(cfg.MaxPixels))
	xf := decoder.NewXFormats(cfg.MaxPixels)
	reg.RegisterDecoder(core.FormatTIFF, xf)
	reg.RegisterDecoder(core.FormatBMP, xf)
	reg.RegisterEncoder(core.FormatJPEG, encoder.NewJPEG(cfg.DefaultQuality))
	reg.RegisterEncoder(core.FormatPNG, encoder.NewPNG())
	reg.RegisterEncoder(core.FormatWebP, encoder.NewWebP(cfg.DefaultQuality))

	if cfg.Backend == config.BackendVips {
		svc.vips = vips.NewBackend(cfg)
		vips.RegisterBackend(reg, svc.vips)
	}

	svc.inner = core.NewIO(cfg, reg, storage.NewLocal(0))
	return svc
}

// Close releases backend resources. Safe to call once at process exit.
func (p *IO) Close() {
	if p.vips != nil {
		p.vips.Shutdown()
	}
}

// SetLogger attaches a structured logger.
func (p *IO) SetLogger(l core.Logger) { p.inner.SetLogger(l) }

// SetMetrics attaches a metrics collector.
func (p *IO) SetMetrics(m core.MetricsCollector) { p.inner.SetMetrics(m) }

// AddHook registers an observer for operation events.
func (p *IO) AddHook(h core.Hook) { p.inner.AddHook(h) }

// RegisterDecoder registers a custom decoder for the given format.
func (p *IO) RegisterDecoder(f core.Format, d core.Decoder) { p.reg.RegisterDecoder(f, d) }

// RegisterEncoder registers a custom encoder for the given format.
func (p *IO) RegisterEncoder(f core.Format, e core.Encoder) { p.reg.RegisterEncoder(f, e) }

// Inner exposes the underlying core.IO for advanced use (e.g., direct
// registry access in tests). Prefer the high-level API for normal usage.
func (p *IO) Inner() *core.IO { return p.inner }

// Stats returns lightweight processing statistics.
func (p *IO) Stats() (processed, errors int64) {
	return p.inner.ProcessedCount(), p.inner.ErrorCount()
}

// ── JPEG ──────────────────────────────────────────────────────────────────────

// ReadJPEGRGB8 reads an interleaved RGB8 image from a JPEG file.
// The path must exist and carry a .jpg or .jpeg extension.
func (p *IO) ReadJPEGRGB8(ctx context.Context, path string) (*core.PixelBuffer, error) {
	return p.inner.Read(ctx, path, core.FormatJPEG, jpegExtensions, core.RGB8)
}

// ReadJPEGGray8 reads a single-channel Gray8 image from a JPEG file.
func (p *IO) ReadJPEGGray8(ctx context.Context, path string) (*core.PixelBuffer, error) {
	return p.inner.Read(ctx, path, core.FormatJPEG, jpegExtensions, core.Gray8)
}

// ReadJPEGHeader parses the JPEG header only and returns the declared
// dimensions, for pre-allocation sizing.
func (p *IO) ReadJPEGHeader(ctx context.Context, path string) (core.Size, error) {
	return p.inner.ReadHeader(ctx, path, core.FormatJPEG, jpegExtensions)
}

// WriteJPEGRGB8 encodes an RGB8 buffer as JPEG and writes it to path.
func (p *IO) WriteJPEGRGB8(ctx context.Context, path string, img *core.PixelBuffer) error {
	return p.inner.Write(ctx, path, core.FormatJPEG, core.RGB8, img, core.EncodeOptions{})
}

// WriteJPEGGray8 encodes a Gray8 buffer as grayscale JPEG and writes it to path.
func (p *IO) WriteJPEGGray8(ctx context.Context, path string, img *core.PixelBuffer) error {
	return p.inner.Write(ctx, path, core.FormatJPEG, core.Gray8, img, core.EncodeOptions{})
}

// ── PNG ───────────────────────────────────────────────────────────────────────

func (p *IO) ReadPNGRGB8(ctx context.Context, path string) (*core.PixelBuffer, error) {
	return p.inner.Read(ctx, path, core.FormatPNG, pngExtensions, core.RGB8)
}

func (p *IO) ReadPNGGray8(ctx context.Context, path string) (*core.PixelBuffer, error) {
	return p.inner.Read(ctx, path, core.FormatPNG, pngExtensions, core.Gray8)
}

func (p *IO) ReadPNGRGBA8(ctx context.Context, path string) (*core.PixelBuffer, error) {
	return p.inner.Read(ctx, path, core.FormatPNG, pngExtensions, core.RGBA8)
}

// ReadPNGGray16 reads a 16-bit grayscale PNG; samples are big-endian.
func (p *IO) ReadPNGGray16(ctx context.Context, path string) (*core.PixelBuffer, error) {
	return p.inner.Read(ctx, path, core.FormatPNG, pngExtensions, core.Gray16)
}

func (p *IO) WritePNGRGB8(ctx context.Context, path string, img *core.PixelBuffer) error {
	return p.inner.Write(ctx, path, core.FormatPNG, core.RGB8, img, core.EncodeOptions{})
}

func (p *IO) WritePNGGray8(ctx context.Context, path string, img *core.PixelBuffer) error {
	return p.inner.Write(ctx, path, core.FormatPNG, core.Gray8, img, core.EncodeOptions{})
}

func (p *IO) WritePNGRGBA8(ctx context.Context, path string, img *core.PixelBuffer) error {
	return p.inner.Write(ctx, path, core.FormatPNG, core.RGBA8, img, core.EncodeOptions{})
}

func (p *IO) WritePNGGray16(ctx context.Context, path string, img *core.PixelBuffer) error {
	return p.inner.Write(ctx, path, core.FormatPNG, core.Gray16, img, core.EncodeOptions{})
}

// ── WebP ──────────────────────────────────────────────────────────────────────

func (p *IO) ReadWebPRGB8(ctx context.Context, path string) (*core.PixelBuffer, error) {
	return p.inner.Read(ctx, path, core.FormatWebP, webpExtensions, core.RGB8)
}

func (p *IO) WriteWebPRGB8(ctx context.Context, path string, img *core.PixelBuffer) error {
	return p.inner.Write(ctx, path, core.FormatWebP, core.RGB8, img, core.EncodeOptions{})
}

// ── Any format ────────────────────────────────────────────────────────────────

// ReadAnyRGB8 reads an RGB8 image from any supported format. The format is
// sniffed from the byte content; the file extension is not checked.
func (p *IO) ReadAnyRGB8(ctx context.Context, path string) (*core.PixelBuffer, error) {
	return p.inner.ReadAny(ctx, path)
}

// ReadBatchRGB8 decodes multiple content-sniffed files concurrently. Results
// and errors are index-aligned with paths.
func (p *IO) ReadBatchRGB8(ctx context.Context, paths []string) ([]*core.PixelBuffer, []error) {
	return p.inner.ReadBatch(ctx, paths)
}

// WriteWithOptions is the generic write entry point for callers needing
// quality, lossless, or interlace control.
func (p *IO) WriteWithOptions(ctx context.Context, path string, format core.Format, layout core.Layout, img *core.PixelBuffer, opts core.EncodeOptions) error {
	return p.inner.Write(ctx, path, format, layout, img, opts)
}

// ── Package-level conveniences over a shared default service ──────────────────

var (
	defaultOnce sync.Once
	defaultIO   *IO
)

// Default returns the lazily constructed shared IO service.
func Default() *IO {
	defaultOnce.Do(func() { defaultIO = New(config.Default()) })
	return defaultIO
}

// ReadJPEGRGB8 reads an RGB8 image from a JPEG file using the default service.
func ReadJPEGRGB8(path string) (*core.PixelBuffer, error) {
	return Default().ReadJPEGRGB8(context.Background(), path)
}

// ReadJPEGGray8 reads a Gray8 image from a JPEG file using the default service.
func ReadJPEGGray8(path string) (*core.PixelBuffer, error) {
	return Default().ReadJPEGGray8(context.Background(), path)
}

// WriteJPEGRGB8 writes an RGB8 buffer as JPEG using the default service.
func WriteJPEGRGB8(path string, img *core.PixelBuffer) error {
	return Default().WriteJPEGRGB8(context.Background(), path, img)
}

// WriteJPEGGray8 writes a Gray8 buffer as grayscale JPEG using the default service.
func WriteJPEGGray8(path string, img *core.PixelBuffer) error {
	return Default().WriteJPEGGray8(context.Background(), path, img)
}

// ReadAnyRGB8 reads an RGB8 image from any supported format using the default
// service.
func ReadAnyRGB8(path string) (*core.PixelBuffer, error) {
	return Default().ReadAnyRGB8(context.Background(), path)
}

func ReadPNGRGB8(path string) (*core.PixelBuffer, error) {
	return Default().ReadPNGRGB8(context.Background(), path)
}

func ReadPNGGray8(path string) (*core.PixelBuffer, error) {
	return Default().ReadPNGGray8(context.Background(), path)
}

func ReadPNGGray16(path string) (*core.PixelBuffer, error) {
	return Default().ReadPNGGray16(context.Background(), path)
}

func ReadPNGRGBA8(path string) (*core.PixelBuffer, error) {
	return Default().ReadPNGRGBA8(context.Background(), path)
}

func WritePNGRGB8(path string, img *core.PixelBuffer) error {
	return Default().WritePNGRGB8(context.Background(), path, img)
}

func WritePNGGray8(path string, img *core.PixelBuffer) error {
	return Default().WritePNGGray8(context.Background(), path, img)
}

func WritePNGGray16(path string, img *core.PixelBuffer) error {
	return Default().WritePNGGray16(context.Background(), path, img)
}

func WritePNGRGBA8(path string, img *core.PixelBuffer) error {
	return Default().WritePNGRGBA8(context.Background(), path, img)
}
