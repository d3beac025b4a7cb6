package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kervell/imgio/config"
	apperrors "github.com/kervell/imgio/errors"
	"github.com/kervell/imgio/utils"
)

// IO is the central orchestrator composing the file store, format dispatch,
// and the codec registry. It is safe for concurrent use; all calls are
// synchronous and run to completion or failure. Any concurrency is
// caller-driven.
type IO struct {
	cfg      config.Config
	registry Registry
	store    FileStore
	hooks    []Hook
	logger   Logger
	metrics  MetricsCollector

	// Atomic counters for lightweight internal metrics.
	processedCount int64
	errorCount     int64
}

// NewIO creates an IO service over the given registry and file store.
func NewIO(cfg config.Config, reg Registry, store FileStore) *IO {
	return &IO{cfg: cfg, registry: reg, store: store}
}

// SetLogger attaches a structured logger.
func (s *IO) SetLogger(l Logger) { s.logger = l }

// SetMetrics attaches a metrics collector.
func (s *IO) SetMetrics(m MetricsCollector) { s.metrics = m }

// AddHook registers an operation observer.
func (s *IO) AddHook(h Hook) { s.hooks = append(s.hooks, h) }

// Registry returns the underlying registry so callers can register
// encoders/decoders after construction.
func (s *IO) Registry() Registry { return s.registry }

// Read validates path against extensions, reads the file, and decodes it with
// the registered codec for format into the given layout.
func (s *IO) Read(ctx context.Context, path string, format Format, extensions []string, layout Layout) (*PixelBuffer, error) {
	op := fmt.Sprintf("read.%s.%s", format, layout)
	start := s.beforeOp(ctx, op, path)

	data, err := s.store.ValidateAndRead(path, extensions)
	if err != nil {
		return nil, s.afterOp(ctx, op, path, start, err)
	}
	dec, ok := s.registry.DecoderFor(format)
	if !ok {
		err = apperrors.New(apperrors.CategoryDecode, op,
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format))
		return nil, s.afterOp(ctx, op, path, start, err)
	}
	img, err := dec.Decode(ctx, data, layout)
	if err != nil {
		return nil, s.afterOp(ctx, op, path, start, err)
	}
	s.recordBytes(int64(len(data)))
	return img, s.afterOp(ctx, op, path, start, nil)
}

// ReadHeader validates path against extensions and parses the container
// header only, for pre-allocation sizing. No pixel storage is touched.
func (s *IO) ReadHeader(ctx context.Context, path string, format Format, extensions []string) (Size, error) {
	data, err := s.store.ValidateAndRead(path, extensions)
	if err != nil {
		return Size{}, err
	}
	dec, ok := s.registry.DecoderFor(format)
	if !ok {
		return Size{}, apperrors.New(apperrors.CategoryDecode, "read_header",
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format))
	}
	return dec.ReadHeader(ctx, data)
}

// ReadAny reads the file at path, sniffs its format from the byte content
// (the extension is ignored), and decodes it to interleaved RGB8.
func (s *IO) ReadAny(ctx context.Context, path string) (*PixelBuffer, error) {
	const op = "read.any.rgb8"
	start := s.beforeOp(ctx, op, path)

	data, err := s.store.Read(path)
	if err != nil {
		return nil, s.afterOp(ctx, op, path, start, err)
	}
	format := Format(utils.DetectFormat(data))
	dec, ok := s.registry.DecoderFor(format)
	if format == FormatUnknown || !ok {
		err = apperrors.New(apperrors.CategoryDecode, op,
			fmt.Errorf("%w: no codec matched content of %s", apperrors.ErrUnsupportedFormat, path))
		return nil, s.afterOp(ctx, op, path, start, err)
	}
	img, err := dec.Decode(ctx, data, RGB8)
	if err != nil {
		return nil, s.afterOp(ctx, op, path, start, err)
	}
	s.recordBytes(int64(len(data)))
	return img, s.afterOp(ctx, op, path, start, nil)
}

// Write encodes img with the registered codec for format and writes the
// container bytes to path in a single whole-buffer write. The buffer's layout
// must match the requested layout.
func (s *IO) Write(ctx context.Context, path string, format Format, layout Layout, img *PixelBuffer, opts EncodeOptions) error {
	op := fmt.Sprintf("write.%s.%s", format, layout)
	start := s.beforeOp(ctx, op, path)

	if img == nil {
		return s.afterOp(ctx, op, path, start,
			apperrors.New(apperrors.CategoryInput, op, apperrors.ErrEmptyInput))
	}
	if img.Layout() != layout {
		return s.afterOp(ctx, op, path, start,
			apperrors.New(apperrors.CategoryInput, op,
				fmt.Errorf("%w: buffer is %s, operation expects %s",
					apperrors.ErrLayoutMismatch, img.Layout(), layout)))
	}
	enc, ok := s.registry.EncoderFor(format)
	if !ok {
		return s.afterOp(ctx, op, path, start,
			apperrors.New(apperrors.CategoryEncode, op,
				fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format)))
	}
	if opts.Quality == 0 {
		opts.Quality = s.cfg.DefaultQuality
	}
	data, err := enc.Encode(ctx, img, opts)
	if err != nil {
		return s.afterOp(ctx, op, path, start, err)
	}
	if err := s.store.Write(path, data); err != nil {
		return s.afterOp(ctx, op, path, start, err)
	}
	s.recordBytes(int64(len(data)))
	return s.afterOp(ctx, op, path, start, nil)
}

// ReadBatch decodes multiple content-sniffed files concurrently, one
// goroutine per path. Results and errors are index-aligned with paths. No
// goroutines outlive the call.
func (s *IO) ReadBatch(ctx context.Context, paths []string) ([]*PixelBuffer, []error) {
	results := make([]*PixelBuffer, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()
			results[idx], errs[idx] = s.ReadAny(ctx, p)
		}(i, path)
	}
	wg.Wait()
	return results, errs
}

// ProcessedCount returns the number of successfully completed operations.
func (s *IO) ProcessedCount() int64 { return atomic.LoadInt64(&s.processedCount) }

// ErrorCount returns the number of failed operations.
func (s *IO) ErrorCount() int64 { return atomic.LoadInt64(&s.errorCount) }

// ── observability plumbing ────────────────────────────────────────────────────

func (s *IO) beforeOp(ctx context.Context, op, path string) time.Time {
	for _, h := range s.hooks {
		h.BeforeOp(ctx, op, path)
	}
	return time.Now()
}

// afterOp records the outcome and returns err unchanged for tail calls.
func (s *IO) afterOp(ctx context.Context, op, path string, start time.Time, err error) error {
	d := time.Since(start)
	for _, h := range s.hooks {
		h.AfterOp(ctx, op, path, d, err)
	}
	if s.metrics != nil {
		s.metrics.RecordOpTime(op, d)
		if err != nil {
			s.metrics.RecordError(op, categoryOf(err))
		}
	}
	if err != nil {
		atomic.AddInt64(&s.errorCount, 1)
		if s.logger != nil {
			s.logger.Error("op.failed", "op", op, "path", path, "error", err.Error())
		}
		return err
	}
	atomic.AddInt64(&s.processedCount, 1)
	if s.logger != nil {
		s.logger.Debug("op.done", "op", op, "path", path, "duration_ms", d.Milliseconds())
	}
	return nil
}

func (s *IO) recordBytes(n int64) {
	if s.metrics != nil {
		s.metrics.RecordThroughput(n)
	}
}

func categoryOf(err error) string {
	for _, cat := range []apperrors.Category{
		apperrors.CategoryDecode,
		apperrors.CategoryEncode,
		apperrors.CategoryStorage,
		apperrors.CategoryConfig,
		apperrors.CategoryInput,
	} {
		if apperrors.IsCategory(err, cat) {
			return string(cat)
		}
	}
	return "unknown"
}
