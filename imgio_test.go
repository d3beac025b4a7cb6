package imgio_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	imgio "github.com/kervell/imgio"
	"github.com/kervell/imgio/core"
	apperrors "github.com/kervell/imgio/errors"
	"github.com/kervell/imgio/hooks"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

func newService(t *testing.T) *imgio.IO {
	t.Helper()
	svc := imgio.New(imgio.DefaultConfig())
	t.Cleanup(svc.Close)
	return svc
}

// gradientRGB builds a smooth horizontal gradient, friendly to lossy codecs.
func gradientRGB(t *testing.T, w, h int) *core.PixelBuffer {
	t.Helper()
	samples := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := byte(x * 255 / (w - 1))
			i := (y*w + x) * 3
			samples[i] = v
			samples[i+1] = v
			samples[i+2] = 255 - v
		}
	}
	buf, err := core.NewPixelBuffer(core.Size{Width: w, Height: h}, core.RGB8, samples)
	if err != nil {
		t.Fatalf("build rgb fixture: %v", err)
	}
	return buf
}

func uniformRGB(t *testing.T, w, h int, v byte) *core.PixelBuffer {
	t.Helper()
	buf, err := core.NewUniform(core.Size{Width: w, Height: h}, core.RGB8, v)
	if err != nil {
		t.Fatalf("build uniform fixture: %v", err)
	}
	return buf
}

func sampleSum(buf *core.PixelBuffer) int64 {
	var sum int64
	for _, s := range buf.Samples() {
		sum += int64(s)
	}
	return sum
}

// ── JPEG ──────────────────────────────────────────────────────────────────────

func TestWriteReadJPEGRGB8(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dog.jpeg")

	if err := svc.WriteJPEGRGB8(ctx, path, gradientRGB(t, 258, 195)); err != nil {
		t.Fatalf("WriteJPEGRGB8: %v", err)
	}

	img, err := svc.ReadJPEGRGB8(ctx, path)
	if err != nil {
		t.Fatalf("ReadJPEGRGB8: %v", err)
	}
	if img.Width() != 258 || img.Height() != 195 || img.Channels() != 3 {
		t.Fatalf("shape = %dx%dx%d, want 258x195x3", img.Width(), img.Height(), img.Channels())
	}

	// Re-encode and re-decode preserves dimensions.
	path2 := filepath.Join(t.TempDir(), "dog2.jpg")
	if err := svc.WriteJPEGRGB8(ctx, path2, img); err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	img2, err := svc.ReadJPEGRGB8(ctx, path2)
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if img2.Width() != 258 || img2.Height() != 195 || img2.Channels() != 3 {
		t.Fatalf("re-decoded shape = %dx%dx%d", img2.Width(), img2.Height(), img2.Channels())
	}
}

func TestJPEGLossyTolerance(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flat.jpg")

	src := uniformRGB(t, 64, 64, 128)
	if err := svc.WriteJPEGRGB8(ctx, path, src); err != nil {
		t.Fatalf("WriteJPEGRGB8: %v", err)
	}
	back, err := svc.ReadJPEGRGB8(ctx, path)
	if err != nil {
		t.Fatalf("ReadJPEGRGB8: %v", err)
	}

	ratio := float64(sampleSum(back)) / float64(sampleSum(src))
	if ratio < 0.9 || ratio > 1.1 {
		t.Errorf("sample-sum ratio = %.3f, want within [0.9, 1.1]", ratio)
	}
}

func TestWriteReadJPEGGray8(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ramp.jpeg")

	src, err := core.NewPixelBuffer(core.Size{Width: 2, Height: 1}, core.Gray8, []byte{0, 255})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.WriteJPEGGray8(ctx, path, src); err != nil {
		t.Fatalf("WriteJPEGGray8: %v", err)
	}

	back, err := svc.ReadJPEGGray8(ctx, path)
	if err != nil {
		t.Fatalf("ReadJPEGGray8: %v", err)
	}
	if back.Width() != 2 || back.Height() != 1 || back.Channels() != 1 {
		t.Fatalf("shape = %dx%dx%d, want 2x1x1", back.Width(), back.Height(), back.Channels())
	}
	s := back.Samples()
	if s[0] > s[1] {
		t.Errorf("row not non-decreasing: %v", s)
	}
}

func TestJPEGHeaderDecodeAgreement(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hdr.jpg")

	if err := svc.WriteJPEGRGB8(ctx, path, gradientRGB(t, 97, 41)); err != nil {
		t.Fatal(err)
	}

	size, err := svc.ReadJPEGHeader(ctx, path)
	if err != nil {
		t.Fatalf("ReadJPEGHeader: %v", err)
	}
	img, err := svc.ReadJPEGRGB8(ctx, path)
	if err != nil {
		t.Fatalf("ReadJPEGRGB8: %v", err)
	}
	if size.Width != img.Width() || size.Height != img.Height() {
		t.Errorf("header %dx%d != decode %dx%d", size.Width, size.Height, img.Width(), img.Height())
	}
}

// ── PNG round trips ───────────────────────────────────────────────────────────

func TestPNGRoundTripExact(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	dir := t.TempDir()

	write := map[core.Layout]func(context.Context, string, *core.PixelBuffer) error{
		core.RGB8:   svc.WritePNGRGB8,
		core.Gray8:  svc.WritePNGGray8,
		core.RGBA8:  svc.WritePNGRGBA8,
		core.Gray16: svc.WritePNGGray16,
	}
	read := map[core.Layout]func(context.Context, string) (*core.PixelBuffer, error){
		core.RGB8:   svc.ReadPNGRGB8,
		core.Gray8:  svc.ReadPNGGray8,
		core.RGBA8:  svc.ReadPNGRGBA8,
		core.Gray16: svc.ReadPNGGray16,
	}

	for _, layout := range []core.Layout{core.RGB8, core.Gray8, core.RGBA8, core.Gray16} {
		t.Run(string(layout), func(t *testing.T) {
			size := core.Size{Width: 5, Height: 3}
			samples := make([]byte, size.Pixels()*layout.PixelBytes())
			for i := range samples {
				samples[i] = byte(i * 13)
			}
			if layout == core.RGBA8 {
				// Keep alpha opaque so the codec has no excuse to touch RGB.
				for i := 3; i < len(samples); i += 4 {
					samples[i] = 0xFF
				}
			}
			src, err := core.NewPixelBuffer(size, layout, samples)
			if err != nil {
				t.Fatal(err)
			}

			path := filepath.Join(dir, string(layout)+".png")
			if err := write[layout](ctx, path, src); err != nil {
				t.Fatalf("write: %v", err)
			}
			back, err := read[layout](ctx, path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if back.Size() != src.Size() || back.Layout() != src.Layout() {
				t.Fatalf("shape changed: %v %s", back.Size(), back.Layout())
			}
			got, want := back.Samples(), src.Samples()
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("samples[%d] = %d, want %d (lossless round trip broken)", i, got[i], want[i])
				}
			}
		})
	}
}

// ── Error taxonomy ────────────────────────────────────────────────────────────

func TestExtensionValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "image.png")

	if err := svc.WritePNGGray8(ctx, path, mustGray(t, 2, 2)); err != nil {
		t.Fatal(err)
	}

	// A PNG handed to a JPEG-only read fails on the extension, before any
	// codec sees the bytes.
	_, err := svc.ReadJPEGRGB8(ctx, path)
	if !errors.Is(err, apperrors.ErrInvalidFileExtension) {
		t.Errorf("error = %v, want ErrInvalidFileExtension", err)
	}
	if apperrors.IsCategory(err, apperrors.CategoryDecode) {
		t.Error("extension failure must not be a codec error")
	}
}

func TestMissingFile(t *testing.T) {
	svc := newService(t)
	_, err := svc.ReadJPEGRGB8(context.Background(), filepath.Join(t.TempDir(), "absent.jpg"))
	if !errors.Is(err, apperrors.ErrFileDoesNotExist) {
		t.Errorf("error = %v, want ErrFileDoesNotExist", err)
	}
}

func TestLayoutMismatchOnWrite(t *testing.T) {
	svc := newService(t)
	err := svc.WriteJPEGRGB8(context.Background(), filepath.Join(t.TempDir(), "x.jpg"), mustGray(t, 2, 2))
	if !errors.Is(err, apperrors.ErrLayoutMismatch) {
		t.Errorf("error = %v, want ErrLayoutMismatch", err)
	}
}

func TestMalformedBitstreamIsCodecError(t *testing.T) {
	svc := newService(t)
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte{0x89, 'P', 'N', 'G', 0, 0, 0, 0, 1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := svc.ReadPNGRGB8(context.Background(), path)
	if err == nil {
		t.Fatal("expected decode failure")
	}
	if !apperrors.IsCategory(err, apperrors.CategoryDecode) {
		t.Errorf("error category = %v, want decode", err)
	}
}

// ── Any-format read ───────────────────────────────────────────────────────────

func TestReadAnyRGB8_SniffsContent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	dir := t.TempDir()

	// PNG bytes behind a misleading extension: content sniffing must win.
	path := filepath.Join(dir, "actually-a-png.dat")
	src := gradientRGB(t, 12, 7)
	if err := svc.WriteWithOptions(ctx, path, core.FormatPNG, core.RGB8, src, core.EncodeOptions{}); err != nil {
		t.Fatal(err)
	}

	img, err := svc.ReadAnyRGB8(ctx, path)
	if err != nil {
		t.Fatalf("ReadAnyRGB8: %v", err)
	}
	if img.Width() != 12 || img.Height() != 7 || img.Layout() != core.RGB8 {
		t.Fatalf("shape = %dx%d %s", img.Width(), img.Height(), img.Layout())
	}
	// PNG is lossless, so the pixels survive the trip.
	for i, want := range src.Samples() {
		if img.Samples()[i] != want {
			t.Fatalf("samples[%d] = %d, want %d", i, img.Samples()[i], want)
		}
	}
}

func TestReadAnyRGB8_UnsupportedContent(t *testing.T) {
	svc := newService(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("definitely not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := svc.ReadAnyRGB8(context.Background(), path)
	if !errors.Is(err, apperrors.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestReadBatchRGB8(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	dir := t.TempDir()

	paths := make([]string, 3)
	for i := range paths {
		paths[i] = filepath.Join(dir, "img"+string(rune('a'+i))+".png")
		if err := svc.WritePNGRGB8(ctx, paths[i], gradientRGB(t, 8, 8)); err != nil {
			t.Fatal(err)
		}
	}
	paths = append(paths, filepath.Join(dir, "missing.png"))

	results, errs := svc.ReadBatchRGB8(ctx, paths)
	for i := 0; i < 3; i++ {
		if errs[i] != nil {
			t.Errorf("paths[%d]: %v", i, errs[i])
		}
		if results[i] == nil || results[i].Width() != 8 {
			t.Errorf("paths[%d]: bad result", i)
		}
	}
	if !errors.Is(errs[3], apperrors.ErrFileDoesNotExist) {
		t.Errorf("missing path error = %v", errs[3])
	}
}

// ── WebP ──────────────────────────────────────────────────────────────────────

func TestWriteReadWebPRGB8(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pic.webp")

	if err := svc.WriteWebPRGB8(ctx, path, gradientRGB(t, 32, 16)); err != nil {
		t.Fatalf("WriteWebPRGB8: %v", err)
	}
	img, err := svc.ReadWebPRGB8(ctx, path)
	if err != nil {
		t.Fatalf("ReadWebPRGB8: %v", err)
	}
	if img.Width() != 32 || img.Height() != 16 || img.Channels() != 3 {
		t.Fatalf("shape = %dx%dx%d", img.Width(), img.Height(), img.Channels())
	}
}

// ── Concurrency & observability ───────────────────────────────────────────────

func TestConcurrentReadsShareService(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.jpg")
	if err := svc.WriteJPEGRGB8(ctx, path, gradientRGB(t, 60, 40)); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := svc.ReadJPEGRGB8(ctx, path)
			if err != nil {
				t.Errorf("concurrent read: %v", err)
				return
			}
			if img.Width() != 60 || img.Height() != 40 {
				t.Errorf("shape = %dx%d", img.Width(), img.Height())
			}
		}()
	}
	wg.Wait()
}

func TestMetricsAndStats(t *testing.T) {
	svc := newService(t)
	metrics := hooks.NewInMemoryMetrics()
	svc.SetMetrics(metrics)

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "m.png")
	if err := svc.WritePNGGray8(ctx, path, mustGray(t, 4, 4)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ReadPNGGray8(ctx, path); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ReadPNGGray8(ctx, filepath.Join(t.TempDir(), "absent.png")); err == nil {
		t.Fatal("expected failure")
	}

	processed, failed := svc.Stats()
	if processed != 2 {
		t.Errorf("processed = %d, want 2", processed)
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}

	snap := metrics.Snapshot()
	if snap.OpCalls["read.png.gray8"] != 2 {
		t.Errorf("op calls = %d, want 2", snap.OpCalls["read.png.gray8"])
	}
	if snap.OpErrors["read.png.gray8"] != 1 {
		t.Errorf("op errors = %d, want 1", snap.OpErrors["read.png.gray8"])
	}
	if snap.TotalThroughputB == 0 {
		t.Error("no throughput recorded")
	}
}

func mustGray(t *testing.T, w, h int) *core.PixelBuffer {
	t.Helper()
	buf, err := core.NewUniform(core.Size{Width: w, Height: h}, core.Gray8, 99)
	if err != nil {
		t.Fatal(err)
	}
	return buf
}
