package decoder_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kervell/imgio/adapters/decoder"
	"github.com/kervell/imgio/adapters/encoder"
	"github.com/kervell/imgio/core"
	apperrors "github.com/kervell/imgio/errors"
)

func encodeFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	samples := make([]byte, w*h*3)
	for i := range samples {
		samples[i] = byte(i % 251)
	}
	img, err := core.NewPixelBuffer(core.Size{Width: w, Height: h}, core.RGB8, samples)
	if err != nil {
		t.Fatal(err)
	}
	data, err := encoder.NewJPEG(90).Encode(context.Background(), img, core.EncodeOptions{})
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return data
}

func TestJPEG_HeaderDecodeAgreement(t *testing.T) {
	data := encodeFixture(t, 37, 23)
	dec := decoder.NewJPEG(0)
	ctx := context.Background()

	size, err := dec.ReadHeader(ctx, data)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	img, err := dec.Decode(ctx, data, core.RGB8)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if size.Width != img.Width() || size.Height != img.Height() {
		t.Errorf("header %dx%d != decode %dx%d", size.Width, size.Height, img.Width(), img.Height())
	}
	if got, want := len(img.Samples()), 37*23*3; got != want {
		t.Errorf("sample count = %d, want %d (tight pitch)", got, want)
	}
}

func TestJPEG_DecodeGray8FromColor(t *testing.T) {
	data := encodeFixture(t, 16, 16)
	img, err := decoder.NewJPEG(0).Decode(context.Background(), data, core.Gray8)
	if err != nil {
		t.Fatalf("Decode gray: %v", err)
	}
	if img.Channels() != 1 || img.Layout() != core.Gray8 {
		t.Errorf("layout = %s", img.Layout())
	}
	if len(img.Samples()) != 16*16 {
		t.Errorf("sample count = %d, want 256", len(img.Samples()))
	}
}

func TestJPEG_MalformedBitstream(t *testing.T) {
	dec := decoder.NewJPEG(0)
	_, err := dec.Decode(context.Background(), []byte{0xFF, 0xD8, 0xFF, 0x00, 0x01}, core.RGB8)
	if err == nil {
		t.Fatal("expected decode failure")
	}
	if !apperrors.IsCategory(err, apperrors.CategoryDecode) {
		t.Errorf("error category = %v, want decode", err)
	}
}

func TestJPEG_SizeGuard(t *testing.T) {
	data := encodeFixture(t, 64, 64)
	dec := decoder.NewJPEG(100) // far below 64*64
	_, err := dec.Decode(context.Background(), data, core.RGB8)
	if !errors.Is(err, apperrors.ErrImageTooLarge) {
		t.Fatalf("error = %v, want ErrImageTooLarge", err)
	}
}

func TestJPEG_SharedHandleConcurrency(t *testing.T) {
	data := encodeFixture(t, 40, 30)
	dec := decoder.NewJPEG(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := dec.Decode(context.Background(), data, core.RGB8)
			if err != nil {
				t.Errorf("concurrent decode: %v", err)
				return
			}
			if img.Width() != 40 || img.Height() != 30 {
				t.Errorf("shape = %dx%d", img.Width(), img.Height())
			}
		}()
	}
	wg.Wait()
}
