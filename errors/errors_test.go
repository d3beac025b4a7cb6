package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestProcessingError_WrapsCause(t *testing.T) {
	cause := stderrors.New("native codec fault")
	err := Wrap(CategoryDecode, "jpeg.decode", cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	if !IsCategory(err, CategoryDecode) {
		t.Error("category lost")
	}
	if IsCategory(err, CategoryEncode) {
		t.Error("category matched wrongly")
	}

	var pe *ProcessingError
	if !stderrors.As(err, &pe) {
		t.Fatal("errors.As failed")
	}
	if pe.Op != "jpeg.decode" {
		t.Errorf("op = %q", pe.Op)
	}
}

func TestWrap_NilPassthrough(t *testing.T) {
	if Wrap(CategoryDecode, "noop", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestSentinelThroughLayers(t *testing.T) {
	err := New(CategoryStorage, "local.validate",
		fmt.Errorf("%w: /missing/file", ErrFileDoesNotExist))
	if !stderrors.Is(err, ErrFileDoesNotExist) {
		t.Error("sentinel not reachable through wrapping")
	}
}
