package core

// Format identifies an image container format.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatWebP    Format = "webp"
	FormatTIFF    Format = "tiff"
	FormatBMP     Format = "bmp"
	FormatUnknown Format = "unknown"
)

// Layout is the pixel sample arrangement a decode/encode operation targets:
// channel count, order, and sample width. Samples are always tightly packed
// with no padding between rows.
type Layout string

const (
	RGB8   Layout = "rgb8"
	Gray8  Layout = "gray8"
	RGBA8  Layout = "rgba8"
	Gray16 Layout = "gray16" // big-endian 16-bit samples
)

// Channels returns the number of channels per pixel.
func (l Layout) Channels() int {
	switch l {
	case RGB8:
		return 3
	case RGBA8:
		return 4
	case Gray8, Gray16:
		return 1
	}
	return 0
}

// BytesPerSample returns the storage width of one sample.
func (l Layout) BytesPerSample() int {
	if l == Gray16 {
		return 2
	}
	return 1
}

// PixelBytes returns the storage size of one pixel.
func (l Layout) PixelBytes() int { return l.Channels() * l.BytesPerSample() }

func (l Layout) String() string { return string(l) }

// Size holds image dimensions in pixels.
type Size struct {
	Width  int
	Height int
}

// Pixels returns Width*Height.
func (s Size) Pixels() int { return s.Width * s.Height }
