package config

import "errors"

// Backend selects the codec backend wired into the registry.
type Backend string

const (
	// BackendStd uses the per-format codecs in adapters/decoder and
	// adapters/encoder (libjpeg-turbo for JPEG, stdlib PNG, x/image +
	// gen2brain for WebP).
	BackendStd Backend = "std"
	// BackendVips routes every format through a shared libvips session.
	BackendVips Backend = "vips"
)

// Config is the top-level configuration struct.  All fields have safe defaults
// so callers can start with Config{} and override only what they need.
type Config struct {
	// Default encode quality (1-100) applied when EncodeOptions does not
	// override it.
	DefaultQuality int

	// MaxPixels caps width*height accepted from a container header before
	// pixel storage is allocated, bounding memory claims from malformed or
	// adversarial input. 0 = use DefaultMaxPixels.
	MaxPixels int

	// Backend selects the codec backend. Default: BackendStd.
	Backend Backend

	// Vips holds settings for the libvips backend; ignored under BackendStd.
	Vips VipsConfig

	// Logging.
	LogLevel string // "debug", "info", "warn", "error"
}

// VipsConfig configures the libvips backend.
type VipsConfig struct {
	ConcurrencyLevel int // 0 = NumCPU
	MaxCacheSize     int
	ReportLeaks      bool
}

// DefaultMaxPixels bounds decode allocations to 2^28 pixels (16384x16384),
// 768 MiB of RGB8 samples.
const DefaultMaxPixels = 1 << 28

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		DefaultQuality: 85,
		MaxPixels:      DefaultMaxPixels,
		Backend:        BackendStd,
		LogLevel:       "info",
	}
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.DefaultQuality < 1 || c.DefaultQuality > 100 {
		return errors.New("config: DefaultQuality must be between 1 and 100")
	}
	if c.MaxPixels < 0 {
		return errors.New("config: MaxPixels must not be negative")
	}
	switch c.Backend {
	case "", BackendStd, BackendVips:
	default:
		return errors.New("config: unknown Backend")
	}
	return nil
}
