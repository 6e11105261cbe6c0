package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Backend selects which codec implementations are registered.
type Backend string

const (
	BackendStdlib Backend = "stdlib"
	BackendVips   Backend = "vips"
)

// Config is the top-level configuration struct.  All fields have safe defaults
// so callers can start with Default() and override only what they need.
type Config struct {
	// Worker pool controls.
	WorkerCount int // default: runtime.NumCPU()
	QueueSize   int // max queued jobs before backpressure; default: 256
	JobTimeout  time.Duration

	// Retry of transient step failures. Decode errors are never retried.
	MaxRetries int
	RetryDelay time.Duration

	// Default encode options applied when a pipeline step does not override.
	DefaultQuality int // 1-100; default 85
	DefaultFormat  string

	// Streaming / memory limits.
	MaxImageBytes int64 // 0 = no limit
	ChunkSize     int   // streaming chunk size in bytes; default 32 KiB

	// ParseAuxiliaryMetadata enables best-effort EXIF parsing during header
	// inspection. A malformed block is logged and dropped.
	ParseAuxiliaryMetadata bool

	// Codec backend.
	Backend Backend
	Vips    VipsConfig

	// Logging: "debug", "info", "warn", "error".
	LogLevel string
}

// VipsConfig configures the libvips backend.
type VipsConfig struct {
	MaxCacheSize int
	MaxWorkers   int // default: WorkerCount
	ReportLeaks  bool
}

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		WorkerCount:            0, // resolved at runtime to NumCPU
		QueueSize:              256,
		JobTimeout:             30 * time.Second,
		MaxRetries:             3,
		RetryDelay:             200 * time.Millisecond,
		DefaultQuality:         85,
		ChunkSize:              32 * 1024,
		ParseAuxiliaryMetadata: true,
		Backend:                BackendStdlib,
		LogLevel:               "info",
	}
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.DefaultQuality < 1 || c.DefaultQuality > 100 {
		return errors.New("config: DefaultQuality must be between 1 and 100")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: ChunkSize must be positive")
	}
	if c.MaxImageBytes < 0 {
		return errors.New("config: MaxImageBytes must not be negative")
	}
	switch c.Backend {
	case BackendStdlib, BackendVips:
	default:
		return fmt.Errorf("config: unknown Backend %q", c.Backend)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps LogLevel to a slog level. An empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("config: unknown LogLevel %q", s)
}
