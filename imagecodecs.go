// Package imagecodecs decodes PNG, JPEG, WebP and ZRAW inputs into one
// canonical planar image with a format-independent metadata record, and
// runs processing pipelines over it.
package imagecodecs

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/Skryldev/image-codecs/adapters/decoder"
	"github.com/Skryldev/image-codecs/adapters/encoder"
	"github.com/Skryldev/image-codecs/adapters/vips"
	"github.com/Skryldev/image-codecs/config"
	"github.com/Skryldev/image-codecs/core"
	"github.com/Skryldev/image-codecs/hooks"
	"github.com/Skryldev/image-codecs/pipeline"
)

// Re-export Format constants for convenience.
const (
	JPEG = core.FormatJPEG
	PNG  = core.FormatPNG
	WebP = core.FormatWebP
	ZRAW = core.FormatZRAW
)

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() config.Config { return config.Default() }

// Processor is the primary entry point.
type Processor struct {
	inner   *core.Processor
	reg     *core.DefaultRegistry
	backend *vips.Backend
}

// New creates a fully wired Processor with the JPEG, PNG, WebP and ZRAW
// codecs registered. With cfg.Backend set to vips, libvips replaces the Go
// codecs for JPEG, PNG and WebP.
//
// libvips can be started once per process and Stop shuts it down, so a
// process holds at most one vips-backed Processor over its lifetime.
func New(cfg config.Config) (*Processor, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	level, _ := config.ParseLevel(cfg.LogLevel)

	reg := core.NewRegistry()
	decoder.Register(reg)
	encoder.Register(reg, cfg.DefaultQuality)

	p := &Processor{reg: reg}
	if cfg.Backend == config.BackendVips {
		workers := cfg.Vips.MaxWorkers
		if workers <= 0 {
			workers = cfg.WorkerCount
		}
		p.backend = vips.NewBackend(vips.BackendConfig{
			DefaultQuality: cfg.DefaultQuality,
			MaxCacheSize:   cfg.Vips.MaxCacheSize,
			MaxWorkers:     workers,
			ReportLeaks:    cfg.Vips.ReportLeaks,
		})
		vips.RegisterVipsBackend(reg, p.backend)
	}

	p.inner = core.New(cfg, reg)
	p.inner.SetLogger(hooks.NewSlogLogger(
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	))
	return p, nil
}

// SetLogger attaches a structured logger.
func (p *Processor) SetLogger(l core.Logger) { p.inner.SetLogger(l) }

// SetMetrics attaches a metrics collector.
func (p *Processor) SetMetrics(m core.MetricsCollector) { p.inner.SetMetrics(m) }

// AddHook registers an observer for pipeline step events.
func (p *Processor) AddHook(h core.Hook) { p.inner.AddHook(h) }

// RegisterDecoder registers a custom decoder factory for the given format.
func (p *Processor) RegisterDecoder(f core.Format, d core.DecoderFactory) { p.reg.RegisterDecoder(f, d) }

// RegisterEncoder registers a custom encoder for the given format.
func (p *Processor) RegisterEncoder(f core.Format, e core.Encoder) { p.reg.RegisterEncoder(f, e) }

// Start starts the background worker pool.
func (p *Processor) Start() { p.inner.Start() }

// Stop drains and shuts down the worker pool, then releases libvips when
// it was started by New. It is safe to call more than once.
func (p *Processor) Stop() {
	p.inner.Stop()
	if p.backend != nil {
		p.backend.Shutdown()
	}
}

// NewDecoder binds a fresh decoder for format to data, configured from the
// processor's config. It reports false when no decoder is registered.
func (p *Processor) NewDecoder(f core.Format, data []byte) (core.Decoder, bool) {
	return core.NewDecoder(p.reg, f, data, p.inner.DecoderOptions())
}

// ReadHeaders drains src and inspects only its header.
func (p *Processor) ReadHeaders(ctx context.Context, src core.Source) (*core.Metadata, error) {
	step := p.Decode()
	step.HeadersOnly = true
	res, err := p.inner.Process(ctx, src, step)
	if err != nil {
		return nil, err
	}
	return res.Primary.Header, nil
}

// Process executes the provided steps synchronously and returns the result.
func (p *Processor) Process(ctx context.Context, src core.Source, steps ...core.Step) (*core.ProcessingResult, error) {
	return p.inner.Process(ctx, src, steps...)
}

// Batch runs the same steps on multiple sources concurrently.
func (p *Processor) Batch(ctx context.Context, sources []core.Source, steps ...core.Step) ([]*core.ProcessingResult, []error) {
	return p.inner.Batch(ctx, sources, steps...)
}

// ProcessVariants runs base steps and then produces named variants in parallel.
func (p *Processor) ProcessVariants(
	ctx context.Context,
	src core.Source,
	baseSteps []core.Step,
	variants []core.VariantDefinition,
) (*core.ProcessingResult, error) {
	return p.inner.ProcessVariants(ctx, src, baseSteps, variants)
}

// Submit enqueues an async job for the worker pool.
func (p *Processor) Submit(job core.Job) error { return p.inner.Submit(job) }

// NewPipeline creates a reusable, standalone pipeline.
func (p *Processor) NewPipeline(steps ...core.Step) *pipeline.Pipeline {
	return pipeline.New(steps...)
}

// Stats returns lightweight processing statistics.
func (p *Processor) Stats() (processed, errors int64) {
	return p.inner.ProcessedCount(), p.inner.ErrorCount()
}

// Decode returns a decode step bound to the processor's registry and
// decoder options.
func (p *Processor) Decode() *pipeline.DecodeStep {
	return &pipeline.DecodeStep{Registry: p.reg, Options: p.inner.DecoderOptions()}
}

// Encode returns an encode step bound to the processor's registry.
func (p *Processor) Encode(opts core.EncodeOptions) core.Step { return EncodeWith(p.reg, opts) }

// ── Source constructors ────────────────────────────────────────────────────────

// FromReader creates a Source from an io.Reader.
func FromReader(r io.Reader) core.Source { return core.Source{Reader: r, Size: -1} }

// FromReaderWithMeta creates a Source with known size and content-type hints.
func FromReaderWithMeta(r io.Reader, size int64, contentType, name string) core.Source {
	return core.Source{Reader: r, Size: size, ContentType: contentType, Name: name}
}

// ── Step constructors ─────────────────────────────────────────────────────────

// DecodeWith returns a decode step bound to the given registry.
func DecodeWith(reg core.Registry, opts core.DecoderOptions) core.Step {
	return &pipeline.DecodeStep{Registry: reg, Options: opts}
}

// Resize returns a resize step.  Pass 0 for one axis to preserve aspect ratio.
func Resize(width, height int) core.Step { return &pipeline.ResizeStep{Width: width, Height: height} }

// Crop returns a crop step.
func Crop(x, y, width, height int) core.Step {
	return &pipeline.CropStep{X: x, Y: y, Width: width, Height: height}
}

// Thumbnail returns a square thumbnail step.
func Thumbnail(size int) core.Step { return &pipeline.ThumbnailStep{Size: size} }

// Quality stores the desired encode quality (1-100) for the next Encode step.
func Quality(q int) core.Step { return &pipeline.QualityStep{Quality: q} }

// ConvertFormat instructs subsequent steps to use the given output format.
func ConvertFormat(f core.Format) core.Step { return &pipeline.FormatStep{Format: f} }

// StripEXIF returns a step that removes EXIF metadata.
func StripEXIF() core.Step { return &pipeline.StripEXIFStep{} }

// AutoOrient returns a step that applies the EXIF orientation to the pixels.
func AutoOrient() core.Step { return &pipeline.AutoOrientStep{} }

// Grayscale returns a step that converts the image to grayscale.
func Grayscale() core.Step { return &pipeline.GrayscaleStep{} }

// EncodeWith returns an encode step bound to the given registry and options.
func EncodeWith(reg core.Registry, opts core.EncodeOptions) core.Step {
	return &pipeline.EncodeStep{Registry: reg, BaseOptions: opts}
}

// AdaptiveCompress returns a step that iteratively reduces quality to hit a
// target size in bytes.
func AdaptiveCompress(reg core.Registry, targetBytes int64, minQ, maxQ int) core.Step {
	return &pipeline.AdaptiveCompressStep{
		Registry:        reg,
		TargetSizeBytes: targetBytes,
		MinQuality:      minQ,
		MaxQuality:      maxQ,
		StepSize:        5,
	}
}
