// Package hooks provides production-ready Hook and Logger implementations.
package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
)

// ── Structured logger adapter ─────────────────────────────────────────────────

// SlogLogger wraps the standard library slog.Logger to satisfy core.Logger.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger creates a logger backed by slog. A nil logger uses
// slog.Default().
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{log: l}
}

func (s *SlogLogger) Debug(msg string, fields ...interface{}) {
	s.log.Debug(msg, fields...)
}
func (s *SlogLogger) Info(msg string, fields ...interface{}) {
	s.log.Info(msg, fields...)
}
func (s *SlogLogger) Warn(msg string, fields ...interface{}) {
	s.log.Warn(msg, fields...)
}
func (s *SlogLogger) Error(msg string, fields ...interface{}) {
	s.log.Error(msg, fields...)
}

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs before/after each pipeline step.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforeStep(_ context.Context, stepName string, img *core.ImageData) {
	h.logger.Debug("pipeline.step.start",
		"step", stepName,
		"format", img.Format,
		"width", img.Width(),
		"height", img.Height(),
	)
}

func (h *LoggingHook) AfterStep(_ context.Context, stepName string, img *core.ImageData, d time.Duration, err error) {
	if err != nil {
		fields := []interface{}{
			"step", stepName,
			"duration_ms", d.Milliseconds(),
			"error", err.Error(),
		}
		if kind, ok := apperrors.KindOf(err); ok {
			fields = append(fields, "kind", kind.String())
		}
		h.logger.Error("pipeline.step.error", fields...)
		return
	}
	out := "nil"
	if img != nil {
		out = describe(img)
	}
	h.logger.Debug("pipeline.step.done",
		"step", stepName,
		"duration_ms", d.Milliseconds(),
		"output", out,
	)
}

func describe(img *core.ImageData) string {
	if img.Image == nil {
		return fmt.Sprintf("%s %dB encoded", img.Format, len(img.Data))
	}
	m := img.Image
	return fmt.Sprintf("%dx%d %s %d-bit %s %dB", m.Width(), m.Height(), m.ColorSpace(), m.Depth(), img.Format, img.SizeBytes)
}

// ── In-memory metrics collector ───────────────────────────────────────────────

type stepStats struct {
	durationMs atomic.Int64
	calls      atomic.Int64
	errors     atomic.Int64
}

// InMemoryMetrics accumulates metrics without a global lock; safe for
// concurrent use.
type InMemoryMetrics struct {
	steps      *xsync.Map[string, *stepStats]
	errorsByOp *xsync.Map[string, *atomic.Int64] // keyed by category
	throughput *xsync.Counter
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		steps:      xsync.NewMap[string, *stepStats](),
		errorsByOp: xsync.NewMap[string, *atomic.Int64](),
		throughput: xsync.NewCounter(),
	}
}

func (m *InMemoryMetrics) stats(step string) *stepStats {
	s, _ := m.steps.LoadOrStore(step, &stepStats{})
	return s
}

func (m *InMemoryMetrics) RecordProcessingTime(stepName string, d interface{ Seconds() float64 }) {
	s := m.stats(stepName)
	s.durationMs.Add(int64(d.Seconds() * 1000))
	s.calls.Add(1)
}

func (m *InMemoryMetrics) RecordThroughput(bytes int64) {
	m.throughput.Add(bytes)
}

func (m *InMemoryMetrics) RecordError(stepName string, category string) {
	m.stats(stepName).errors.Add(1)
	c, _ := m.errorsByOp.LoadOrStore(category, &atomic.Int64{})
	c.Add(1)
}

// Snapshot returns a copy of current metrics.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		StepDurationsMs:  make(map[string]int64),
		StepCalls:        make(map[string]int64),
		StepErrors:       make(map[string]int64),
		ErrorCategories:  make(map[string]int64),
		TotalThroughputB: m.throughput.Value(),
	}
	m.steps.Range(func(name string, s *stepStats) bool {
		snap.StepDurationsMs[name] = s.durationMs.Load()
		snap.StepCalls[name] = s.calls.Load()
		if n := s.errors.Load(); n > 0 {
			snap.StepErrors[name] = n
		}
		return true
	})
	m.errorsByOp.Range(func(cat string, n *atomic.Int64) bool {
		snap.ErrorCategories[cat] = n.Load()
		return true
	})
	return snap
}

// MetricsSnapshot is an immutable point-in-time copy of metrics.
type MetricsSnapshot struct {
	StepDurationsMs  map[string]int64
	StepCalls        map[string]int64
	StepErrors       map[string]int64
	ErrorCategories  map[string]int64
	TotalThroughputB int64
}

// ── Metrics hook ──────────────────────────────────────────────────────────────

// MetricsHook feeds pipeline events into a MetricsCollector.
type MetricsHook struct {
	collector core.MetricsCollector
}

// NewMetricsHook creates a MetricsHook.
func NewMetricsHook(c core.MetricsCollector) *MetricsHook { return &MetricsHook{collector: c} }

func (h *MetricsHook) BeforeStep(_ context.Context, _ string, _ *core.ImageData) {}

func (h *MetricsHook) AfterStep(_ context.Context, stepName string, img *core.ImageData, d time.Duration, err error) {
	h.collector.RecordProcessingTime(stepName, d)
	if err != nil {
		h.collector.RecordError(stepName, errorCategory(err))
	}
	if img != nil && img.SizeBytes > 0 {
		h.collector.RecordThroughput(img.SizeBytes)
	}
}

// errorCategory labels err by decode kind when it has one, otherwise by
// processing category.
func errorCategory(err error) string {
	if kind, ok := apperrors.KindOf(err); ok {
		return "decode." + kind.String()
	}
	if c, ok := apperrors.CategoryOf(err); ok {
		return string(c)
	}
	return "pipeline"
}
