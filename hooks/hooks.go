// Package hooks provides production-ready Hook and Logger implementations.
package hooks

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kervell/imgio/core"
)

// ── Structured logger adapter ─────────────────────────────────────────────────

// SlogLogger wraps the standard library slog.Logger to satisfy core.Logger.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger creates a logger backed by slog.
func NewSlogLogger(l *slog.Logger) *SlogLogger { return &SlogLogger{log: l} }

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

// LoggingHook logs before/after each read/write operation.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforeOp(_ context.Context, op, path string) {
	h.logger.Debug("op.start", "op", op, "path", path)
}

func (h *LoggingHook) AfterOp(_ context.Context, op, path string, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("op.error",
			"op", op,
			"path", path,
			"duration_ms", d.Milliseconds(),
			"error", err.Error(),
		)
		return
	}
	h.logger.Debug("op.done",
		"op", op,
		"path", path,
		"duration_ms", d.Milliseconds(),
	)
}

// ── In-memory metrics collector ───────────────────────────────────────────────

// InMemoryMetrics accumulates metrics atomically; safe for concurrent use.
type InMemoryMetrics struct {
	mu sync.RWMutex

	opDurationsMs map[string]int64 // cumulative ms per op
	opCalls       map[string]int64 // call count per op
	opErrors      map[string]int64

	totalThroughputB int64
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		opDurationsMs: make(map[string]int64),
		opCalls:       make(map[string]int64),
		opErrors:      make(map[string]int64),
	}
}

func (m *InMemoryMetrics) RecordOpTime(op string, d interface{ Seconds() float64 }) {
	ms := int64(d.Seconds() * 1000)
	m.mu.Lock()
	m.opDurationsMs[op] += ms
	m.opCalls[op]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordThroughput(bytes int64) {
	atomic.AddInt64(&m.totalThroughputB, bytes)
}

func (m *InMemoryMetrics) RecordError(op string, _ string) {
	m.mu.Lock()
	m.opErrors[op]++
	m.mu.Unlock()
}

// Snapshot returns a copy of current metrics.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		OpDurationsMs:    make(map[string]int64, len(m.opDurationsMs)),
		OpCalls:          make(map[string]int64, len(m.opCalls)),
		OpErrors:         make(map[string]int64, len(m.opErrors)),
		TotalThroughputB: atomic.LoadInt64(&m.totalThroughputB),
	}
	for k, v := range m.opDurationsMs {
		snap.OpDurationsMs[k] = v
	}
	for k, v := range m.opCalls {
		snap.OpCalls[k] = v
	}
	for k, v := range m.opErrors {
		snap.OpErrors[k] = v
	}
	return snap
}

// MetricsSnapshot is an immutable point-in-time copy of metrics.
type MetricsSnapshot struct {
	OpDurationsMs    map[string]int64
	OpCalls          map[string]int64
	OpErrors         map[string]int64
	TotalThroughputB int64
}

var _ core.Hook = (*LoggingHook)(nil)
var _ core.MetricsCollector = (*InMemoryMetrics)(nil)
var _ core.Logger = (*SlogLogger)(nil)
