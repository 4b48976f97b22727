package llm

import (
	"log/slog"
	"time"

	"github.com/pavelanni/reassess/internal/llm/prompts"
)

// CallEvent records metadata about a single model invocation.
type CallEvent struct {
	Kind    prompts.Kind
	Model   string
	Latency time.Duration
	Err     error
}

// Success reports whether the call produced a usable result.
func (e CallEvent) Success() bool { return e.Err == nil }

// ErrorKind classifies the failure, or returns "" on success.
func (e CallEvent) ErrorKind() string { return errorKind(e.Err) }

// Observer receives events about model calls for logging and bookkeeping.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// LogObserver writes call events through slog.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an Observer that logs to logger, or slog.Default if nil.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnCallComplete(event CallEvent) {
	attrs := []any{
		"kind", event.Kind,
		"model", event.Model,
		"latency_ms", event.Latency.Milliseconds(),
	}
	if event.Err != nil {
		o.logger.Error("llm call failed", append(attrs, "error_kind", event.ErrorKind(), "error", event.Err)...)
		return
	}
	o.logger.Info("llm call", attrs...)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}

// MultiObserver fans an event out to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnCallComplete(event CallEvent) {
	for _, o := range m {
		o.OnCallComplete(event)
	}
}
