package model

import (
	"log/slog"

	"github.com/getsentry/sentry-go"
)

// Span is a timed unit of work recorded for performance telemetry
type Span interface {
	StartChild(operation string) Span
	Finish()
}

// BuildContext is created once per build invocation and borrowed by every
// pipeline step. Steps must not mutate it.
type BuildContext struct {
	Hub        *sentry.Hub
	ParentSpan Span // nil disables step spans
	Logger     *slog.Logger
}

// StartSpan opens a child of the parent span. It returns nil when there is no
// parent span.
func (c *BuildContext) StartSpan(operation string) Span {
	if c == nil || c.ParentSpan == nil {
		return nil
	}
	return c.ParentSpan.StartChild(operation)
}

// FinishSpan closes span if it is not nil
func FinishSpan(span Span) {
	if span != nil {
		span.Finish()
	}
}

// Log returns the build logger, falling back to the default logger
func (c *BuildContext) Log() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// CaptureError reports err to the telemetry hub when one is configured
func (c *BuildContext) CaptureError(err error) {
	if c == nil || c.Hub == nil || err == nil {
		return
	}
	c.Hub.CaptureException(err)
}
