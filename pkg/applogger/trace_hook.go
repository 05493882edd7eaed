package applogger

import (
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// traceHook attaches the active span identifiers to entries logged with a
// context.
type traceHook struct{}

func (h *traceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *traceHook) Fire(e *logrus.Entry) error {
	if e.Context == nil {
		return nil
	}

	sc := trace.SpanContextFromContext(e.Context)
	if !sc.IsValid() {
		return nil
	}

	e.Data["trace_id"] = sc.TraceID().String()
	e.Data["span_id"] = sc.SpanID().String()

	return nil
}
