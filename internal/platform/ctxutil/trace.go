package ctxutil

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Trace correlates the log lines of one HTTP request or one background job run.
type Trace struct {
	TraceID   string
	SpanID    string
	RequestID string
	// Job names the scheduled job when the context belongs to a job run.
	Job string
}

type traceKey struct{}

func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// TraceFrom returns the stored Trace. Empty ids are filled from the active
// OpenTelemetry span, if any.
func TraceFrom(ctx context.Context) Trace {
	if ctx == nil {
		return Trace{}
	}
	t, _ := ctx.Value(traceKey{}).(Trace)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		if t.TraceID == "" {
			t.TraceID = sc.TraceID().String()
		}
		if t.SpanID == "" {
			t.SpanID = sc.SpanID().String()
		}
	}
	return t
}

// Fields renders the non-empty ids as logger key/value pairs.
func (t Trace) Fields() []interface{} {
	out := make([]interface{}, 0, 8)
	for _, kv := range [][2]string{
		{"trace_id", t.TraceID},
		{"span_id", t.SpanID},
		{"request_id", t.RequestID},
		{"job", t.Job},
	} {
		if kv[1] != "" {
			out = append(out, kv[0], kv[1])
		}
	}
	return out
}
