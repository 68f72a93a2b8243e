package ctxutil

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestTraceFromFillsSpanIDs(t *testing.T) {
	if got := TraceFrom(context.Background()); got != (Trace{}) {
		t.Fatalf("empty context: %+v", got)
	}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1, 2, 3},
		SpanID:  trace.SpanID{4, 5, 6},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithTrace(ctx, Trace{RequestID: "req-1"})

	got := TraceFrom(ctx)
	if got.TraceID != sc.TraceID().String() || got.SpanID != sc.SpanID().String() || got.RequestID != "req-1" {
		t.Fatalf("trace=%+v", got)
	}

	kept := TraceFrom(WithTrace(ctx, Trace{TraceID: "abc"}))
	if kept.TraceID != "abc" {
		t.Fatalf("stored trace id overwritten: %+v", kept)
	}
}

func TestTraceFields(t *testing.T) {
	got := Trace{RequestID: "r", Job: "insight_batch"}.Fields()
	want := []interface{}{"request_id", "r", "job", "insight_batch"}
	if len(got) != len(want) {
		t.Fatalf("fields=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fields=%v want %v", got, want)
		}
	}
	if len(Trace{}.Fields()) != 0 {
		t.Fatalf("empty trace should render no fields")
	}
}
