package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/neurobridge-personalization/internal/platform/ctxutil"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderTraceID   = "X-Trace-Id"

	maxRequestIDLen = 128
)

// TraceContext gives every request a request id and a trace id. A caller's
// X-Request-Id is kept when it is short printable ASCII. The trace id comes from
// the span otelgin started, falling back to the request id when tracing is off.
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		reqID := c.GetHeader(HeaderRequestID)
		if !validRequestID(reqID) {
			reqID = uuid.NewString()
		}

		t := ctxutil.TraceFrom(ctx)
		t.RequestID = reqID
		if t.TraceID == "" {
			t.TraceID = strings.ReplaceAll(reqID, "-", "")
		}
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(attribute.String("request.id", reqID))
		}

		c.Request = c.Request.WithContext(ctxutil.WithTrace(ctx, t))
		c.Header(HeaderRequestID, reqID)
		c.Header(HeaderTraceID, t.TraceID)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
