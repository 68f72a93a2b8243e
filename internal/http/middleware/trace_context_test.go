package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-personalization/internal/platform/ctxutil"
)

func TestTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceContext())
	var got ctxutil.Trace
	r.GET("/ping", func(c *gin.Context) {
		got = ctxutil.TraceFrom(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name    string
		header  string
		keepsID bool
	}{
		{"generated", "", false},
		{"kept", "client-req-42", true},
		{"too long", strings.Repeat("a", maxRequestIDLen+1), false},
		{"control chars", "bad\nid", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tc.header != "" {
				req.Header.Set(HeaderRequestID, tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if got.RequestID == "" || got.TraceID == "" {
				t.Fatalf("trace not attached: %+v", got)
			}
			if (got.RequestID == tc.header) != tc.keepsID {
				t.Fatalf("request id=%q header=%q", got.RequestID, tc.header)
			}
			if rec.Header().Get(HeaderRequestID) != got.RequestID || rec.Header().Get(HeaderTraceID) != got.TraceID {
				t.Fatalf("response headers do not echo the trace: %v", rec.Header())
			}
		})
	}
}
