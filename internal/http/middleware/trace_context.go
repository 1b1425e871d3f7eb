package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/aleator-backend/internal/pkg/ctxutil"
)

const (
	HeaderTraceID   = "X-Trace-Id"
	HeaderRequestID = "X-Request-Id"
)

// AttachTraceContext echoes or mints request/trace ids. A trace id from an
// active otel span wins over a fresh one but not over the caller's header.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := firstNonEmpty(c.GetHeader(HeaderRequestID), uuid.NewString())
		var spanTrace string
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			spanTrace = sc.TraceID().String()
		}
		traceID := firstNonEmpty(c.GetHeader(HeaderTraceID), spanTrace, uuid.NewString())

		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{TraceID: traceID, RequestID: reqID})
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(HeaderTraceID, traceID)
		c.Writer.Header().Set(HeaderRequestID, reqID)
		c.Next()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
