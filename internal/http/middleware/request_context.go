package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/learnquest-backend/internal/platform/ctxutil"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderTraceID   = "X-Trace-Id"

	maxRequestIDLen = 128
)

// RequestContext tags each request with a request id (client supplied or generated) and the
// active span's trace id. Both are echoed as response headers.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if reqID == "" || len(reqID) > maxRequestIDLen {
			reqID = uuid.NewString()
		}
		meta := ctxutil.Request{ID: reqID}

		span := trace.SpanFromContext(c.Request.Context())
		if sc := span.SpanContext(); sc.HasTraceID() {
			meta.TraceID = sc.TraceID().String()
			c.Header(HeaderTraceID, meta.TraceID)
		}
		span.SetAttributes(attribute.String("http.request_id", reqID))

		c.Header(HeaderRequestID, reqID)
		c.Request = c.Request.WithContext(ctxutil.WithRequest(c.Request.Context(), meta))
		c.Next()
	}
}
