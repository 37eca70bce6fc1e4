package middlewares

import (
	"github.com/gin-gonic/gin"

	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

// TraceIDHeader carries the trace ID on requests and responses so a
// caller-supplied ID survives the round trip.
const TraceIDHeader = "X-Trace-ID"

// TraceMiddleware seeds a trace ID into the request context. An inbound
// X-Trace-ID header is honored, otherwise a fresh ID is generated. The
// resolved ID is echoed on the response for client-side correlation, and
// every logger.WithContext call downstream picks it up.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = logger.NewTraceID()
		}

		ctx := logger.WithTraceID(c.Request.Context(), traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceIDHeader, traceID)

		c.Next()
	}
}
