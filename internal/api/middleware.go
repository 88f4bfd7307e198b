package api

import (
	"time"

	"phmagent/domain/core"
	"phmagent/internal"

	"github.com/gin-gonic/gin"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// RequestID tags every request with an ID, reusing a valid inbound one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := core.ParseRequestID(c.GetHeader(requestIDHeader))
		if err != nil {
			id = core.NewRequestID()
		}
		c.Set(requestIDKey, id.String())
		c.Header(requestIDHeader, id.String())
		c.Next()
	}
}

// AccessLog logs one line per request
func AccessLog(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s %d %.2fms [%s]", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), float64(time.Since(start).Nanoseconds())/1e6, c.GetString(requestIDKey))
	}
}
