package middleware

import "github.com/gin-gonic/gin"

// SessionIDHeader carries the visitor's funnel session identifier.
const SessionIDHeader = "X-PixReview-Session-ID"

// SessionID extracts the session identifier from the request, preferring
// the header with a query parameter fallback for EventSource connections
// that cannot set custom headers.
func SessionID(c *gin.Context) string {
	if id := c.GetHeader(SessionIDHeader); id != "" {
		return id
	}
	return c.Query("sessionId")
}
