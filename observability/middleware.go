package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CommandKey is the gin context key a handler sets to the type of the
// command it dispatched.
const CommandKey = "command"

// TagCommand labels the current request with a command type so the access
// log and request metrics can tell control traffic apart.
func TagCommand(c *gin.Context, kind string) {
	c.Set(CommandKey, kind)
}

// AccessLog logs one line per request. Server errors log at error level,
// client errors at warn and the rest at debug, since the UI polls /frame
// many times a second.
func AccessLog(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zerolog.DebugLevel
		switch {
		case status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		}

		event := logger.WithLevel(level).
			Str("method", c.Request.Method).
			Str("route", route(c)).
			Int("status", status).
			Dur("took", time.Since(start))
		if kind := c.GetString(CommandKey); kind != "" {
			event = event.Str("command", kind)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("api: request")
	}
}

// RequestMetrics counts and times every request by route. Requests tagged
// with TagCommand are also counted by command type.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordHTTPRequest(c.Request.Method, route(c), c.GetString(CommandKey), c.Writer.Status(), time.Since(start))
	}
}

// route is the matched pattern, or "unmatched" so static files and 404s
// don't grow the label set.
func route(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unmatched"
}
