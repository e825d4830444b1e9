package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logging returns a logging middleware for HTTP requests.
// Media streams and websocket upgrades are not logged.
func Logging() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(params gin.LogFormatterParams) string {
			line := fmt.Sprintf("%s | %3d | %10v | %-7s %s",
				params.TimeStamp.Format(time.RFC3339),
				params.StatusCode,
				params.Latency.Round(time.Microsecond),
				params.Method,
				params.Path,
			)
			if params.ErrorMessage != "" {
				line += " | " + strings.TrimSpace(params.ErrorMessage)
			}
			return line + "\n"
		},
		Skip: func(c *gin.Context) bool {
			return strings.HasSuffix(c.Request.URL.Path, "/stream") ||
				strings.HasPrefix(c.Request.URL.Path, "/api/ws/")
		},
	})
}
