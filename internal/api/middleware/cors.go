package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig controls which browser origins may call the archive routes. The
// progress poller typically runs on a different origin than the API.
type CORSConfig struct {
	AllowedOrigins  []string
	AllowAllOrigins bool
}

// CORS returns a middleware applying the cross-origin policy from config.
// Preflight OPTIONS requests are answered with 204 and never reach the
// handlers.
func CORS(config CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		var allowOrigin string
		if config.AllowAllOrigins {
			allowOrigin = "*"
			// The wildcard origin forbids credentialed requests.
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "false")
		} else {
			matched := false
			for _, candidate := range config.AllowedOrigins {
				if origin == candidate || candidate == "*" {
					matched = true
					allowOrigin = origin
					break
				}
			}

			if !matched && len(config.AllowedOrigins) > 0 {
				c.Next()
				return
			}

			if allowOrigin == "" {
				allowOrigin = origin
			}
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// IsOriginAllowed reports whether origin passes the configured policy.
// Parameters:
//   - origin: value of the request's Origin header.
//   - config: policy to check against.
//
// Returns:
//   - bool: true when the origin may call the API.
func IsOriginAllowed(origin string, config CORSConfig) bool {
	if config.AllowAllOrigins {
		return true
	}

	for _, candidate := range config.AllowedOrigins {
		if candidate == "*" || strings.EqualFold(origin, candidate) {
			return true
		}
	}

	return false
}
