package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheControl disables caching for API responses and lets static dashboard
// assets be cached.
func CacheControl() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		switch {
		case strings.HasPrefix(path, "/api/"):
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		case strings.HasPrefix(path, "/static/") && isStaticAsset(path):
			c.Header("Cache-Control", "public, max-age=86400")
		}

		c.Next()
	}
}

func isStaticAsset(path string) bool {
	for _, ext := range []string{".css", ".js", ".png", ".svg", ".ico", ".woff2"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
