package response

import "github.com/gin-gonic/gin"

// NoStore marks the response as uncacheable. Upstream data is never cached by
// the proxy and browsers should not keep it either.
func NoStore(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}
