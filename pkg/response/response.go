package response

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error shape shared with the dashboard: {"error": ..., "details": ...}.
type ErrorBody struct {
	Error   interface{} `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// Raw writes an upstream JSON payload through untouched.
func Raw(c *gin.Context, status int, payload json.RawMessage) {
	NoStore(c)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	c.Data(status, "application/json; charset=utf-8", payload)
}

// Error writes {"error": message}.
func Error(c *gin.Context, status int, message interface{}) {
	c.JSON(status, ErrorBody{Error: message})
}

// ErrorWithDetails writes {"error": message, "details": details}.
func ErrorWithDetails(c *gin.Context, status int, message interface{}, details interface{}) {
	c.JSON(status, ErrorBody{Error: message, Details: details})
}

// NotFound is the catch-all for unknown routes.
func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Route not found")
}
