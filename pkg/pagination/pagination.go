package pagination

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Fixed result slices shown by the dashboard. The proxy never pages through
// upstream results; it only trims what one call returned.
const (
	DefaultSearchLimit = 10
	MembersShown       = 50
	WarsShown          = 12
)

// SearchLimits are the choices offered on the clan search form.
var SearchLimits = []int{5, 10, 20}

// Limit reads an integer query parameter and accepts it only if it is one of
// allowed. Anything else yields fallback.
func Limit(c *gin.Context, param string, fallback int, allowed ...int) int {
	value := parsePositiveInt(c.Query(param), fallback)
	if len(allowed) == 0 {
		return value
	}
	for _, candidate := range allowed {
		if value == candidate {
			return value
		}
	}
	return fallback
}

// Head returns at most n leading items.
func Head[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func parsePositiveInt(value string, fallback int) int {
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}

	return parsed
}
