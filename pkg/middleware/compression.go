package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// Compression levels
const (
	DefaultCompression = gzip.DefaultCompression
	BestSpeed          = gzip.BestSpeed
	BestCompression    = gzip.BestCompression
)

type gzipWriter struct {
	gin.ResponseWriter
	writer *gzip.Writer
}

func (g *gzipWriter) WriteString(s string) (int, error) {
	return g.writer.Write([]byte(s))
}

func (g *gzipWriter) Write(data []byte) (int, error) {
	return g.writer.Write(data)
}

func (g *gzipWriter) WriteHeader(code int) {
	g.Header().Del("Content-Length")
	g.ResponseWriter.WriteHeader(code)
}

// Compression gzips responses for clients that accept it. Paths in skip are
// left alone; /metrics negotiates its own encoding.
func Compression(level int, skip ...string) gin.HandlerFunc {
	pool := sync.Pool{
		New: func() interface{} {
			gz, err := gzip.NewWriterLevel(io.Discard, level)
			if err != nil {
				gz, _ = gzip.NewWriterLevel(io.Discard, DefaultCompression)
			}
			return gz
		},
	}

	return func(c *gin.Context) {
		if !shouldCompress(c.Request, skip) {
			c.Next()
			return
		}

		gz := pool.Get().(*gzip.Writer)
		defer pool.Put(gz)

		gz.Reset(c.Writer)

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")

		c.Writer = &gzipWriter{
			ResponseWriter: c.Writer,
			writer:         gz,
		}

		defer func() {
			// Bodiless responses must not carry a gzip trailer.
			if c.Writer.Status() == http.StatusNoContent || c.Writer.Status() == http.StatusNotModified {
				gz.Reset(io.Discard)
				return
			}
			gz.Close()
		}()

		c.Next()
	}
}

func shouldCompress(req *http.Request, skip []string) bool {
	if req.Method == http.MethodHead {
		return false
	}
	if !strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") {
		return false
	}
	if strings.Contains(strings.ToLower(req.Header.Get("Connection")), "upgrade") {
		return false
	}
	for _, prefix := range skip {
		if strings.HasPrefix(req.URL.Path, prefix) {
			return false
		}
	}
	return true
}
