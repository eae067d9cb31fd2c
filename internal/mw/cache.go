package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// entry is one stored response.
type entry struct {
	status int
	header http.Header
	body   []byte
}

func (e entry) serve(c *gin.Context) {
	for k, v := range e.header {
		c.Writer.Header()[k] = v
	}
	c.Writer.WriteHeader(e.status)
	c.Writer.Write(e.body)
	c.Abort()
}

// teeWriter copies everything written to the response into a buffer so the
// middleware can store it after the handler runs.
type teeWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *teeWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	return w.ResponseWriter.Write(p)
}

func (w *teeWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache serves repeated GETs of the same URI from memory for the given TTL.
// Only 2xx responses are stored. It guards anonymous JSON endpoints only;
// flash-bearing HTML pages must never be served from cache.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if hit, ok := store.Get(key); ok {
			hit.(entry).serve(c)
			return
		}

		tee := &teeWriter{ResponseWriter: c.Writer}
		c.Writer = tee
		c.Next()

		if status := tee.Status(); status >= 200 && status < 300 {
			store.Set(key, entry{
				status: status,
				header: tee.Header().Clone(),
				body:   tee.buf.Bytes(),
			}, ttl)
		}
	}
}
