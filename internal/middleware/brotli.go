package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// Compression threshold: question papers and result listings are the
// only payloads that routinely exceed this; envelopes for single
// records stay below it and pass through untouched.
const compressMinLength = 1024

// deferredBrotliWriter holds response bytes until they cross the
// threshold, and only then commits to the br encoding. Responses that
// finish under the threshold are written out plain on flush.
type deferredBrotliWriter struct {
	gin.ResponseWriter
	bw        *brotli.Writer
	pending   []byte
	committed bool
	commit    sync.Once
}

func (w *deferredBrotliWriter) Write(data []byte) (int, error) {
	w.pending = append(w.pending, data...)
	if !w.committed && len(w.pending) < compressMinLength {
		return len(data), nil
	}
	w.commit.Do(func() {
		w.committed = true
		w.ResponseWriter.Header().Set("Content-Encoding", "br")
		w.ResponseWriter.Header().Del("Content-Length")
	})
	n, err := w.bw.Write(w.pending)
	w.pending = w.pending[:0]
	return n, err
}

func (w *deferredBrotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Flush satisfies http.Flusher for streaming callers. If the encoding
// was never committed the pending bytes go out plain.
func (w *deferredBrotliWriter) Flush() {
	if w.committed {
		if len(w.pending) > 0 {
			_, _ = w.bw.Write(w.pending)
			w.pending = w.pending[:0]
		}
		_ = w.bw.Flush()
	} else {
		_ = w.drain()
	}
	w.ResponseWriter.Flush()
}

func (w *deferredBrotliWriter) drain() error {
	if len(w.pending) == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.pending)
	w.pending = w.pending[:0]
	return err
}

// Brotli compresses responses larger than compressMinLength for clients
// that advertise br support. SSE and WebSocket traffic is left alone.
func Brotli() gin.HandlerFunc {
	return func(c *gin.Context) {
		if incompressibleProtocol(c) || !clientAcceptsBr(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		w := &deferredBrotliWriter{
			ResponseWriter: c.Writer,
			bw:             brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression),
		}

		defer func() {
			if w.committed {
				if err := w.bw.Close(); err != nil {
					_ = c.Error(err)
				}
				return
			}
			if err := w.drain(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Writer = w
		c.Next()
	}
}

// incompressibleProtocol reports whether the request is for a protocol
// that breaks under buffered compression.
func incompressibleProtocol(c *gin.Context) bool {
	// SSE needs each event on the wire immediately
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	// the WebSocket handshake must reach the client unwrapped
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func clientAcceptsBr(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
