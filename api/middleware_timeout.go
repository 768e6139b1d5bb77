package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// timeoutWriter blocks handler writes once the deadline response has gone
// out, so a late handler cannot corrupt the 408 already on the wire
type timeoutWriter struct {
	w http.ResponseWriter

	mu          sync.Mutex
	timedOut    bool
	wroteHeader bool
}

func (tw *timeoutWriter) Header() http.Header { return tw.w.Header() }

func (tw *timeoutWriter) WriteHeader(status int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.wroteHeader {
		return
	}
	tw.wroteHeader = true
	tw.w.WriteHeader(status)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	tw.wroteHeader = true
	return tw.w.Write(b)
}

// markTimedOut claims the response for the timeout branch. It reports false
// when the handler already started writing, in which case the response is
// the handler's and no 408 may follow it.
func (tw *timeoutWriter) markTimedOut() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.wroteHeader {
		return false
	}
	tw.timedOut = true
	return true
}

// TimeoutMiddleware caps how long a request may run. The handler keeps its
// context so in-flight database calls get cancelled, and the completion
// channel is buffered so a handler that loses the race still finishes and
// releases its goroutine.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{w: w}
			done := make(chan struct{}, 1)
			go func() {
				next.ServeHTTP(tw, r.WithContext(ctx))
				done <- struct{}{}
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if !tw.markTimedOut() {
					// the handler beat the deadline to the wire
					return
				}
				zap.S().Warnw("request timed out",
					"path", r.URL.Path,
					"method", r.Method,
					"timeout", timeout)
				w.WriteHeader(http.StatusRequestTimeout)
				w.Write([]byte(`{"error": "request timeout"}`))
			}
		})
	}
}
