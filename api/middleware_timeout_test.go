package api

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutMiddlewarePassesFastRequests(t *testing.T) {
	handler := TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message": "ok"}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestTimeoutMiddlewareTimesOutSlowHandlers(t *testing.T) {
	release := make(chan struct{})
	handler := TimeoutMiddleware(5*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	close(release)

	assert.Equal(t, http.StatusRequestTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "request timeout")
}

func TestTimeoutMiddlewareDoesNotLeakHandlerGoroutines(t *testing.T) {
	var wg sync.WaitGroup
	handler := TimeoutMiddleware(5*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer wg.Done()
		time.Sleep(50 * time.Millisecond)
	}))

	before := runtime.NumGoroutine()

	const requests = 20
	for i := 0; i < requests; i++ {
		wg.Add(1)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestTimeout, w.Code)
	}

	// every handler must be able to finish and release its goroutine even
	// though the timeout branch won the race
	wg.Wait()
	time.Sleep(20 * time.Millisecond)

	after := runtime.NumGoroutine()
	assert.LessOrEqual(t, after, before+2,
		"handler goroutines must not accumulate after timed-out requests")
}

func TestTimeoutMiddlewareDiscardsLateHandlerWrites(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	handler := TimeoutMiddleware(5*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer wg.Done()
		time.Sleep(30 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message": "too late"}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	wg.Wait()

	assert.Equal(t, http.StatusRequestTimeout, w.Code)
	assert.NotContains(t, w.Body.String(), "too late")
}
