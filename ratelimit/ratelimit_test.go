package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/tubecast/ratelimit"
)

func TestMiddlewareRejectsOverBurst(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(0.001, 2)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/convert", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(0, 0)
	for range 1000 {
		if !l.Allow() {
			t.Fatal("disabled limiter rejected a request")
		}
	}
}
