package testutils

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// LogError is a test helper function to log an error message if it is not nil.
//
// This is to help make sure our error messages are helpful and informative.
func LogError(t *testing.T, err error) {
	if err == nil {
		return
	}

	t.Helper()
	t.Logf("error message:\n%v", err)
}

// RunParallel runs a function in parallel with the given concurrency.
func RunParallel(concurrency int, f func(int)) {
	wg := sync.WaitGroup{}
	wg.Add(concurrency)

	for i := range concurrency {
		go func() {
			defer wg.Done()
			f(i)
		}()
	}

	wg.Wait()
}

// CollectChannel collects all values from a channel and returns them in a slice.
func CollectChannel[V any](ch <-chan V) []V {
	//nolint:prealloc // No way of knowing the number of values in the channel
	var values []V
	for v := range ch {
		values = append(values, v)
	}

	return values
}

// NewRequest builds a GET request and a recorder for it.
func NewRequest(t *testing.T, path string) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, path, http.NoBody)
	require.NoError(t, err)

	return httptest.NewRecorder(), req
}

// RunRequest serves a GET request for path and returns the status code.
func RunRequest(t *testing.T, h http.Handler, path string) int {
	t.Helper()

	res, req := NewRequest(t, path)
	h.ServeHTTP(res, req)
	return res.Code
}
