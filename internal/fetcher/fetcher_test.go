package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/webitel-job-sync/internal/config"
	"github.com/kirychukyurii/webitel-job-sync/internal/logger"
)

type item struct {
	ID string `json:"id"`
}

func newTestFetcher(t *testing.T, h http.HandlerFunc, timeout time.Duration) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", timeout, logger.Discard())
}

func TestGetDecodesJSON(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/job-schedules", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`[{"id":"J1"},{"id":"J2"}]`))
	}, time.Second)

	items, err := Get[[]item](context.Background(), f, "job_schedules", "/job-schedules")
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: "J1"}, {ID: "J2"}}, items)
}

func TestDoSendsJSONBody(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}, time.Second)

	var out item
	err := f.Do(context.Background(), Request{Resource: "test", Method: http.MethodPost, Path: "/x", Body: item{ID: "1"}}, &out)
	require.NoError(t, err)
	assert.Empty(t, out.ID)
}

func TestHTTPStatusIsTypedResult(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"job already finished"}`))
	}, time.Second)

	err := f.Do(context.Background(), Request{Resource: "test", Method: http.MethodPost, Path: "/job-schedules/J1/cancel"}, nil)
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindHTTPStatus, fe.Kind)
	assert.Equal(t, http.StatusConflict, fe.StatusCode)
	assert.Equal(t, "job already finished", fe.Message())
	assert.Equal(t, http.StatusConflict, StatusCode(err))
}

func TestHTTPStatusPlainBody(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, time.Second)

	err := f.Do(context.Background(), Request{Resource: "test", Method: http.MethodGet, Path: "/"}, nil)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Internal Server Error", fe.Message())
}

func TestParseError(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}, time.Second)

	_, err := Get[[]item](context.Background(), f, "test", "/")
	assert.True(t, Is(err, KindParse))
}

func TestTimeoutBound(t *testing.T) {
	const timeout = 100 * time.Millisecond

	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	}, timeout)

	start := time.Now()
	_, err := Get[[]item](context.Background(), f, "test", "/")
	elapsed := time.Since(start)

	assert.True(t, Is(err, KindTimeout), "got %v", err)
	assert.Less(t, elapsed, timeout+time.Second)
}

func TestCallerCancellation(t *testing.T) {
	started := make(chan struct{})
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := Get[[]item](ctx, f, "test", "/")
	assert.True(t, Is(err, KindCanceled), "got %v", err)
}

func TestNetworkUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := New(url, time.Second, logger.Discard())
	_, err := Get[[]item](context.Background(), f, "test", "/")
	assert.True(t, Is(err, KindNetworkUnavailable), "got %v", err)
}

func TestNewFromConfig(t *testing.T) {
	f, err := NewFromConfig(config.BackendConfig{BaseURL: "http://localhost:1/api", Timeout: 3 * time.Second}, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, f.timeout)

	_, err = NewFromConfig(config.BackendConfig{
		BaseURL: "https://localhost:1/api",
		TLS:     &config.TLSConfig{CA: "/nonexistent/ca.pem"},
	}, logger.Discard())
	assert.Error(t, err)
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(context.Canceled))
	assert.Equal(t, "unknown", Kind(0).String())
}
