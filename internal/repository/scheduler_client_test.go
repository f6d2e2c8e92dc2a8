package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/webitel-job-sync/internal/fetcher"
	"github.com/kirychukyurii/webitel-job-sync/internal/logger"
	"github.com/kirychukyurii/webitel-job-sync/internal/model"
)

type recorded struct {
	method string
	path   string
}

func newTestRepository(t *testing.T, markReadMethod string, h http.HandlerFunc) (SchedulerRepository, func() []recorded) {
	t.Helper()

	var (
		mu    sync.Mutex
		calls []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path})
		mu.Unlock()
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	f := fetcher.New(srv.URL+"/api", time.Second, logger.Discard())
	repo := NewSchedulerRepository(f, markReadMethod, logger.Discard())

	return repo, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), calls...)
	}
}

func TestListJobSchedulesAndExecutions(t *testing.T) {
	repo, _ := newTestRepository(t, "", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/job-schedules":
			w.Write([]byte(`[{"id":"J1","jarName":"a.jar","status":"RUNNING","executionType":"IMMEDIATE"}]`))
		case "/api/job-executions/job-schedule/J1":
			w.Write([]byte(`[{"id":"E2","jobScheduleId":"J1","startTime":"2024-05-01T10:05:00","status":"COMPLETED","logs":"ok"}]`))
		default:
			http.NotFound(w, r)
		}
	})

	schedules, err := repo.ListJobSchedules(context.Background())
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, model.JobStatusRunning, schedules[0].Status)

	executions, err := repo.ListJobExecutions(context.Background(), "J1")
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, "ok", executions[0].Logs)
}

func TestMutationsUseExpectedEndpoints(t *testing.T) {
	repo, calls := newTestRepository(t, http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()

	require.NoError(t, repo.CancelJobSchedule(ctx, "J1"))
	require.NoError(t, repo.MarkNotificationRead(ctx, "N1"))
	require.NoError(t, repo.MarkAllNotificationsRead(ctx))
	require.NoError(t, repo.DeleteNotification(ctx, "N2"))

	assert.Equal(t, []recorded{
		{http.MethodPost, "/api/job-schedules/J1/cancel"},
		{http.MethodPost, "/api/notifications/N1/read"},
		{http.MethodPut, "/api/notifications/read-all"},
		{http.MethodDelete, "/api/notifications/N2"},
	}, calls())
}

func TestMarkReadDefaultsToPost(t *testing.T) {
	repo, calls := newTestRepository(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, repo.MarkNotificationRead(context.Background(), "N1"))
	assert.Equal(t, []recorded{{http.MethodPost, "/api/notifications/N1/read"}}, calls())
}

func TestErrorsKeepFetcherKind(t *testing.T) {
	repo, _ := newTestRepository(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := repo.ListNotifications(context.Background())
	require.Error(t, err)
	assert.True(t, fetcher.Is(err, fetcher.KindHTTPStatus))
	assert.Equal(t, http.StatusServiceUnavailable, fetcher.StatusCode(err))
	assert.ErrorContains(t, err, "failed to list notifications")
}
