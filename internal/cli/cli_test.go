package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/webitel-job-sync/internal/model"
)

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "backend:\n  base_url: " + baseURL + "\n  timeout: 2s\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestSnapshotPrintsJobsAndNotifications(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/job-schedules", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "J1", "jarName": "report.jar", "executionType": "IMMEDIATE", "status": "RUNNING"},
			{"id": "J2", "jarName": "cleanup.jar", "executionType": "SCHEDULED", "status": "COMPLETED"},
		})
	})
	mux.HandleFunc("/job-executions/job-schedule/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "E1", "startTime": time.Now().Add(-3 * time.Hour).UTC().Format("2006-01-02T15:04:05"), "executionTime": "12s"},
		})
	})
	mux.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "N1", "title": "Report ready", "type": "SUCCESS", "read": false},
			{"id": "N2", "title": "Old news", "type": "INFO", "read": true},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"snapshot", "--config", writeConfig(t, srv.URL), "--status", "running", "--unread"})

	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "report.jar")
	assert.NotContains(t, text, "cleanup.jar")
	assert.Contains(t, text, string(model.JobStatusRunning))
	assert.Contains(t, text, "3 hours ago")
	assert.Contains(t, text, "12s")
	assert.Contains(t, text, "Notifications: 1 unread")
	assert.Contains(t, text, "Report ready")
	assert.NotContains(t, text, "Old news")
	assert.NotContains(t, errOut.String(), "warning:")
}

func TestSnapshotReportsBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"snapshot", "--config", writeConfig(t, srv.URL)})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errOut.String(), "warning:")
	assert.Contains(t, out.String(), "No jobs found.")
}

func TestInvalidConfig(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"snapshot", "--config", writeConfig(t, "not-a-url")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "config validation failed"), err.Error())
}

func TestAge(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "-", age(model.Timestamp{}, now))
	assert.Equal(t, "2 hours ago", age(model.NewTimestamp(now.Add(-2*time.Hour)), now))
	assert.Equal(t, "-", dash(""))
}
