package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cygnusterm/cygnus/internal/infrastructure/monitoring"
	"github.com/cygnusterm/cygnus/internal/shell"
)

// promauto registers on the default registry, so the collector is created
// once for the whole test binary.
var testMetrics = monitoring.NewMetrics()

func newTestRouter(t *testing.T) (*gin.Engine, *shell.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := shell.NewManager(shell.Options{
		InitialCwd:      t.TempDir(),
		HistoryCapacity: 100,
		EventBuffer:     32,
	}, nil)
	handlers := NewHandlers(manager, testMetrics, nil)

	router := gin.New()
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.POST("/execute", handlers.Execute)
	router.POST("/cancel", handlers.Cancel)
	router.GET("/history", handlers.History)
	router.GET("/cwd", handlers.Cwd)
	router.POST("/cd", handlers.ChangeDirectory)
	router.GET("/home", handlers.Home)
	router.GET("/metrics/json", handlers.MetricsJSON)
	return router, manager
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestExecuteEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/execute", `{"command":"echo hi"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result shell.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	require.NotNil(t, result.ExitCode)
	assert.Equal(t, 0, *result.ExitCode)
	assert.NotEmpty(t, result.ExecutionID)
}

func TestExecuteEndpointEmptyCommand(t *testing.T) {
	router, manager := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/execute", `{"command":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Command cannot be empty")
	assert.Empty(t, manager.History())
}

func TestExecuteEndpointMissingField(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/execute", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteEndpointInvalidCwd(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/execute", `{"command":"true","cwd":"/no/such/dir"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteEndpointBusy(t *testing.T) {
	router, manager := newTestRouter(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		doJSON(router, http.MethodPost, "/execute", `{"command":"sleep 0.5"}`)
	}()

	require.Eventually(t, manager.Busy, 2*time.Second, 5*time.Millisecond)

	w := doJSON(router, http.MethodPost, "/execute", `{"command":"echo never"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Command already running")

	<-done
}

func TestCancelEndpointIdle(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/cancel", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "No command currently running")

	// Idempotent.
	w = doJSON(router, http.MethodPost, "/cancel", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelEndpointRunning(t *testing.T) {
	router, manager := newTestRouter(t)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- doJSON(router, http.MethodPost, "/execute", `{"command":"sleep 30"}`)
	}()

	require.Eventually(t, manager.Busy, 2*time.Second, 5*time.Millisecond)

	w := doJSON(router, http.MethodPost, "/cancel", "")
	assert.Equal(t, http.StatusOK, w.Code)

	select {
	case execW := <-done:
		require.Equal(t, http.StatusOK, execW.Code)
		var result shell.Result
		require.NoError(t, json.Unmarshal(execW.Body.Bytes(), &result))
		assert.False(t, result.Success)
	case <-time.After(5 * time.Second):
		t.Fatal("execute did not return after cancel")
	}
}

func TestHistoryEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(router, http.MethodPost, "/execute", `{"command":"echo hi"}`)

	w := doJSON(router, http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Lines []shell.Entry `json:"lines"`
		Count int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, shell.KindCommand, resp.Lines[0].Kind)
	assert.Equal(t, "hi", resp.Lines[1].Text)
}

func TestCwdAndChangeDirectoryEndpoints(t *testing.T) {
	router, manager := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/cwd", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), manager.Cwd())

	target := t.TempDir()
	w = doJSON(router, http.MethodPost, "/cd", `{"path":"`+target+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Cwd string `json:"cwd"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, resp.Cwd, manager.Cwd())
}

func TestChangeDirectoryEndpointInvalid(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/cd", `{"path":"/no/such/dir"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/cd", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHomeEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/home", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "home")
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "busy")
	assert.Contains(t, w.Body.String(), "session_state")
}

func TestMetricsJSONEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/metrics/json", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap monitoring.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
}
