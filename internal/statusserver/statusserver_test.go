package statusserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencover/hyfd/internal/metrics"
	"github.com/opencover/hyfd/pkg/logging"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg, err := metrics.New(nil)
	require.NoError(t, err)
	logger := logging.New(logging.Config{Mute: true})
	return New(func() metrics.Snapshot {
		return metrics.Snapshot{Iterations: 2, FDsFound: 3}
	}, reg, logger, "")
}

func TestHandleHealthz_ReturnsOK(t *testing.T) {
	s := testServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleStatus_ReturnsSnapshotJSON(t *testing.T) {
	s := testServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"FDsFound":3`)
}

func TestHandleMetrics_ExposesPrometheusFormat(t *testing.T) {
	s := testServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hyfd_")
}

func TestHub_BroadcastDropsOnSlowSubscriber(t *testing.T) {
	h := newHub()
	sub := h.subscribe()
	defer h.unsubscribe(sub)

	h.broadcast(nil)
	h.broadcast(nil) // second broadcast must not block even though sub is unread
	<-sub
}
