package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aigate/internal/domain"
)

type fakeHealthSource struct {
	registered int
	live       int
	err        error
}

func (f fakeHealthSource) HealthCounts(context.Context) (int, int, error) {
	return f.registered, f.live, f.err
}

func TestObservabilityHandler_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewPrometheusMetrics(registry).SetLiveConnections(1)

	handler := NewObservabilityHandler(HTTPServerOptions{EnableMetrics: true, Registry: registry})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aigate_tool_server_live_connections 1")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestObservabilityHandler_Healthz(t *testing.T) {
	cases := []struct {
		name       string
		source     HealthSource
		wantCode   int
		wantReport HealthReport
	}{
		{
			name:       "no tracker source",
			source:     nil,
			wantCode:   http.StatusOK,
			wantReport: HealthReport{Status: "ok", LiveRatio: 1},
		},
		{
			name:       "partial connectivity",
			source:     fakeHealthSource{registered: 4, live: 1},
			wantCode:   http.StatusOK,
			wantReport: HealthReport{Status: "ok", Registered: 4, Live: 1, LiveRatio: 0.25},
		},
		{
			name:       "registry unreadable",
			source:     fakeHealthSource{err: errors.New("disk gone")},
			wantCode:   http.StatusServiceUnavailable,
			wantReport: HealthReport{Status: "error", Error: "disk gone"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewObservabilityHandler(HTTPServerOptions{
				EnableHealthz: true,
				Health:        NewHealthTracker(tc.source),
			})
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			require.Equal(t, tc.wantCode, rec.Code)
			var got HealthReport
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tc.wantReport, got)
		})
	}
}

func TestStartHTTPServer_ServesUntilCanceled(t *testing.T) {
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- StartHTTPServer(ctx, HTTPServerOptions{
			Addr:          addr,
			EnableMetrics: true,
			Registry:      prometheus.NewRegistry(),
		}, zap.NewNop())
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = http.Get("http://" + addr + "/metrics")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()
	_, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

func TestStartHTTPServer_PortInUse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	err = StartHTTPServer(context.Background(), HTTPServerOptions{
		Addr:          listener.Addr().String(),
		EnableHealthz: true,
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "observability server failed to start")
}

func TestServeListener_ClosedListener(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, listener.Close())

	err = ServeListener(context.Background(), "api", listener, http.NotFoundHandler(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api server failed")
}

func TestStartHTTPServer_DisabledIsNoop(t *testing.T) {
	require.NoError(t, StartHTTPServer(context.Background(), HTTPServerOptions{}, nil))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(domain.LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger(domain.LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	_, err = NewLogger(domain.LoggingConfig{Level: "loud"})
	require.Error(t, err)
	_, err = NewLogger(domain.LoggingConfig{Level: "info", Format: "xml"})
	require.Error(t, err)
}

func freeAddr(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	return addr
}
