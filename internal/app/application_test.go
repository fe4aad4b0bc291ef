package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"aigate/internal/domain"
	"aigate/internal/infra/catalog"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	return addr
}

func newToolServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := mcp.NewServer(&mcp.Implementation{Name: "remote", Version: "0.1.0"}, nil)
	server.AddTool(&mcp.Tool{
		Name:        "echo",
		Description: "echo text",
		InputSchema: map[string]any{"type": "object"},
	}, func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "ok:echo"}}}, nil
	})
	server.AddTool(&mcp.Tool{
		Name:        "fail",
		InputSchema: map[string]any{"type": "object"},
	}, func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: "boom"}}}, nil
	})
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
	httpServer := httptest.NewServer(handler)
	t.Cleanup(httpServer.Close)
	return httpServer
}

func testConfig(t *testing.T) domain.Config {
	t.Helper()
	return domain.Config{
		Registry:   domain.RegistryConfig{Path: filepath.Join(t.TempDir(), "servers.yaml"), Backend: catalog.BackendFile},
		Supervisor: domain.SupervisorConfig{ConnectTimeoutSeconds: 5, StartConcurrency: 2},
		Proxy:      domain.ProxyConfig{InvokeTimeoutSeconds: 5},
		Aggregator: domain.AggregatorConfig{ListTimeoutSeconds: 5},
		Routing: domain.RoutingConfig{
			LargeContextThreshold: domain.DefaultLargeContextThreshold,
			MaxAttempts:           domain.DefaultMaxAttempts,
			Backends:              domain.DefaultBackends,
		},
		LLM:           domain.LLMConfig{APIKeyEnvVar: "AIGATE_TEST_UNSET_KEY"},
		HTTP:          domain.HTTPConfig{ListenAddress: freeAddr(t)},
		Observability: domain.ObservabilityConfig{ListenAddress: freeAddr(t), Metrics: true, Healthz: true},
		Logging:       domain.LoggingConfig{Level: "debug", Format: "console"},
	}
}

func doJSON(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestApplication_EndToEnd(t *testing.T) {
	toolServer := newToolServer(t)
	cfg := testConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	application, err := InitializeApplication(ctx, cfg, LoggingConfig{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- application.Run() }()

	api := "http://" + cfg.HTTP.ListenAddress
	require.Eventually(t, func() bool {
		resp, err := http.Get(api + "/v1/tool-servers")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	status, body := doJSON(t, http.MethodPost, api+"/v1/tool-servers", map[string]string{"name": "remote", "url": toolServer.URL})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["connected"])
	server := body["server"].(map[string]any)
	serverID := server["id"].(string)
	require.NotEmpty(t, serverID)

	status, body = doJSON(t, http.MethodGet, api+"/v1/tools", nil)
	require.Equal(t, http.StatusOK, status)
	tools := body["tools"].([]any)
	require.Len(t, tools, 2)
	assert.NotEmpty(t, body["fingerprint"])
	for _, raw := range tools {
		assert.Equal(t, "remote", raw.(map[string]any)["serverName"])
	}

	status, body = doJSON(t, http.MethodPost, api+"/v1/tool-servers/"+serverID+"/tools/echo", map[string]any{"arguments": map[string]any{"x": 1}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok:echo", body["result"].(map[string]any)["content"].([]any)[0].(map[string]any)["text"])

	status, body = doJSON(t, http.MethodPost, api+"/v1/tool-servers/"+serverID+"/tools/fail", nil)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, string(domain.CodeUnavailable), body["error"].(map[string]any)["code"])

	status, body = doJSON(t, http.MethodPost, api+"/v1/route", map[string]any{"tier": "pro", "mode": "code"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "coder", body["class"])
	assert.Equal(t, "codex-mini-latest", body["backend"])

	status, body = doJSON(t, http.MethodGet, "http://"+cfg.Observability.ListenAddress+"/healthz", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["registered"])
	assert.EqualValues(t, 1, body["live"])

	status, _ = doJSON(t, http.MethodDelete, api+"/v1/tool-servers/"+serverID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, body = doJSON(t, http.MethodPost, api+"/v1/tool-servers/"+serverID+"/tools/echo", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, string(domain.CodeFailedPrecond), body["error"].(map[string]any)["code"])

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not stop")
	}

	store, err := catalog.NewFileStore(cfg.Registry.Path, nil)
	require.NoError(t, err)
	regs, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestApplication_ReconnectsPersistedServersOnStart(t *testing.T) {
	toolServer := newToolServer(t)
	cfg := testConfig(t)

	seed, err := catalog.NewFileStore(cfg.Registry.Path, nil)
	require.NoError(t, err)
	_, err = seed.Add("remote", toolServer.URL)
	require.NoError(t, err)
	_, err = seed.Add("gone", "http://127.0.0.1:1/mcp")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	application, err := InitializeApplication(ctx, cfg, LoggingConfig{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- application.Run() }()

	require.Eventually(t, func() bool {
		servers, err := application.Gateway().ListToolServers(context.Background())
		if err != nil || len(servers) != 2 {
			return false
		}
		connected := 0
		for _, s := range servers {
			if s.Connected {
				connected++
			}
		}
		return connected == 1
	}, 5*time.Second, 20*time.Millisecond)

	catalogView, err := application.Gateway().ListTools(context.Background())
	require.NoError(t, err)
	assert.Len(t, catalogView.Tools, 2)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not stop")
	}
}
