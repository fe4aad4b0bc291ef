package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aigate/internal/domain"
	"aigate/internal/infra/catalog"
	"aigate/internal/infra/transport"
)

type fakeSession struct {
	url    string
	closed atomic.Bool
}

func (f *fakeSession) ListTools(context.Context) ([]domain.ToolDefinition, error) {
	return nil, nil
}

func (f *fakeSession) CallTool(context.Context, string, map[string]any) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (f *fakeSession) Close() error {
	f.closed.Store(true)
	return nil
}

// fakeConnector fails for URLs in failing and blocks URLs in gates until the
// gate channel is closed.
type fakeConnector struct {
	mu       sync.Mutex
	failing  map[string]bool
	gates    map[string]chan struct{}
	entered  chan string
	sessions []*fakeSession
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{
		failing: make(map[string]bool),
		gates:   make(map[string]chan struct{}),
		entered: make(chan string, 16),
	}
}

func (f *fakeConnector) Connect(ctx context.Context, reg domain.Registration) (domain.Session, error) {
	f.mu.Lock()
	gate := f.gates[reg.URL]
	fail := f.failing[reg.URL]
	f.mu.Unlock()

	if gate != nil {
		f.entered <- reg.URL
		<-gate
	}
	if fail {
		return nil, errors.New("connection refused")
	}
	sess := &fakeSession{url: reg.URL}
	f.mu.Lock()
	f.sessions = append(f.sessions, sess)
	f.mu.Unlock()
	return sess, nil
}

func newTestSupervisor(t *testing.T, connector domain.Connector) (*Supervisor, *catalog.Store) {
	t.Helper()
	store, err := catalog.NewFileStore(filepath.Join(t.TempDir(), "servers.yaml"), zap.NewNop())
	require.NoError(t, err)
	sup := NewSupervisor(Options{
		Store:          store,
		Connector:      connector,
		Logger:         zap.NewNop(),
		ConnectTimeout: time.Second,
	})
	return sup, store
}

func TestSupervisor_StartIsolatesFailures(t *testing.T) {
	connector := newFakeConnector()
	connector.failing["https://down.example.com/mcp"] = true
	sup, store := newTestSupervisor(t, connector)

	require.NoError(t, store.Save([]domain.Registration{
		{ID: "a", Name: "alpha", URL: "https://alpha.example.com/mcp", Enabled: true},
		{ID: "b", Name: "down", URL: "https://down.example.com/mcp", Enabled: true},
		{ID: "c", Name: "gamma", URL: "https://gamma.example.com/mcp", Enabled: true},
		{ID: "d", Name: "off", URL: "https://off.example.com/mcp", Enabled: false},
	}))

	summary, err := sup.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, StartSummary{Attempted: 3, Connected: 2, Failed: 1}, summary)

	handles := sup.Handles()
	require.Len(t, handles, 2)
	require.Equal(t, "a", handles[0].ServerID)
	require.Equal(t, "c", handles[1].ServerID)

	statuses, err := sup.List()
	require.NoError(t, err)
	require.Len(t, statuses, 4)
	byID := make(map[string]domain.ServerStatus)
	for _, st := range statuses {
		byID[st.ID] = st
	}
	require.True(t, byID["a"].Connected)
	require.Equal(t, domain.ConnectionConnected, byID["a"].Status)
	require.False(t, byID["b"].Connected)
	require.Equal(t, domain.ConnectionFailed, byID["b"].Status)
	require.Contains(t, byID["b"].LastError, "connection refused")
	require.Equal(t, domain.ConnectionClosed, byID["d"].Status)
}

func TestSupervisor_AddServerPersistsWhenUnreachable(t *testing.T) {
	connector := newFakeConnector()
	connector.failing["https://down.example.com/mcp"] = true
	sup, store := newTestSupervisor(t, connector)

	reg, connected, err := sup.AddServer(context.Background(), "down", "https://down.example.com/mcp")
	require.NoError(t, err)
	require.False(t, connected)
	require.NotEmpty(t, reg.ID)

	regs, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, []domain.Registration{reg}, regs)

	_, ok := sup.Handle(reg.ID)
	require.False(t, ok)

	reg2, connected, err := sup.AddServer(context.Background(), "up", "https://up.example.com/mcp")
	require.NoError(t, err)
	require.True(t, connected)
	h, ok := sup.Handle(reg2.ID)
	require.True(t, ok)
	require.Equal(t, "up", h.ServerName)
}

func TestSupervisor_AddServerRejectsInvalidInput(t *testing.T) {
	sup, store := newTestSupervisor(t, newFakeConnector())

	_, _, err := sup.AddServer(context.Background(), "", "notaurl")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	regs, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, regs)
}

func TestSupervisor_RemoveServerClosesHandle(t *testing.T) {
	connector := newFakeConnector()
	sup, store := newTestSupervisor(t, connector)

	reg, connected, err := sup.AddServer(context.Background(), "alpha", "https://alpha.example.com/mcp")
	require.NoError(t, err)
	require.True(t, connected)

	require.NoError(t, sup.RemoveServer(context.Background(), reg.ID))

	_, ok := sup.Handle(reg.ID)
	require.False(t, ok)
	require.Len(t, connector.sessions, 1)
	require.True(t, connector.sessions[0].closed.Load())

	regs, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, regs)

	require.NoError(t, sup.RemoveServer(context.Background(), "missing"))
}

func TestSupervisor_RemoveDuringConnectDiscardsSession(t *testing.T) {
	connector := newFakeConnector()
	gate := make(chan struct{})
	connector.gates["https://slow.example.com/mcp"] = gate
	sup, store := newTestSupervisor(t, connector)

	reg, err := store.Add("slow", "https://slow.example.com/mcp")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- sup.Connect(context.Background(), reg) }()
	<-connector.entered

	statuses, err := sup.List()
	require.NoError(t, err)
	require.Equal(t, domain.ConnectionConnecting, statuses[0].Status)

	require.NoError(t, sup.RemoveServer(context.Background(), reg.ID))
	close(gate)

	err = <-done
	require.ErrorIs(t, err, ErrConnectDiscarded)
	_, ok := sup.Handle(reg.ID)
	require.False(t, ok)
	require.Len(t, connector.sessions, 1)
	require.True(t, connector.sessions[0].closed.Load())

	statuses, err = sup.List()
	require.NoError(t, err)
	require.Empty(t, statuses)
}

func TestSupervisor_ReconnectReplacesHandle(t *testing.T) {
	connector := newFakeConnector()
	sup, _ := newTestSupervisor(t, connector)

	reg, connected, err := sup.AddServer(context.Background(), "alpha", "https://alpha.example.com/mcp")
	require.NoError(t, err)
	require.True(t, connected)
	first, _ := sup.Handle(reg.ID)

	connected, err = sup.Reconnect(context.Background(), reg.ID)
	require.NoError(t, err)
	require.True(t, connected)

	second, ok := sup.Handle(reg.ID)
	require.True(t, ok)
	require.NotSame(t, first.Session, second.Session)
	require.True(t, first.Session.(*fakeSession).closed.Load())
	require.Len(t, sup.Handles(), 1)
}

func TestSupervisor_ReconnectUnknownServer(t *testing.T) {
	sup, _ := newTestSupervisor(t, newFakeConnector())

	_, err := sup.Reconnect(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrRegistrationNotFound)
	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeNotFound, code)
}

func TestSupervisor_ReconnectFailureKeepsNoHandle(t *testing.T) {
	connector := newFakeConnector()
	sup, store := newTestSupervisor(t, connector)

	reg, err := store.Add("flaky", "https://flaky.example.com/mcp")
	require.NoError(t, err)
	connector.failing[reg.URL] = true

	connected, err := sup.Reconnect(context.Background(), reg.ID)
	require.NoError(t, err)
	require.False(t, connected)
	_, ok := sup.Handle(reg.ID)
	require.False(t, ok)

	connector.mu.Lock()
	connector.failing[reg.URL] = false
	connector.mu.Unlock()
	connected, err = sup.Reconnect(context.Background(), reg.ID)
	require.NoError(t, err)
	require.True(t, connected)

	statuses, err := sup.List()
	require.NoError(t, err)
	require.Empty(t, statuses[0].LastError)
}

func TestSupervisor_StopClosesAllSessions(t *testing.T) {
	connector := newFakeConnector()
	sup, _ := newTestSupervisor(t, connector)

	for _, name := range []string{"a", "b", "c"} {
		_, connected, err := sup.AddServer(context.Background(), name, "https://"+name+".example.com/mcp")
		require.NoError(t, err)
		require.True(t, connected)
	}

	require.NoError(t, sup.Stop(context.Background()))
	require.Empty(t, sup.Handles())
	for _, sess := range connector.sessions {
		require.True(t, sess.closed.Load())
	}

	_, connected, err := sup.AddServer(context.Background(), "late", "https://late.example.com/mcp")
	require.NoError(t, err)
	require.False(t, connected)
}

func TestSupervisor_ConcurrentAccess(t *testing.T) {
	connector := newFakeConnector()
	sup, store := newTestSupervisor(t, connector)

	regs := make([]domain.Registration, 0, 8)
	for i := 0; i < 8; i++ {
		reg, err := store.Add("srv", "https://srv.example.com/mcp")
		require.NoError(t, err)
		regs = append(regs, reg)
	}

	var wg sync.WaitGroup
	for _, reg := range regs {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = sup.Connect(context.Background(), reg)
		}()
		go func() {
			defer wg.Done()
			_, _ = sup.List()
			_ = sup.Handles()
		}()
		go func() {
			defer wg.Done()
			_, _ = sup.Reconnect(context.Background(), reg.ID)
		}()
	}
	wg.Wait()

	handles := sup.Handles()
	require.Len(t, handles, len(regs))
	seen := make(map[string]bool)
	for _, h := range handles {
		require.False(t, seen[h.ServerID], "duplicate handle for %s", h.ServerID)
		seen[h.ServerID] = true
	}
}

func TestSupervisor_HealthCounts(t *testing.T) {
	connector := newFakeConnector()
	connector.failing["https://down.example.com/mcp"] = true
	sup, _ := newTestSupervisor(t, connector)

	_, _, err := sup.AddServer(context.Background(), "up", "https://up.example.com/mcp")
	require.NoError(t, err)
	_, _, err = sup.AddServer(context.Background(), "down", "https://down.example.com/mcp")
	require.NoError(t, err)

	registered, live, err := sup.HealthCounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, registered)
	require.Equal(t, 1, live)
}

func TestSupervisor_RemoveUnknownLeavesNoTombstone(t *testing.T) {
	sup, _ := newTestSupervisor(t, newFakeConnector())

	for _, id := range []string{"missing-1", "missing-2", "missing-1"} {
		require.NoError(t, sup.RemoveServer(context.Background(), id))
	}
	sup.mu.RLock()
	require.Empty(t, sup.removed)
	sup.mu.RUnlock()

	reg, _, err := sup.AddServer(context.Background(), "alpha", "https://alpha.example.com/mcp")
	require.NoError(t, err)
	require.NoError(t, sup.RemoveServer(context.Background(), reg.ID))
	sup.mu.RLock()
	require.Len(t, sup.removed, 1)
	sup.mu.RUnlock()
}

func TestSupervisor_CompletedWorkIgnoresCanceledContext(t *testing.T) {
	sup, store := newTestSupervisor(t, newFakeConnector())
	reg, connected, err := sup.AddServer(context.Background(), "alpha", "https://alpha.example.com/mcp")
	require.NoError(t, err)
	require.True(t, connected)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	registered, live, err := sup.HealthCounts(canceled)
	require.NoError(t, err)
	require.Equal(t, 1, registered)
	require.Equal(t, 1, live)

	require.NoError(t, sup.RemoveServer(canceled, reg.ID))
	regs, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, regs)
}

func TestSupervisor_SSEServerStaysUsableAfterConnect(t *testing.T) {
	remote := mcp.NewServer(&mcp.Implementation{Name: "legacy", Version: "0.1.0"}, nil)
	remote.AddTool(&mcp.Tool{Name: "echo", InputSchema: map[string]any{"type": "object"}},
		func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "ok"}}}, nil
		})
	mux := http.NewServeMux()
	mux.Handle("/sse", mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return remote }, nil))
	httpServer := httptest.NewServer(mux)
	t.Cleanup(httpServer.Close)

	connector, err := transport.NewConnector(transport.ConnectorOptions{Logger: zap.NewNop()})
	require.NoError(t, err)
	sup, _ := newTestSupervisor(t, connector)
	t.Cleanup(func() { _ = sup.Stop(context.Background()) })

	reg, connected, err := sup.AddServer(context.Background(), "legacy", httpServer.URL+"/sse")
	require.NoError(t, err)
	require.True(t, connected)

	h, ok := sup.Handle(reg.ID)
	require.True(t, ok)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tools, err := h.Session.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	require.Equal(t, "echo", tools[0].Name)

	raw, err := h.Session.CallTool(ctx, "echo", nil)
	require.NoError(t, err)
	require.Contains(t, string(raw), "ok")
}
