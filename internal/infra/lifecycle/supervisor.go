package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aigate/internal/domain"
	"aigate/internal/infra/telemetry"
)

var (
	// ErrConnectDiscarded is returned when a connection attempt finished after
	// its server was removed or a newer attempt superseded it.
	ErrConnectDiscarded = errors.New("connection attempt discarded")
	ErrSupervisorStopped = errors.New("supervisor stopped")
)

type Options struct {
	Store            domain.RegistryStore
	Connector        domain.Connector
	Metrics          domain.Metrics
	Logger           *zap.Logger
	ConnectTimeout   time.Duration
	StartConcurrency int
}

// StartSummary reports the outcome of Start.
type StartSummary struct {
	Attempted int `json:"attempted"`
	Connected int `json:"connected"`
	Failed    int `json:"failed"`
}

type handle struct {
	reg         domain.Registration
	connectedAt time.Time
	session     domain.Session
}

// attempt tracks an in-flight or failed connection for one server.
type attempt struct {
	token     uint64
	cancel    context.CancelFunc
	status    domain.ConnectionStatus
	lastError string
}

// Supervisor owns the live tool-server sessions. handles only ever holds
// successfully connected servers; attempts holds everything else.
type Supervisor struct {
	store            domain.RegistryStore
	connector        domain.Connector
	metrics          domain.Metrics
	logger           *zap.Logger
	connectTimeout   time.Duration
	startConcurrency int

	mu        sync.RWMutex
	handles   map[string]*handle
	attempts  map[string]*attempt
	removed   map[string]struct{}
	nextToken uint64
	stopped   bool
}

func NewSupervisor(opts Options) *Supervisor {
	if opts.Store == nil {
		panic("lifecycle.Supervisor requires a registry store")
	}
	if opts.Connector == nil {
		panic("lifecycle.Supervisor requires a connector")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultConnectTimeoutSeconds) * time.Second
	}
	concurrency := opts.StartConcurrency
	if concurrency <= 0 {
		concurrency = domain.DefaultStartConcurrency
	}
	return &Supervisor{
		store:            opts.Store,
		connector:        opts.Connector,
		metrics:          metrics,
		logger:           logger.Named("supervisor"),
		connectTimeout:   timeout,
		startConcurrency: concurrency,
		handles:          make(map[string]*handle),
		attempts:         make(map[string]*attempt),
		removed:          make(map[string]struct{}),
	}
}

// Start connects every enabled registration. Individual failures are logged
// and counted; only a registry read failure is returned.
func (s *Supervisor) Start(ctx context.Context) (StartSummary, error) {
	regs, err := s.store.Load()
	if err != nil {
		s.logger.Error("load registrations failed", zap.Error(err))
		return StartSummary{}, fmt.Errorf("load registrations: %w", err)
	}

	var attempted, connected, failed atomic.Int64
	var group errgroup.Group
	group.SetLimit(s.startConcurrency)
	for _, reg := range regs {
		if !reg.Enabled {
			continue
		}
		attempted.Add(1)
		group.Go(func() error {
			if err := s.Connect(ctx, reg); err != nil {
				failed.Add(1)
				return nil
			}
			connected.Add(1)
			return nil
		})
	}
	_ = group.Wait()

	summary := StartSummary{
		Attempted: int(attempted.Load()),
		Connected: int(connected.Load()),
		Failed:    int(failed.Load()),
	}
	s.logger.Info("tool servers started",
		zap.Int("attempted", summary.Attempted),
		zap.Int("connected", summary.Connected),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// Connect dials reg and records a handle on success. The dial happens outside
// the lock. A previous handle for the same server is replaced and closed.
func (s *Supervisor) Connect(ctx context.Context, reg domain.Registration) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSupervisorStopped
	}
	if _, gone := s.removed[reg.ID]; gone {
		s.mu.Unlock()
		return fmt.Errorf("server %s: %w", reg.ID, ErrConnectDiscarded)
	}
	if prev := s.attempts[reg.ID]; prev != nil && prev.cancel != nil {
		prev.cancel()
	}
	s.nextToken++
	token := s.nextToken
	dialCtx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	s.attempts[reg.ID] = &attempt{token: token, cancel: cancel, status: domain.ConnectionConnecting}
	s.mu.Unlock()
	defer cancel()

	started := time.Now()
	s.logger.Debug("connect attempt",
		telemetry.EventField(telemetry.EventConnectAttempt),
		telemetry.ServerIDField(reg.ID),
		telemetry.ServerNameField(reg.Name),
	)
	session, err := s.connector.Connect(dialCtx, reg)
	duration := time.Since(started)

	s.mu.Lock()
	current := s.attempts[reg.ID]
	if current == nil || current.token != token || s.stopped {
		s.mu.Unlock()
		if session != nil {
			s.closeSession(reg, session)
		}
		s.metrics.ObserveConnect(domain.ConnectOutcomeCanceled, duration)
		s.logger.Info("connection attempt discarded",
			telemetry.EventField(telemetry.EventConnectDiscarded),
			telemetry.ServerIDField(reg.ID),
			telemetry.ServerNameField(reg.Name),
		)
		return fmt.Errorf("server %s: %w", reg.ID, ErrConnectDiscarded)
	}
	if err == nil && session == nil {
		err = errors.New("connector returned nil session")
	}
	if err != nil {
		current.status = domain.ConnectionFailed
		current.lastError = err.Error()
		current.cancel = nil
		s.mu.Unlock()

		s.metrics.ObserveConnect(domain.ConnectOutcomeFailure, duration)
		s.logger.Warn("tool server connection failed",
			telemetry.EventField(telemetry.EventConnectFailure),
			telemetry.ServerIDField(reg.ID),
			telemetry.ServerNameField(reg.Name),
			telemetry.DurationField(duration),
			zap.Error(err),
		)
		return fmt.Errorf("connect %s: %w", reg.Name, err)
	}

	previous := s.handles[reg.ID]
	s.handles[reg.ID] = &handle{reg: reg, connectedAt: time.Now(), session: session}
	delete(s.attempts, reg.ID)
	live := len(s.handles)
	s.mu.Unlock()

	if previous != nil {
		s.closeSession(previous.reg, previous.session)
	}
	s.metrics.ObserveConnect(domain.ConnectOutcomeSuccess, duration)
	s.metrics.SetLiveConnections(live)
	s.logger.Info("tool server connected",
		telemetry.EventField(telemetry.EventConnectSuccess),
		telemetry.ServerIDField(reg.ID),
		telemetry.ServerNameField(reg.Name),
		telemetry.DurationField(duration),
	)
	return nil
}

// AddServer persists a new registration and tries to connect it. The
// registration is kept whether or not the connection succeeds.
func (s *Supervisor) AddServer(ctx context.Context, name, url string) (domain.Registration, bool, error) {
	reg, err := s.store.Add(name, url)
	if err != nil {
		return domain.Registration{}, false, err
	}
	if err := s.Connect(ctx, reg); err != nil {
		return reg, false, nil
	}
	return reg, true, nil
}

// RemoveServer deletes the registration and tears down any live or pending
// connection for it. Unknown ids are a no-op and leave no tombstone.
func (s *Supervisor) RemoveServer(_ context.Context, id string) error {
	existed, err := s.store.Remove(id)
	if err != nil {
		return fmt.Errorf("remove registration: %w", err)
	}

	s.mu.Lock()
	a := s.attempts[id]
	if existed || a != nil || s.handles[id] != nil {
		s.removed[id] = struct{}{}
	}
	if a != nil && a.cancel != nil {
		a.cancel()
	}
	delete(s.attempts, id)
	h := s.handles[id]
	delete(s.handles, id)
	live := len(s.handles)
	s.mu.Unlock()

	if h != nil {
		s.closeSession(h.reg, h.session)
		s.metrics.SetLiveConnections(live)
		s.logger.Info("tool server disconnected",
			telemetry.EventField(telemetry.EventDisconnect),
			telemetry.ServerIDField(id),
			telemetry.ServerNameField(h.reg.Name),
		)
	}
	return nil
}

// Reconnect retries the connection for a registered server.
func (s *Supervisor) Reconnect(ctx context.Context, id string) (bool, error) {
	reg, ok, err := s.store.Get(id)
	if err != nil {
		return false, fmt.Errorf("load registration: %w", err)
	}
	if !ok {
		return false, domain.E(domain.CodeNotFound, "reconnect", fmt.Sprintf("server %s is not registered", id), domain.ErrRegistrationNotFound)
	}
	if !reg.Enabled {
		return false, domain.E(domain.CodeFailedPrecond, "reconnect", fmt.Sprintf("server %s is disabled", id), nil)
	}
	if err := s.Connect(ctx, reg); err != nil {
		if errors.Is(err, ErrSupervisorStopped) {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// List joins the persisted registrations with the current connection state.
func (s *Supervisor) List() ([]domain.ServerStatus, error) {
	regs, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ServerStatus, 0, len(regs))
	for _, reg := range regs {
		status := domain.ServerStatus{Registration: reg, Status: domain.ConnectionClosed}
		if h, ok := s.handles[reg.ID]; ok {
			status.Connected = true
			status.Status = domain.ConnectionConnected
			status.ConnectedAt = h.connectedAt
		} else if a, ok := s.attempts[reg.ID]; ok {
			status.Status = a.status
			status.LastError = a.lastError
		}
		out = append(out, status)
	}
	return out, nil
}

// Handle returns the live handle for serverID.
func (s *Supervisor) Handle(serverID string) (domain.SessionHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handles[serverID]
	if !ok {
		return domain.SessionHandle{}, false
	}
	return h.snapshot(), true
}

// Handles returns every live handle ordered by server id.
func (s *Supervisor) Handles() []domain.SessionHandle {
	s.mu.RLock()
	out := make([]domain.SessionHandle, 0, len(s.handles))
	for _, h := range s.handles {
		out = append(out, h.snapshot())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ServerID < out[j].ServerID })
	return out
}

// HealthCounts reports enabled registrations against live sessions.
func (s *Supervisor) HealthCounts(context.Context) (int, int, error) {
	regs, err := s.store.Load()
	if err != nil {
		return 0, 0, err
	}
	registered := 0
	for _, reg := range regs {
		if reg.Enabled {
			registered++
		}
	}
	s.mu.RLock()
	live := len(s.handles)
	s.mu.RUnlock()
	return registered, live, nil
}

// Stop cancels pending attempts and closes every live session.
func (s *Supervisor) Stop(context.Context) error {
	s.mu.Lock()
	s.stopped = true
	for _, a := range s.attempts {
		if a.cancel != nil {
			a.cancel()
		}
	}
	s.attempts = make(map[string]*attempt)
	handles := s.handles
	s.handles = make(map[string]*handle)
	s.mu.Unlock()

	for _, h := range handles {
		s.closeSession(h.reg, h.session)
	}
	s.metrics.SetLiveConnections(0)
	s.logger.Info("supervisor stopped", zap.Int("closed", len(handles)))
	return nil
}

func (s *Supervisor) closeSession(reg domain.Registration, session domain.Session) {
	if err := session.Close(); err != nil {
		s.logger.Warn("close tool server session failed",
			telemetry.EventField(telemetry.EventCloseFailure),
			telemetry.ServerIDField(reg.ID),
			telemetry.ServerNameField(reg.Name),
			zap.Error(err),
		)
	}
}

func (h *handle) snapshot() domain.SessionHandle {
	return domain.SessionHandle{
		ServerID:    h.reg.ID,
		ServerName:  h.reg.Name,
		URL:         h.reg.URL,
		ConnectedAt: h.connectedAt,
		Session:     h.session,
	}
}

var _ domain.HandleSource = (*Supervisor)(nil)
var _ telemetry.HealthSource = (*Supervisor)(nil)
