package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aigate/internal/domain"
)

const (
	BackendFile = "file"
	BackendBolt = "bolt"
)

// backend reads and writes the whole registration set.
// write must replace the persisted set atomically.
type backend interface {
	read() ([]domain.Registration, error)
	write(regs []domain.Registration) error
	close() error
	describe() string
}

// Store is the single owner of the persisted tool-server registrations.
// Mutations are serialized; reads run concurrently with each other.
type Store struct {
	backend backend
	newID   func() (string, error)
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// OpenStore opens the registry backend selected by cfg.
func OpenStore(cfg domain.RegistryConfig, logger *zap.Logger) (*Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = domain.DefaultRegistryPath
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendFile:
		return NewFileStore(path, logger)
	case BackendBolt:
		return OpenBoltStore(path, logger)
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.Backend)
	}
}

func newStore(b backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: b,
		newID:   newRegistrationID,
		logger:  logger.Named("registry"),
	}
}

func newRegistrationID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate registration id: %w", err)
	}
	return id.String(), nil
}

// Load returns the persisted registrations. A missing store yields an empty list.
func (s *Store) Load() ([]domain.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}
	return s.backend.read()
}

// Save replaces the persisted set with regs.
func (s *Store) Save(regs []domain.Registration) error {
	if err := validateRegistrations(regs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	return s.backend.write(cloneRegistrations(regs))
}

// Add validates the input, allocates a fresh id and persists the new registration.
func (s *Store) Add(name, url string) (domain.Registration, error) {
	input := domain.RegistrationInput{
		Name: strings.TrimSpace(name),
		URL:  strings.TrimSpace(url),
	}
	if err := ValidateRegistrationInput(input); err != nil {
		return domain.Registration{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.Registration{}, domain.ErrStoreClosed
	}

	regs, err := s.backend.read()
	if err != nil {
		return domain.Registration{}, err
	}
	id, err := s.newID()
	if err != nil {
		return domain.Registration{}, err
	}
	for _, existing := range regs {
		if existing.ID == id {
			return domain.Registration{}, fmt.Errorf("registration id collision: %s", id)
		}
	}

	reg := domain.Registration{
		ID:      id,
		Name:    input.Name,
		URL:     input.URL,
		Enabled: true,
	}
	if err := s.backend.write(append(regs, reg)); err != nil {
		return domain.Registration{}, err
	}
	s.logger.Info("registration added",
		zap.String("serverID", reg.ID),
		zap.String("serverName", reg.Name),
		zap.String("store", s.backend.describe()),
	)
	return reg, nil
}

// Remove deletes the registration with id and reports whether it existed.
// Unknown ids are a no-op.
func (s *Store) Remove(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, domain.ErrStoreClosed
	}

	regs, err := s.backend.read()
	if err != nil {
		return false, err
	}
	kept := make([]domain.Registration, 0, len(regs))
	for _, reg := range regs {
		if reg.ID != id {
			kept = append(kept, reg)
		}
	}
	if len(kept) == len(regs) {
		return false, nil
	}
	if err := s.backend.write(kept); err != nil {
		return false, err
	}
	s.logger.Info("registration removed", zap.String("serverID", id))
	return true, nil
}

// Get returns the registration with id.
func (s *Store) Get(id string) (domain.Registration, bool, error) {
	regs, err := s.Load()
	if err != nil {
		return domain.Registration{}, false, err
	}
	for _, reg := range regs {
		if reg.ID == id {
			return reg, true, nil
		}
	}
	return domain.Registration{}, false, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.backend.close()
}

func validateRegistrations(regs []domain.Registration) error {
	seen := make(map[string]struct{}, len(regs))
	var errs []string
	for i, reg := range regs {
		if strings.TrimSpace(reg.ID) == "" {
			errs = append(errs, fmt.Sprintf("servers[%d]: id is required", i))
			continue
		}
		if _, ok := seen[reg.ID]; ok {
			errs = append(errs, fmt.Sprintf("servers[%d]: duplicate id %q", i, reg.ID))
		}
		seen[reg.ID] = struct{}{}
	}
	if len(errs) > 0 {
		return domain.E(domain.CodeInvalidArgument, "save registry", strings.Join(errs, "; "), domain.ErrInvalidRequest)
	}
	return nil
}

func cloneRegistrations(regs []domain.Registration) []domain.Registration {
	out := make([]domain.Registration, len(regs))
	copy(out, regs)
	return out
}

var _ domain.RegistryStore = (*Store)(nil)

var errEmptyPath = errors.New("registry path is required")
