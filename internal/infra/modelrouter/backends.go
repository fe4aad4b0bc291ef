package modelrouter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"aigate/internal/domain"
)

// BackendCatalog binds every capability class to one concrete backend id and
// keeps the reverse index used to recover a backend's class.
type BackendCatalog struct {
	byClass map[domain.CapabilityClass]domain.Backend
	byID    map[string]domain.Backend
}

// NewBackendCatalog validates the class to backend id mapping. Every class
// must be present and ids must be unique across classes.
func NewBackendCatalog(ids map[domain.CapabilityClass]string) (*BackendCatalog, error) {
	var errs []string
	catalog := &BackendCatalog{
		byClass: make(map[domain.CapabilityClass]domain.Backend, len(domain.CapabilityClasses)),
		byID:    make(map[string]domain.Backend, len(domain.CapabilityClasses)),
	}
	known := make(map[domain.CapabilityClass]struct{}, len(domain.CapabilityClasses))
	for _, class := range domain.CapabilityClasses {
		known[class] = struct{}{}
		id := strings.TrimSpace(ids[class])
		if id == "" {
			errs = append(errs, fmt.Sprintf("backend for class %s is required", class))
			continue
		}
		if other, dup := catalog.byID[id]; dup {
			errs = append(errs, fmt.Sprintf("backend %q is bound to both %s and %s", id, other.Class, class))
			continue
		}
		backend := domain.Backend{ID: id, Class: class}
		catalog.byClass[class] = backend
		catalog.byID[id] = backend
	}
	extra := make([]string, 0)
	for class := range ids {
		if _, ok := known[class]; !ok {
			extra = append(extra, string(class))
		}
	}
	sort.Strings(extra)
	for _, class := range extra {
		errs = append(errs, fmt.Sprintf("unknown capability class %q", class))
	}
	if len(errs) > 0 {
		return nil, errors.New(strings.Join(errs, "; "))
	}
	return catalog, nil
}

// ForClass returns the backend bound to class.
func (c *BackendCatalog) ForClass(class domain.CapabilityClass) domain.Backend {
	return c.byClass[class]
}

// Lookup returns the backend with id and its class.
func (c *BackendCatalog) Lookup(id string) (domain.Backend, bool) {
	backend, ok := c.byID[strings.TrimSpace(id)]
	return backend, ok
}

// Backends lists every backend in class order.
func (c *BackendCatalog) Backends() []domain.Backend {
	out := make([]domain.Backend, 0, len(domain.CapabilityClasses))
	for _, class := range domain.CapabilityClasses {
		out = append(out, c.byClass[class])
	}
	return out
}
