// Package area implements the in-memory service area registry.
package area

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	restorehq "github.com/eugener/restorehq/internal"
)

// Registry holds the serviced postcodes for the lifetime of the process.
// Areas are kept in insertion order; a postcode index gives O(1) membership
// checks. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	areas      []*restorehq.ServiceArea
	byPostcode map[string]*restorehq.ServiceArea
	byID       map[string]*restorehq.ServiceArea
	now        func() time.Time
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byPostcode: make(map[string]*restorehq.ServiceArea),
		byID:       make(map[string]*restorehq.ServiceArea),
		now:        time.Now,
	}
}

// IsServiced reports whether postcode belongs to an active area.
// Unknown or malformed input is simply not serviced.
func (r *Registry) IsServiced(postcode string) bool {
	p := NormalizePostcode(postcode)
	r.mu.RLock()
	a, ok := r.byPostcode[p]
	serviced := ok && a.Active
	r.mu.RUnlock()
	return serviced
}

// FindByPostcode returns the area registered for postcode, active or not.
func (r *Registry) FindByPostcode(postcode string) (restorehq.ServiceArea, bool) {
	p := NormalizePostcode(postcode)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.byPostcode[p]; ok {
		return *a, true
	}
	return restorehq.ServiceArea{}, false
}

// FindByID returns the area with the given identifier.
func (r *Registry) FindByID(id string) (restorehq.ServiceArea, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.byID[id]; ok {
		return *a, true
	}
	return restorehq.ServiceArea{}, false
}

// ListActive returns active areas in insertion order.
func (r *Registry) ListActive() []restorehq.ServiceArea {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]restorehq.ServiceArea, 0, len(r.areas))
	for _, a := range r.areas {
		if a.Active {
			out = append(out, *a)
		}
	}
	return out
}

// List returns every area in insertion order.
func (r *Registry) List() []restorehq.ServiceArea {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]restorehq.ServiceArea, len(r.areas))
	for i, a := range r.areas {
		out[i] = *a
	}
	return out
}

// Len returns the number of registered areas.
func (r *Registry) Len() int {
	r.mu.RLock()
	n := len(r.areas)
	r.mu.RUnlock()
	return n
}

// Create registers a new area. It fails with ErrValidation for a blank name
// or a postcode that is not four digits, and with ErrConflict when the
// postcode is already registered. The registry is unchanged on failure.
func (r *Registry) Create(name, postcode string, active bool) (restorehq.ServiceArea, error) {
	name = strings.Join(strings.Fields(name), " ")
	p := NormalizePostcode(postcode)
	if name == "" {
		return restorehq.ServiceArea{}, fmt.Errorf("name is required: %w", restorehq.ErrValidation)
	}
	if !ValidPostcode(p) {
		return restorehq.ServiceArea{}, fmt.Errorf("postcode %q must be 4 digits: %w", postcode, restorehq.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byPostcode[p]; exists {
		return restorehq.ServiceArea{}, fmt.Errorf("postcode %s already registered: %w", p, restorehq.ErrConflict)
	}

	a := &restorehq.ServiceArea{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Name:      name,
		Postcode:  p,
		Active:    active,
		CreatedAt: r.now().UTC(),
	}
	r.areas = append(r.areas, a)
	r.byPostcode[p] = a
	r.byID[a.ID] = a
	return *a, nil
}

// SetActive flips an area in or out of service without removing it.
func (r *Registry) SetActive(id string, active bool) (restorehq.ServiceArea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return restorehq.ServiceArea{}, fmt.Errorf("area %q: %w", id, restorehq.ErrNotFound)
	}
	a.Active = active
	return *a, nil
}
