package registry

import (
	"sync"
	"time"

	"resolutionengine/src/model"
)

// Registry is the active-occurrence map shared by intake, the scheduler and
// the dispatcher. Field ownership stays single-writer per component; the
// registry lock only makes those writes visible to observability reads and
// keeps status transitions atomic.
type Registry struct {
	mu          sync.RWMutex
	occurrences map[string]*model.ExceptionOccurrence
}

func New() *Registry {
	return &Registry{occurrences: make(map[string]*model.ExceptionOccurrence)}
}

// Add registers a new occurrence. Intake is the only caller.
func (r *Registry) Add(occ *model.ExceptionOccurrence) {
	r.mu.Lock()
	r.occurrences[occ.ID] = occ
	r.mu.Unlock()
}

// Get returns a copy of the occurrence.
func (r *Registry) Get(id string) (model.ExceptionOccurrence, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	occ, ok := r.occurrences[id]
	if !ok {
		return model.ExceptionOccurrence{}, false
	}
	return *occ, true
}

// Update applies fn to the occurrence under the registry lock. Returns
// false when the id is unknown.
func (r *Registry) Update(id string, fn func(*model.ExceptionOccurrence)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	occ, ok := r.occurrences[id]
	if !ok {
		return false
	}
	fn(occ)
	occ.UpdatedAt = time.Now()
	return true
}

// TryTransition atomically moves the occurrence to the target status when
// its current status is one of from. Returns false otherwise; callers use
// this to make sure an occurrence is never claimed by two resolution tasks.
func (r *Registry) TryTransition(id string, to model.ResolutionStatus, from ...model.ResolutionStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	occ, ok := r.occurrences[id]
	if !ok {
		return false
	}

	for _, status := range from {
		if occ.ResolutionStatus == status {
			occ.ResolutionStatus = to
			occ.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// InStatus returns the ids of occurrences currently in the given status.
func (r *Registry) InStatus(status model.ResolutionStatus) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, occ := range r.occurrences {
		if occ.ResolutionStatus == status {
			ids = append(ids, id)
		}
	}
	return ids
}

// CountByStatus returns occurrence counts per lifecycle state.
func (r *Registry) CountByStatus() map[model.ResolutionStatus]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[model.ResolutionStatus]int)
	for _, occ := range r.occurrences {
		counts[occ.ResolutionStatus]++
	}
	return counts
}

// CountBySeverity returns occurrence counts per severity.
func (r *Registry) CountBySeverity() map[model.Severity]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[model.Severity]int)
	for _, occ := range r.occurrences {
		counts[occ.Severity]++
	}
	return counts
}

// Len returns the number of active occurrences.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.occurrences)
}

// Archive drops terminal occurrences whose last update is older than ttl.
// Returns the number removed.
func (r *Registry) Archive(ttl time.Duration, now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, occ := range r.occurrences {
		if occ.ResolutionStatus.Terminal() && now.Sub(occ.UpdatedAt) > ttl {
			delete(r.occurrences, id)
			removed++
		}
	}
	return removed
}
