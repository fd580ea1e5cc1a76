package aggregator

import "sync"

// Registry tracks the aggregator of every active session so the periodic
// reconciliation job can poll them all. The poll is the liveness backstop
// for silently dropped realtime transports.
type Registry struct {
	mu   sync.Mutex
	aggs map[string]*Aggregator
}

func NewRegistry() *Registry {
	return &Registry{aggs: map[string]*Aggregator{}}
}

// Add registers a user's aggregator, replacing and stopping any previous
// one for the same user.
func (r *Registry) Add(userID string, a *Aggregator) {
	r.mu.Lock()
	prev := r.aggs[userID]
	r.aggs[userID] = a
	r.mu.Unlock()

	if prev != nil && prev != a {
		prev.Stop()
	}
}

// Remove stops and drops a user's aggregator.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	a := r.aggs[userID]
	delete(r.aggs, userID)
	r.mu.Unlock()

	if a != nil {
		a.Stop()
	}
}

// ReconcileAll schedules a debounced reconciliation on every registered
// aggregator.
func (r *Registry) ReconcileAll() {
	r.mu.Lock()
	aggs := make([]*Aggregator, 0, len(r.aggs))
	for _, a := range r.aggs {
		aggs = append(aggs, a)
	}
	r.mu.Unlock()

	for _, a := range aggs {
		a.ScheduleReconcile()
	}
}

// Len reports how many aggregators are registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.aggs)
}
