package aggregator

import "sync"

// OpenerBus lets any component request invitation-modal presentation
// without threading a callback through every layer. Unlike a single
// registration slot, the bus supports multiple registrants; each Register
// returns its own unregister function. Trigger before any Register is a
// silent no-op: requests are never queued and never panic.
type OpenerBus struct {
	mu   sync.Mutex
	fns  map[int]func()
	next int
}

func NewOpenerBus() *OpenerBus {
	return &OpenerBus{fns: map[int]func(){}}
}

// Register adds an open handler and returns its unregister function, which
// is idempotent.
func (b *OpenerBus) Register(fn func()) (unregister func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.fns[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.fns, id)
			b.mu.Unlock()
		})
	}
}

// Trigger invokes every registered handler.
func (b *OpenerBus) Trigger() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.fns))
	for _, fn := range b.fns {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
