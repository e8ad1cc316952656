package progress

import "sync"

// Reporter fans events out to subscribed channels. Non-terminal events are
// dropped for a subscriber whose buffer is full; terminal events wait for
// room until the reporter is closed.
type Reporter struct {
	mu        sync.RWMutex
	listeners []chan Event
	last      map[Op]Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewReporter creates a new reporter
func NewReporter() *Reporter {
	return &Reporter{
		listeners: make([]chan Event, 0),
		last:      make(map[Op]Event),
		done:      make(chan struct{}),
	}
}

// Subscribe returns a channel that receives events
func (r *Reporter) Subscribe() <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan Event, 32)
	select {
	case <-r.done:
		close(ch)
		return ch
	default:
	}
	r.listeners = append(r.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (r *Reporter) Unsubscribe(ch <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, listener := range r.listeners {
		if listener == ch {
			close(listener)
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// Publish records e as the latest event of its op and notifies listeners
func (r *Reporter) Publish(e Event) {
	r.mu.Lock()
	r.last[e.Op] = e
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, listener := range r.listeners {
		if e.Terminal() {
			select {
			case listener <- e:
			case <-r.done:
				return
			}
			continue
		}
		select {
		case listener <- e:
		default:
			// Skip if channel is full
		}
	}
}

// Last returns the latest event published for op
func (r *Reporter) Last(op Op) (Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.last[op]
	return e, ok
}

// Close unblocks pending publishers and closes every listener channel
func (r *Reporter) Close() {
	r.closeOnce.Do(func() {
		close(r.done)

		r.mu.Lock()
		defer r.mu.Unlock()
		for _, listener := range r.listeners {
			close(listener)
		}
		r.listeners = nil
	})
}
