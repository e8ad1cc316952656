package progress

import "sync"

// Gate is a detachable sink. Once Close returns, no event reaches the
// wrapped sink. Delivery happens under the gate's lock, so the wrapped sink
// must not call Close from inside Publish.
type Gate struct {
	mu     sync.Mutex
	sink   Sink
	closed bool
}

// NewGate wraps sink
func NewGate(sink Sink) *Gate {
	if sink == nil {
		sink = Discard
	}
	return &Gate{sink: sink}
}

// Publish forwards e unless the gate is closed
func (g *Gate) Publish(e Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.sink.Publish(e)
}

// Close detaches the wrapped sink. It waits for an in-flight Publish.
func (g *Gate) Close() {
	g.mu.Lock()
	g.closed = true
	g.sink = Discard
	g.mu.Unlock()
}

// Closed reports whether Close was called
func (g *Gate) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}
