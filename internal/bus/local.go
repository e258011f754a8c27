package bus

import "sync"

// LocalHub connects LocalBus instances in one process, standing in for
// the NATS fabric in tests and single-engine boots.
type LocalHub struct {
	mu      sync.Mutex
	engines map[string]*LocalBus
}

// NewLocalHub returns an empty hub.
func NewLocalHub() *LocalHub {
	return &LocalHub{engines: make(map[string]*LocalBus)}
}

// Join registers an engine on the hub and returns its bus.
func (h *LocalHub) Join(engineId string) *LocalBus {
	h.mu.Lock()
	defer h.mu.Unlock()
	b := &LocalBus{
		hub:      h,
		engineId: engineId,
		incoming: make(chan Message, 256),
	}
	h.engines[engineId] = b
	return b
}

// LocalBus is the in-process Bus implementation.
type LocalBus struct {
	hub      *LocalHub
	engineId string
	incoming chan Message
	closed   bool
	mu       sync.Mutex
}

// SendTo implements Bus. An unknown target is dropped, matching the
// fabric's at-most-once contract.
func (b *LocalBus) SendTo(targetEngineId string, msg Message) error {
	b.hub.mu.Lock()
	target := b.hub.engines[targetEngineId]
	b.hub.mu.Unlock()
	if target != nil {
		target.deliver(msg)
	}
	return nil
}

// Broadcast implements Bus. The sender's own copy is filtered by
// SourceEngineId on delivery.
func (b *LocalBus) Broadcast(msg Message) error {
	b.hub.mu.Lock()
	targets := make([]*LocalBus, 0, len(b.hub.engines))
	for _, engine := range b.hub.engines {
		targets = append(targets, engine)
	}
	b.hub.mu.Unlock()
	for _, target := range targets {
		target.deliver(msg)
	}
	return nil
}

func (b *LocalBus) deliver(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || msg.SourceEngineId == b.engineId {
		return
	}
	select {
	case b.incoming <- msg:
	default:
		// Best-effort fabric: a full queue drops the message.
	}
}

// Incoming implements Bus.
func (b *LocalBus) Incoming() <-chan Message {
	return b.incoming
}

// Close implements Bus.
func (b *LocalBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.incoming)
	b.hub.mu.Lock()
	delete(b.hub.engines, b.engineId)
	b.hub.mu.Unlock()
}
