package app

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Subscription is one live viewer connection registered with a Broadcaster.
// Snapshots arrive on C; C is closed on Unsubscribe.
type Subscription struct {
	ID        uint64
	Transport string
	C         <-chan []byte

	ch     chan []byte
	closed bool
}

// Broadcaster pushes the full reservation list to every subscriber. New
// subscribers receive nothing until the next change; clients are expected
// to fetch the current list themselves.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	buffer int
	nextID atomic.Uint64
	log    *slog.Logger
}

// NewBroadcaster creates a broadcaster whose subscribers queue at most
// buffer snapshots
func NewBroadcaster(buffer int, logger *slog.Logger) *Broadcaster {
	if buffer < 1 {
		buffer = 1
	}
	return &Broadcaster{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
		log:    logger,
	}
}

// Subscribe registers a new subscriber
func (b *Broadcaster) Subscribe(transport string) *Subscription {
	ch := make(chan []byte, b.buffer)
	sub := &Subscription{
		ID:        b.nextID.Add(1),
		Transport: transport,
		C:         ch,
		ch:        ch,
	}

	b.mu.Lock()
	b.subs[sub.ID] = sub
	count := len(b.subs)
	b.mu.Unlock()

	b.log.Info("subscriber connected", "id", sub.ID, "transport", transport, "subscribers", count)
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Calling it
// more than once is a no-op.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	if sub.closed {
		b.mu.Unlock()
		return
	}
	sub.closed = true
	delete(b.subs, sub.ID)
	close(sub.ch)
	count := len(b.subs)
	b.mu.Unlock()

	b.log.Info("subscriber disconnected", "id", sub.ID, "transport", sub.Transport, "subscribers", count)
}

// Count returns the number of registered subscribers
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// NotifyAll sends the serialized records to every subscriber without
// blocking. When a subscriber's queue is full its oldest snapshot is
// dropped, since only the latest snapshot matters.
func (b *Broadcaster) NotifyAll(records []Reservation) error {
	if records == nil {
		records = []Reservation{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		b.deliver(sub, payload)
	}
	return nil
}

// deliver must be called with b.mu held
func (b *Broadcaster) deliver(sub *Subscription, payload []byte) {
	for {
		select {
		case sub.ch <- payload:
			return
		default:
		}

		select {
		case <-sub.ch:
			b.log.Debug("subscriber lagging, dropped stale snapshot", "id", sub.ID)
		default:
		}
	}
}
