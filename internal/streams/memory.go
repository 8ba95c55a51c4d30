package streams

import (
	"context"
	"sync"
	"time"
)

// MemoryBroker keeps batch events in process. It serves the embedded and
// inline modes where publisher and subscriber share a process.
type MemoryBroker struct {
	mu     sync.Mutex
	topics map[string]*topic
	ttl    time.Duration
}

type topic struct {
	events []Event
	// notify is closed and replaced on every publish.
	notify chan struct{}
	subs   int
}

// NewMemoryBroker creates an in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{topics: make(map[string]*topic), ttl: StreamTTL}
}

func (m *MemoryBroker) topic(batchID string) *topic {
	t, ok := m.topics[batchID]
	if !ok {
		t = &topic{notify: make(chan struct{})}
		m.topics[batchID] = t
	}
	return t
}

// Publish appends an event. A terminal event schedules the topic for removal
// after the broker's TTL.
func (m *MemoryBroker) Publish(ctx context.Context, batchID string, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.topic(batchID)
	t.events = append(t.events, ev)
	close(t.notify)
	t.notify = make(chan struct{})

	if ev.Terminal() {
		time.AfterFunc(m.ttl, func() {
			m.mu.Lock()
			if m.topics[batchID] == t {
				delete(m.topics, batchID)
			}
			m.mu.Unlock()
		})
	}
	return nil
}

// Subscribe replays every prior event, then follows live ones. A subscriber
// may arrive before the first publish; a topic that never received an event
// is dropped when its last subscriber leaves.
func (m *MemoryBroker) Subscribe(ctx context.Context, batchID string) (<-chan Event, error) {
	m.mu.Lock()
	t := m.topic(batchID)
	t.subs++
	m.mu.Unlock()

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer m.leave(batchID, t)
		next := 0
		for {
			m.mu.Lock()
			pending := t.events[next:]
			wait := t.notify
			m.mu.Unlock()

			for _, ev := range pending {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
				next++
				if ev.Terminal() {
					return
				}
			}

			select {
			case <-wait:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (m *MemoryBroker) leave(batchID string, t *topic) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.subs--
	if t.subs == 0 && len(t.events) == 0 && m.topics[batchID] == t {
		delete(m.topics, batchID)
	}
}

// Len reports how many batches the broker currently holds.
func (m *MemoryBroker) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.topics)
}

// Close drops all topics.
func (m *MemoryBroker) Close() error {
	m.mu.Lock()
	m.topics = make(map[string]*topic)
	m.mu.Unlock()
	return nil
}
