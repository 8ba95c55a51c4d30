// Package reveal implements the typewriter animation of a completed slot.
package reveal

import (
	"context"
	"sync"
	"time"
)

// Defaults match the web and terminal studios.
const (
	DefaultChunk    = 10
	DefaultInterval = 30 * time.Millisecond
)

// State of a reveal.
type State int

const (
	Idle State = iota
	Revealing
	Revealed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Revealing:
		return "revealing"
	case Revealed:
		return "revealed"
	default:
		return "unknown"
	}
}

// Machine reveals content a chunk of runes per tick. Safe for concurrent use.
type Machine struct {
	mu         sync.Mutex
	chunk      int
	content    []rune
	shown      int
	state      State
	generation uint64
	onComplete func()
	completed  bool
}

// New creates a machine. chunk <= 0 means DefaultChunk.
func New(chunk int) *Machine {
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	return &Machine{chunk: chunk}
}

// OnComplete registers fn to run once each time the content is fully shown.
func (m *Machine) OnComplete(fn func()) {
	m.mu.Lock()
	m.onComplete = fn
	m.mu.Unlock()
}

// SetContent restarts the reveal from an empty display.
func (m *Machine) SetContent(s string) {
	m.mu.Lock()
	m.content = []rune(s)
	m.shown = 0
	m.completed = false
	m.generation++
	if len(m.content) == 0 {
		m.state = Idle
	} else {
		m.state = Revealing
	}
	m.mu.Unlock()
}

// Tick grows the displayed prefix by one chunk. It returns true while there
// is more to reveal.
func (m *Machine) Tick() bool {
	more, _ := m.advance(0, false)
	return more
}

// advance ticks once. With pin set it only ticks while the reveal started at
// generation gen is still current.
func (m *Machine) advance(gen uint64, pin bool) (more, current bool) {
	m.mu.Lock()
	if pin && m.generation != gen {
		m.mu.Unlock()
		return false, false
	}
	if m.state != Revealing {
		m.mu.Unlock()
		return false, true
	}

	m.shown += m.chunk
	if m.shown < len(m.content) {
		m.mu.Unlock()
		return true, true
	}

	m.shown = len(m.content)
	m.state = Revealed
	var fn func()
	if !m.completed {
		m.completed = true
		fn = m.onComplete
	}
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
	return false, true
}

// Skip jumps straight to the fully revealed state.
func (m *Machine) Skip() {
	for m.Tick() {
	}
}

// Displayed returns the currently visible prefix.
func (m *Machine) Displayed() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.content[:m.shown])
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Run ticks every interval, calling frame with each displayed prefix, until
// the content is revealed, ctx is cancelled, or SetContent starts a new reveal.
func (m *Machine) Run(ctx context.Context, interval time.Duration, frame func(string)) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			more, current := m.advance(gen, true)
			if !current {
				return
			}
			if frame != nil {
				frame(m.Displayed())
			}
			if !more {
				return
			}
		}
	}
}
