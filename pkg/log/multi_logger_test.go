package log

import (
	"sync"
	"testing"
)

// captureLogger records events for inspection in tests.
type captureLogger struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureLogger) Log(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureLogger) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}
	ml := NewMultiLogger(a, b, NoopLogger{})

	ml.Log(Event{Lamport: 1})
	ml.Log(Event{Lamport: 2})

	if a.count() != 2 {
		t.Errorf("logger a received %d events, want 2", a.count())
	}
	if b.count() != 2 {
		t.Errorf("logger b received %d events, want 2", b.count())
	}
}

func TestMultiLoggerEmpty(t *testing.T) {
	ml := NewMultiLogger()
	ml.Log(Event{}) // must not panic
}
