package notifications

import (
	"fmt"
	"io"
	"os"
	"sync"

	"option_monitor/internal/logger"
)

// Sink delivers an alert. Delivery is best effort: callers log a returned
// error and carry on.
type Sink interface {
	Notify(title, message string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(title, message string) error

func (f SinkFunc) Notify(title, message string) error { return f(title, message) }

// Console prints alerts to a writer, stdout by default.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole returns a Console writing to w, or stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

func (c *Console) Notify(title, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "\n=== %s ===\n%s\n", title, message)
	return err
}

// Multi fans an alert out to every sink. One failing sink does not stop
// the others; failures are logged and Notify always returns nil.
type Multi struct {
	sinks []Sink
}

// NewMulti drops nil sinks.
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Add appends a sink.
func (m *Multi) Add(s Sink) {
	if s != nil {
		m.sinks = append(m.sinks, s)
	}
}

// Len is the number of sinks.
func (m *Multi) Len() int { return len(m.sinks) }

func (m *Multi) Notify(title, message string) error {
	for _, s := range m.sinks {
		if err := s.Notify(title, message); err != nil {
			logger.Warnf("Notification %q failed via %T: %v", title, s, err)
		}
	}
	return nil
}
