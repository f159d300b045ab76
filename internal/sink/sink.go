// Package sink moves rendered frames out of the process and paces the
// render loop that feeds them.
package sink

import (
	"context"
	"sync"

	"github.com/san-kum/treelights/internal/color"
)

// Sink transmits one frame per call. Implementations should not retry;
// a failed frame is simply superseded by the next one.
type Sink interface {
	Send(pixels []color.RGB) error
	Close() error
}

// Session is implemented by sinks that need a handshake around a stream,
// such as switching a controller into realtime mode.
type Session interface {
	Begin(ctx context.Context) error
	End(ctx context.Context) error
}

// Null discards frames but remembers the most recent one.
type Null struct {
	mu     sync.Mutex
	frames int
	last   []color.RGB
}

func NewNull() *Null { return &Null{} }

func (n *Null) Send(pixels []color.RGB) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.frames++
	n.last = append(n.last[:0], pixels...)
	return nil
}

func (n *Null) Close() error { return nil }

// Frames is the number of frames received.
func (n *Null) Frames() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.frames
}

// Last returns a copy of the most recent frame.
func (n *Null) Last() []color.RGB {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]color.RGB, len(n.last))
	copy(out, n.last)
	return out
}
