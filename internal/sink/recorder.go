package sink

import (
	"context"
	"sync"
)

// Recorder keeps every emitted message in memory.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Emit(_ context.Context, msg Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

// Messages returns a copy of what has been emitted so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Types lists the emitted message types in order.
func (r *Recorder) Types() []Type {
	msgs := r.Messages()
	out := make([]Type, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}
