package stream

import "io"

// Buffer is an in-memory event queue implementing both Source and Sink.
// Writes append, reads pop in order; ReadEvent returns io.EOF when the
// queue is empty.
type Buffer struct {
	events []*Event
}

func (b *Buffer) WriteEvent(ev *Event) error {
	b.events = append(b.events, ev)
	return nil
}

func (b *Buffer) ReadEvent() (*Event, error) {
	if len(b.events) == 0 {
		return nil, io.EOF
	}
	ev := b.events[0]
	b.events = b.events[1:]
	return ev, nil
}

// Len returns the number of queued events.
func (b *Buffer) Len() int {
	return len(b.events)
}
