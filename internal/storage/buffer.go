package storage

import (
	"context"
	"sync"

	"github.com/SupremaLex/DummyDEX/internal/model"
)

// Buffer holds events until Flush hands them to the wrapped sink.
type Buffer struct {
	mu     sync.Mutex
	sink   EventSink
	events []model.PoolEvent
}

// NewBuffer wraps sink. A nil sink makes Flush drop the events.
func NewBuffer(sink EventSink) *Buffer {
	return &Buffer{sink: sink}
}

func (b *Buffer) PutEvents(ctx context.Context, events []model.PoolEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, events...)
	return nil
}

// Len returns the number of pending events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Flush writes the pending events in one call and clears them, whether or
// not the write succeeds.
func (b *Buffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	events := b.events
	b.events = nil
	b.mu.Unlock()

	if b.sink == nil || len(events) == 0 {
		return nil
	}
	return b.sink.PutEvents(ctx, events)
}

// Discard drops the pending events.
func (b *Buffer) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}
