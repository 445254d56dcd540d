package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/SupremaLex/DummyDEX/internal/model"
)

type countingSink struct {
	calls  int
	events []model.PoolEvent
	err    error
}

func (s *countingSink) PutEvents(ctx context.Context, events []model.PoolEvent) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, events...)
	return nil
}

func TestBufferFlushesPendingEvents(t *testing.T) {
	ctx := context.Background()
	sink := &countingSink{}
	b := NewBuffer(sink)

	_ = b.PutEvents(ctx, []model.PoolEvent{{Sequence: 1}})
	_ = b.PutEvents(ctx, []model.PoolEvent{{Sequence: 2}})
	if sink.calls != 0 {
		t.Fatalf("events reached the sink before flush")
	}
	if b.Len() != 2 {
		t.Fatalf("pending: %d", b.Len())
	}
	if err := b.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if sink.calls != 1 || len(sink.events) != 2 || sink.events[1].Sequence != 2 {
		t.Fatalf("unexpected sink state: calls=%d events=%+v", sink.calls, sink.events)
	}
	if err := b.Flush(ctx); err != nil || sink.calls != 1 {
		t.Fatalf("empty flush wrote: calls=%d err=%v", sink.calls, err)
	}
}

func TestBufferDiscard(t *testing.T) {
	ctx := context.Background()
	sink := &countingSink{err: errors.New("down")}
	b := NewBuffer(sink)

	_ = b.PutEvents(ctx, []model.PoolEvent{{Sequence: 1}})
	b.Discard()
	if err := b.Flush(ctx); err != nil || sink.calls != 0 {
		t.Fatalf("discarded events were written: calls=%d err=%v", sink.calls, err)
	}

	_ = b.PutEvents(ctx, []model.PoolEvent{{Sequence: 2}})
	if err := b.Flush(ctx); !errors.Is(err, sink.err) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if b.Len() != 0 {
		t.Fatalf("failed flush kept %d events", b.Len())
	}
}
