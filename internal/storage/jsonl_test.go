package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/SupremaLex/DummyDEX/internal/model"
)

func readLines(t *testing.T, path string) [][]byte {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()
	var lines [][]byte
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, append([]byte(nil), scanner.Bytes()...))
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return lines
}

func TestJsonlStorageAppendsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")
	s := NewJsonlStorage(path)
	ctx := context.Background()

	first := []model.PoolEvent{{Pool: "0x65", Sequence: 1, EventName: model.EventInitialized}}
	second := []model.PoolEvent{
		{Pool: "0x65", Sequence: 2, EventName: model.EventTokenBought, Decoded: model.TokenBoughtEventData{AmountOut: "497487437"}},
		{Pool: "0x65", Sequence: 3, EventName: model.EventWithdrawn},
	}
	if err := s.PutEvents(ctx, first); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutEvents(ctx, second); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutEvents(ctx, nil); err != nil {
		t.Fatalf("put empty: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	var rec model.PoolEventRecord
	if err := json.Unmarshal(lines[1], &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Sequence != 2 || rec.EventName != model.EventTokenBought {
		t.Fatalf("unexpected record: %+v", rec)
	}
	var bought model.TokenBoughtEventData
	if err := json.Unmarshal(rec.Decoded, &bought); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if bought.AmountOut != "497487437" {
		t.Fatalf("amount out: %s", bought.AmountOut)
	}
}

func TestJsonlStorageMetricsKinds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.jsonl")
	s := NewJsonlStorage(path)
	ctx := context.Background()

	if err := s.UpsertPools(ctx, []model.Pool{{Address: "0x65", AssetA: "0x01", AssetB: "0x02"}}); err != nil {
		t.Fatalf("pools: %v", err)
	}
	if err := s.UpsertWindowMetrics(ctx, []model.PoolWindowMetrics{{PoolAddress: "0x65", SwapCount: 4}}); err != nil {
		t.Fatalf("metrics: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var head struct {
		Kind      string `json:"kind"`
		SwapCount uint64 `json:"swap_count"`
	}
	if err := json.Unmarshal(lines[1], &head); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if head.Kind != "window_metrics" || head.SwapCount != 4 {
		t.Fatalf("unexpected metrics line: %+v", head)
	}
}

type failingSink struct{ err error }

func (f failingSink) PutEvents(ctx context.Context, events []model.PoolEvent) error {
	return f.err
}

func TestMultiSinkWritesEverySink(t *testing.T) {
	dir := t.TempDir()
	a := NewJsonlStorage(filepath.Join(dir, "a.jsonl"))
	b := NewJsonlStorage(filepath.Join(dir, "b.jsonl"))
	boom := errors.New("boom")
	sink := MultiSink{a, failingSink{err: boom}, nil, b}

	err := sink.PutEvents(context.Background(), []model.PoolEvent{{Sequence: 1}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if n := len(readLines(t, a.Path())); n != 1 {
		t.Fatalf("first sink lines: %d", n)
	}
	if n := len(readLines(t, b.Path())); n != 1 {
		t.Fatalf("last sink lines: %d", n)
	}
}
