package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/SupremaLex/DummyDEX/internal/model"
)

// JsonlStorage appends records to a JSONL file. It serves both as an event
// sink and as a metrics sink.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

func (s *JsonlStorage) Path() string {
	return s.path
}

// PutEvents appends pool events as JSON lines.
func (s *JsonlStorage) PutEvents(ctx context.Context, events []model.PoolEvent) error {
	records := make([]interface{}, 0, len(events))
	for _, e := range events {
		records = append(records, e)
	}
	return s.appendLines(records)
}

// UpsertPools appends pool records. Readers keep the last record per pool.
func (s *JsonlStorage) UpsertPools(ctx context.Context, pools []model.Pool) error {
	records := make([]interface{}, 0, len(pools))
	for _, p := range pools {
		records = append(records, struct {
			Kind string `json:"kind"`
			model.Pool
		}{Kind: "pool", Pool: p})
	}
	return s.appendLines(records)
}

// UpsertWindowMetrics appends window metrics. Readers keep the last record
// per pool and window.
func (s *JsonlStorage) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	records := make([]interface{}, 0, len(metrics))
	for _, m := range metrics {
		records = append(records, struct {
			Kind string `json:"kind"`
			model.PoolWindowMetrics
		}{Kind: "window_metrics", PoolWindowMetrics: m})
	}
	return s.appendLines(records)
}

func (s *JsonlStorage) appendLines(records []interface{}) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
