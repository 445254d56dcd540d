package aggregate

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileStateStoreWindowSize(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "progress", "hourly.json")

	hourly := &FileStateStore{Path: path, WindowSeconds: 3600}
	if _, ok, err := hourly.Load(ctx); err != nil || ok {
		t.Fatalf("empty store: %v %v", ok, err)
	}
	if err := hourly.Save(ctx, 1700000000); err != nil {
		t.Fatalf("save: %v", err)
	}
	ts, ok, err := hourly.Load(ctx)
	if err != nil || !ok || ts != 1700000000 {
		t.Fatalf("load: %d %v %v", ts, ok, err)
	}

	daily := &FileStateStore{Path: path, WindowSeconds: 86400}
	if _, ok, err := daily.Load(ctx); err != nil || ok {
		t.Fatalf("progress of another window size should be ignored: %v %v", ok, err)
	}

	anyWindow := &FileStateStore{Path: path}
	if ts, ok, err := anyWindow.Load(ctx); err != nil || !ok || ts != 1700000000 {
		t.Fatalf("unsized load: %d %v %v", ts, ok, err)
	}
}
