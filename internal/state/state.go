// Package state persists the simulator: the token ledger together with the
// pool it backs.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SupremaLex/DummyDEX/internal/amm"
	"github.com/SupremaLex/DummyDEX/internal/ledger"
	"github.com/SupremaLex/DummyDEX/internal/storage/postgres"
)

// Snapshot bundles everything needed to resume a simulation.
type Snapshot struct {
	Ledger    ledger.State `json:"ledger"`
	Pool      amm.State    `json:"pool"`
	UpdatedAt string       `json:"updated_at,omitempty"`
}

// Capture takes a snapshot of a ledger and the pool built on it.
func Capture(l *ledger.Memory, p *amm.Pool) Snapshot {
	return Snapshot{
		Ledger: l.Export(),
		Pool:   p.State(),
	}
}

// Apply loads the snapshot into a ledger and a pool.
func (s Snapshot) Apply(l *ledger.Memory, p *amm.Pool) error {
	if err := l.Import(s.Ledger); err != nil {
		return fmt.Errorf("apply ledger: %w", err)
	}
	if err := p.Restore(s.Pool); err != nil {
		return fmt.Errorf("apply pool: %w", err)
	}
	return nil
}

// Store persists snapshots. Load reports false when nothing was saved yet.
type Store interface {
	Load(ctx context.Context) (Snapshot, bool, error)
	Save(ctx context.Context, snap Snapshot) error
}

// FileStore keeps the snapshot in a local JSON file.
type FileStore struct {
	Path string
}

func (s *FileStore) Load(ctx context.Context) (Snapshot, bool, error) {
	if s == nil || s.Path == "" {
		return Snapshot{}, false, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("read state: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("parse state: %w", err)
	}
	return snap, true, nil
}

func (s *FileStore) Save(ctx context.Context, snap Snapshot) error {
	if s == nil || s.Path == "" {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	snap.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// DBStore keeps the snapshot in the dex_state table under Name.
type DBStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStore) Load(ctx context.Context) (Snapshot, bool, error) {
	if s == nil || s.Store == nil {
		return Snapshot{}, false, nil
	}
	data, ok, err := s.Store.LoadSnapshot(ctx, s.Name)
	if err != nil || !ok {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("parse state: %w", err)
	}
	return snap, true, nil
}

func (s *DBStore) Save(ctx context.Context, snap Snapshot) error {
	if s == nil || s.Store == nil {
		return nil
	}
	snap.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return s.Store.SaveSnapshot(ctx, s.Name, data)
}
