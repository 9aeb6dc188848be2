package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"geo-alert-engine/internal/cache"
)

// FileStore snapshots the cache to <dir>/<name>.json, writing through a
// temp file and rename so a crash mid-save never truncates the snapshot.
type FileStore struct {
	dir string
}

func NewFile(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Load(_ context.Context, name string) (*cache.Snapshot, error) {
	raw, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache snapshot: %w", err)
	}
	var snap cache.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode cache snapshot: %w", err)
	}
	return &snap, nil
}

func (s *FileStore) Save(_ context.Context, name string, snap *cache.Snapshot) error {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache snapshot: %w", err)
	}
	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write cache snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		return fmt.Errorf("replace cache snapshot: %w", err)
	}
	return nil
}
