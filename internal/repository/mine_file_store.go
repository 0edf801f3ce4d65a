package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"MineWatch/internal/domain/models"
	domrepo "MineWatch/internal/domain/repository"
)

// FileMineStore keeps the working mine list as one JSON document.
type FileMineStore struct {
	path string
	mu   sync.Mutex
}

var _ domrepo.MineStore = (*FileMineStore)(nil)

// NewFileMineStore creates a store at path. The file need not exist.
func NewFileMineStore(path string) *FileMineStore {
	return &FileMineStore{path: path}
}

// Path returns the backing file.
func (s *FileMineStore) Path() string { return s.path }

// Load returns the stored mines; a missing file is an empty store.
func (s *FileMineStore) Load(_ context.Context) ([]models.MineRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mine store: %w", err)
	}
	var mines []models.MineRecord
	if err := json.Unmarshal(data, &mines); err != nil {
		return nil, fmt.Errorf("decode mine store %s: %w", s.path, err)
	}
	return mines, nil
}

// Save replaces the stored mines atomically.
func (s *FileMineStore) Save(_ context.Context, mines []models.MineRecord) error {
	if mines == nil {
		mines = []models.MineRecord{}
	}
	data, err := json.MarshalIndent(mines, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mine store: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(s.path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
