package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"omnitask/backend/internal/models"
)

// FileStorage writes the snapshot to a single JSON file under the data
// directory. Saves go through a temp file and rename so a crash mid-write
// never leaves a truncated snapshot behind.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

func NewFileStorage(dataDir string) (*FileStorage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileStorage{path: filepath.Join(dataDir, "tasks.json")}, nil
}

func (f *FileStorage) Load(ctx context.Context) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Task{}, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		log.Printf("Corrupt snapshot at %s, starting empty: %v", f.path, err)
		return []models.Task{}, nil
	}

	return models.NormalizeAll(tasks), nil
}

func (f *FileStorage) Save(ctx context.Context, tasks []models.Task) error {
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	return nil
}

func (f *FileStorage) Health(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := os.Stat(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (f *FileStorage) Close() error {
	return nil
}
