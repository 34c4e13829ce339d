package storage

import (
	"context"
	"sync"

	"omnitask/backend/internal/models"
)

// MemoryStorage keeps the snapshot in process memory. Used by tests and as
// the fallback when no durable backend is configured.
type MemoryStorage struct {
	mu    sync.RWMutex
	tasks []models.Task
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(ctx context.Context) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Task, len(m.tasks))
	copy(out, m.tasks)
	return models.NormalizeAll(out), nil
}

func (m *MemoryStorage) Save(ctx context.Context, tasks []models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tasks = make([]models.Task, len(tasks))
	copy(m.tasks, tasks)
	return nil
}

func (m *MemoryStorage) Health(ctx context.Context) error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
