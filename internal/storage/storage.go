package storage

import (
	"context"
	"errors"

	"omnitask/backend/internal/models"
)

var ErrUnavailable = errors.New("storage unavailable")

// Storage persists the full task list as a single snapshot. There is no
// partial addressing: every Save overwrites the whole list. Load returns an
// empty list when no snapshot exists; a corrupt snapshot is logged by the
// implementation and treated as empty rather than failing startup.
type Storage interface {
	Load(ctx context.Context) ([]models.Task, error)
	Save(ctx context.Context, tasks []models.Task) error
	Health(ctx context.Context) error
	Close() error
}
