package store

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"omnitask/backend/internal/models"
	"omnitask/backend/internal/storage"

	"github.com/gofrs/uuid"
)

var ErrEmptyTitle = errors.New("task title must not be empty")

// TaskStore owns the in-memory task list, the single source of truth. Every
// mutation derives a new list value and flushes the whole snapshot to
// storage afterwards; flush failures are logged, never surfaced as mutation
// failures. The logical model is single-writer, but the HTTP layer makes
// mutations concurrent, so the list is guarded by a mutex.
type TaskStore struct {
	mu      sync.RWMutex
	tasks   []models.Task
	storage storage.Storage
}

// CreateParams carries the editor fields a new task is built from.
type CreateParams struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	Category    string
	DueDate     string
	IsWishlist  bool
	IsOrder     bool
}

// UpdateFields carries the editor fields merged into an existing task on
// edit-and-resubmit. Status, favorite flag and subtasks are untouched.
type UpdateFields struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	Category    string
	DueDate     string
	IsWishlist  bool
	IsOrder     bool
}

func New(st storage.Storage) *TaskStore {
	return &TaskStore{
		tasks:   []models.Task{},
		storage: st,
	}
}

// Hydrate loads the persisted snapshot. Called once at startup.
func (s *TaskStore) Hydrate(ctx context.Context) error {
	tasks, err := s.storage.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	return nil
}

// Tasks returns a copy of the list in store order, most recent first.
func (s *TaskStore) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *TaskStore) Get(id uuid.UUID) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Create validates the title, assigns a fresh id, and prepends the new task.
func (s *TaskStore) Create(ctx context.Context, params CreateParams) (models.Task, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return models.Task{}, ErrEmptyTitle
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		ID:          id,
		Title:       title,
		Description: params.Description,
		Status:      models.StatusTodo,
		Priority:    params.Priority,
		Category:    params.Category,
		DueDate:     params.DueDate,
		CreatedAt:   time.Now().UTC(),
		Subtasks:    []models.SubTask{},
		IsWishlist:  params.IsWishlist,
		IsOrder:     params.IsOrder,
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.IsOrder {
		task.OrderStatus = models.OrderPending
	}

	s.mu.Lock()
	s.tasks = append([]models.Task{task}, s.tasks...)
	s.mu.Unlock()

	s.flush(ctx)
	return task, nil
}

// Update merges the editor fields into the matching task. An order gaining
// isOrder with no prior status is initialized to pending; an existing
// orderStatus survives unrelated edits but is cleared when the task stops
// being an order. Unknown ids are a silent no-op.
func (s *TaskStore) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (models.Task, bool) {
	return s.mutate(ctx, id, func(t models.Task) models.Task {
		t.Title = fields.Title
		t.Description = fields.Description
		t.Priority = fields.Priority
		t.Category = fields.Category
		t.DueDate = fields.DueDate
		t.IsWishlist = fields.IsWishlist
		t.IsOrder = fields.IsOrder
		if t.IsOrder {
			if t.OrderStatus == "" {
				t.OrderStatus = models.OrderPending
			}
		} else {
			t.OrderStatus = ""
		}
		return t
	})
}

// Delete removes the task and, with it, all its subtasks. The interactive
// confirmation lives at the API layer; by the time Delete runs it is
// unconditional.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) bool {
	s.mu.Lock()
	found := false
	next := s.tasks[:0:0]
	for _, t := range s.tasks {
		if t.ID == id {
			found = true
			continue
		}
		next = append(next, t)
	}
	if found {
		s.tasks = next
	}
	s.mu.Unlock()

	if found {
		s.flush(ctx)
	}
	return found
}

func (s *TaskStore) SetStatus(ctx context.Context, id uuid.UUID, status models.TaskStatus) bool {
	_, ok := s.mutate(ctx, id, func(t models.Task) models.Task {
		t.Status = status
		return t
	})
	return ok
}

// ToggleComplete flips between done and todo, never through in-progress.
func (s *TaskStore) ToggleComplete(ctx context.Context, id uuid.UUID) (models.Task, bool) {
	return s.mutate(ctx, id, func(t models.Task) models.Task {
		if t.Status == models.StatusDone {
			t.Status = models.StatusTodo
		} else {
			t.Status = models.StatusDone
		}
		return t
	})
}

// SetOrderStatus sets the shipping stage directly. Any transition is legal,
// including backwards; that supports correcting a mis-click.
func (s *TaskStore) SetOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) bool {
	_, ok := s.mutate(ctx, id, func(t models.Task) models.Task {
		t.OrderStatus = status
		return t
	})
	return ok
}

func (s *TaskStore) ToggleFavorite(ctx context.Context, id uuid.UUID) (models.Task, bool) {
	return s.mutate(ctx, id, func(t models.Task) models.Task {
		t.IsFavorite = !t.IsFavorite
		return t
	})
}

func (s *TaskStore) ToggleSubtask(ctx context.Context, taskID, subtaskID uuid.UUID) (models.Task, bool) {
	return s.mutate(ctx, taskID, func(t models.Task) models.Task {
		subtasks := make([]models.SubTask, len(t.Subtasks))
		copy(subtasks, t.Subtasks)
		for i, sub := range subtasks {
			if sub.ID == subtaskID {
				subtasks[i].Completed = !sub.Completed
			}
		}
		t.Subtasks = subtasks
		return t
	})
}

// Promote clears the wishlist flag so the task appears in the default view.
func (s *TaskStore) Promote(ctx context.Context, id uuid.UUID) (models.Task, bool) {
	return s.mutate(ctx, id, func(t models.Task) models.Task {
		t.IsWishlist = false
		return t
	})
}

// AppendSubtasks adds fresh, uncompleted subtasks after the existing ones.
// Existing subtasks are never replaced.
func (s *TaskStore) AppendSubtasks(ctx context.Context, id uuid.UUID, titles []string) (models.Task, bool) {
	return s.mutate(ctx, id, func(t models.Task) models.Task {
		subtasks := make([]models.SubTask, len(t.Subtasks), len(t.Subtasks)+len(titles))
		copy(subtasks, t.Subtasks)
		for _, title := range titles {
			subtasks = append(subtasks, models.SubTask{
				ID:    uuid.Must(uuid.NewV4()),
				Title: title,
			})
		}
		t.Subtasks = subtasks
		return t
	})
}

func (s *TaskStore) mutate(ctx context.Context, id uuid.UUID, fn func(models.Task) models.Task) (models.Task, bool) {
	s.mu.Lock()
	var updated models.Task
	found := false
	for i, t := range s.tasks {
		if t.ID == id {
			updated = fn(t)
			s.tasks[i] = updated
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.flush(ctx)
	}
	return updated, found
}

func (s *TaskStore) flush(ctx context.Context) {
	if err := s.storage.Save(ctx, s.Tasks()); err != nil {
		log.Printf("Failed to persist snapshot: %v", err)
	}
}
