package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
)

// Categories is the suggestion set offered by the editor. Task.Category is
// free-form and not constrained to it.
var Categories = []string{"Work", "Personal", "Shopping", "Health", "Finance"}

type SubTask struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
}

// Task is the primary entity. JSON field names follow the persisted snapshot
// format so that data written by earlier versions of the app round-trips.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	Category    string       `json:"category"`
	DueDate     string       `json:"dueDate"`
	CreatedAt   time.Time    `json:"createdAt"`
	Subtasks    []SubTask    `json:"subtasks"`
	IsFavorite  bool         `json:"isFavorite"`
	IsWishlist  bool         `json:"isWishlist"`
	IsOrder     bool         `json:"isOrder"`
	OrderStatus OrderStatus  `json:"orderStatus,omitempty"`
}

// Insight is the coaching response produced at the AI boundary.
type Insight struct {
	Summary       string   `json:"summary"`
	Suggestions   []string `json:"suggestions"`
	Encouragement string   `json:"encouragement"`
}

func ValidStatus(s TaskStatus) bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

func ValidPriority(p TaskPriority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func ValidOrderStatus(s OrderStatus) bool {
	return s == OrderPending || s == OrderShipped || s == OrderDelivered
}

// Normalize back-fills fields that may be absent in older snapshots: an
// order with no recorded status becomes pending, orderStatus is cleared
// when the task is not an order, and subtasks are never nil afterwards.
func (t Task) Normalize() Task {
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Subtasks == nil {
		t.Subtasks = []SubTask{}
	}
	if t.IsOrder {
		if t.OrderStatus == "" {
			t.OrderStatus = OrderPending
		}
	} else {
		t.OrderStatus = ""
	}
	return t
}

func NormalizeAll(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Normalize()
	}
	return out
}
