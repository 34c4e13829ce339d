// Package editor holds the form draft semantics shared by the create and
// edit flows: field defaults, date normalization, and the silent rejection
// of empty titles.
package editor

import (
	"strings"
	"time"

	"omnitask/backend/internal/models"
	"omnitask/backend/internal/store"
)

// Draft mirrors the task fields the form can change. Each API request
// carries its own draft; NewDraft supplies the state the form resets to
// after submit or cancel.
type Draft struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	Category    string              `json:"category"`
	DueDate     string              `json:"dueDate"`
	IsWishlist  bool                `json:"isWishlist"`
	IsOrder     bool                `json:"isOrder"`
}

func NewDraft(now time.Time) Draft {
	return Draft{
		Priority: models.PriorityMedium,
		Category: "Personal",
		DueDate:  dateOnly(now.Format(time.RFC3339), now),
	}
}

// FromTask preloads the draft for editing, normalizing a stored date-time
// string down to the date-only value the date input expects.
func FromTask(t models.Task, now time.Time) Draft {
	return Draft{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Category:    t.Category,
		DueDate:     dateOnly(t.DueDate, now),
		IsWishlist:  t.IsWishlist,
		IsOrder:     t.IsOrder,
	}
}

// ToCreate reduces the draft to create parameters. ok is false when the
// trimmed title is empty; the submission is simply dropped, no error.
func (d Draft) ToCreate(now time.Time) (store.CreateParams, bool) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return store.CreateParams{}, false
	}

	d = d.withDefaults(now)
	return store.CreateParams{
		Title:       title,
		Description: d.Description,
		Priority:    d.Priority,
		Category:    d.Category,
		DueDate:     d.DueDate,
		IsWishlist:  d.IsWishlist,
		IsOrder:     d.IsOrder,
	}, true
}

// ToUpdate reduces the draft to the fields merged into an existing task.
func (d Draft) ToUpdate(now time.Time) (store.UpdateFields, bool) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return store.UpdateFields{}, false
	}

	d = d.withDefaults(now)
	return store.UpdateFields{
		Title:       title,
		Description: d.Description,
		Priority:    d.Priority,
		Category:    d.Category,
		DueDate:     d.DueDate,
		IsWishlist:  d.IsWishlist,
		IsOrder:     d.IsOrder,
	}, true
}

func (d Draft) withDefaults(now time.Time) Draft {
	defaults := NewDraft(now)
	if !models.ValidPriority(d.Priority) {
		d.Priority = defaults.Priority
	}
	if d.Category == "" {
		d.Category = defaults.Category
	}
	if d.DueDate == "" {
		d.DueDate = defaults.DueDate
	} else {
		d.DueDate = dateOnly(d.DueDate, now)
	}
	return d
}

func dateOnly(value string, now time.Time) string {
	if value == "" {
		return now.Format("2006-01-02")
	}
	if i := strings.Index(value, "T"); i >= 0 {
		return value[:i]
	}
	return value
}
