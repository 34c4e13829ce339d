package views

import (
	"strings"

	"omnitask/backend/internal/models"
)

type Tab string

const (
	TabAll       Tab = "all"
	TabWishlist  Tab = "wishlist"
	TabFavorites Tab = "favorites"
)

// FilterAll is the pass-through sentinel for the priority and category
// dropdowns.
const FilterAll = "all"

// Query is the UI filter state the view is derived from.
type Query struct {
	Tab      Tab
	Search   string
	Priority string
	Category string
}

// View is the derived output rendered by the client: the pending and
// completed partitions in store order, plus whether any dropdown or search
// filter is active (drives the "no results" and "clear filters" affordances;
// deliberately independent of the tab).
type View struct {
	Pending   []models.Task `json:"pending"`
	Completed []models.Task `json:"completed"`
	Filtered  bool          `json:"isFiltered"`
}

func ValidTab(t Tab) bool {
	return t == TabAll || t == TabWishlist || t == TabFavorites
}

func (q Query) normalized() Query {
	if q.Tab == "" {
		q.Tab = TabAll
	}
	if q.Priority == "" {
		q.Priority = FilterAll
	}
	if q.Category == "" {
		q.Category = FilterAll
	}
	return q
}

// Partition applies the tab, search, priority and category filters in that
// order and splits the survivors by completion. Display order is store
// order; the partitions are never re-sorted.
func Partition(tasks []models.Task, q Query) View {
	q = q.normalized()

	view := View{
		Pending:   []models.Task{},
		Completed: []models.Task{},
		Filtered:  q.Search != "" || q.Priority != FilterAll || q.Category != FilterAll,
	}

	for _, t := range tasks {
		if !matches(t, q) {
			continue
		}
		if t.Status == models.StatusDone {
			view.Completed = append(view.Completed, t)
		} else {
			view.Pending = append(view.Pending, t)
		}
	}

	return view
}

func matches(t models.Task, q Query) bool {
	switch q.Tab {
	case TabWishlist:
		if !t.IsWishlist {
			return false
		}
	case TabFavorites:
		if !t.IsFavorite {
			return false
		}
	default:
		// Wishlist items never appear in the default view, favorited or not.
		if t.IsWishlist {
			return false
		}
	}

	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}

	if q.Priority != FilterAll && string(t.Priority) != q.Priority {
		return false
	}

	if q.Category != FilterAll && t.Category != q.Category {
		return false
	}

	return true
}
