package views

import "omnitask/backend/internal/models"

// Stats backs the analytics panel. Status counts exclude wishlist items,
// matching what the default task view shows; priority counts cover the
// whole list.
type Stats struct {
	Total      int            `json:"total"`
	Todo       int            `json:"todo"`
	InProgress int            `json:"inProgress"`
	Done       int            `json:"done"`
	Wishlist   int            `json:"wishlist"`
	Favorites  int            `json:"favorites"`
	ByPriority map[string]int `json:"byPriority"`
}

func Summarize(tasks []models.Task) Stats {
	stats := Stats{
		ByPriority: map[string]int{
			string(models.PriorityLow):    0,
			string(models.PriorityMedium): 0,
			string(models.PriorityHigh):   0,
		},
	}

	for _, t := range tasks {
		if t.IsWishlist {
			stats.Wishlist++
		} else {
			stats.Total++
			switch t.Status {
			case models.StatusTodo:
				stats.Todo++
			case models.StatusInProgress:
				stats.InProgress++
			case models.StatusDone:
				stats.Done++
			}
		}
		if t.IsFavorite {
			stats.Favorites++
		}
		stats.ByPriority[string(t.Priority)]++
	}

	return stats
}
