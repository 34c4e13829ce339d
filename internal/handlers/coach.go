package handlers

import (
	"context"
	"log"
	"net/http"
	"sync"

	"omnitask/backend/internal/ai"
	"omnitask/backend/internal/models"
	"omnitask/backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

// CoachHandler fronts the two AI operations. Each is tracked by a simple
// in-flight flag: one global flag for the insight refresh, one per task id
// for breakdown. Two different tasks may break down concurrently; a second
// request for the same task is rejected while one is outstanding.
type CoachHandler struct {
	store *store.TaskStore
	coach ai.Coach

	mu          sync.Mutex
	breaking    map[uuid.UUID]bool
	refreshing  bool
	lastInsight *models.Insight
}

func NewCoachHandler(taskStore *store.TaskStore, coach ai.Coach) *CoachHandler {
	return &CoachHandler{
		store:    taskStore,
		coach:    coach,
		breaking: make(map[uuid.UUID]bool),
	}
}

// BreakDown asks the AI for subtask suggestions and appends them to the
// task. A failed call appends nothing and still answers 200 with the task
// unchanged; the UI shows its pre-existing state.
func (h *CoachHandler) BreakDown(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	task, found := h.store.Get(id)
	if !found {
		taskNotFound(c)
		return
	}

	h.mu.Lock()
	if h.breaking[id] {
		h.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "breakdown already in progress"})
		return
	}
	h.breaking[id] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.breaking, id)
		h.mu.Unlock()
	}()

	// The merge must still land even if the client navigates away mid-call,
	// so the AI request is detached from the request's cancellation.
	titles, err := h.coach.BreakDownTask(context.WithoutCancel(c.Request.Context()), task.Title, task.Description)
	if err != nil {
		log.Printf("Breakdown failed for task %s: %v", id, err)
		c.JSON(http.StatusOK, gin.H{"task": task, "appended": 0})
		return
	}

	updated, ok := h.store.AppendSubtasks(c.Request.Context(), id, titles)
	if !ok {
		// Deleted while the request was in flight.
		taskNotFound(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": updated, "appended": len(titles)})
}

// RefreshInsight requests fresh coaching. On failure the previous insight,
// if any, is kept; the client never sees fallback copy from this layer.
func (h *CoachHandler) RefreshInsight(c *gin.Context) {
	tasks := h.store.Tasks()
	if len(tasks) == 0 {
		h.respondInsight(c)
		return
	}

	h.mu.Lock()
	if h.refreshing {
		h.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "insight refresh already in progress"})
		return
	}
	h.refreshing = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.refreshing = false
		h.mu.Unlock()
	}()

	insight, err := h.coach.CoachingInsight(context.WithoutCancel(c.Request.Context()), tasks)
	if err != nil {
		log.Printf("Insight refresh failed: %v", err)
		h.respondInsight(c)
		return
	}

	h.mu.Lock()
	h.lastInsight = &insight
	h.mu.Unlock()

	c.JSON(http.StatusOK, insight)
}

func (h *CoachHandler) GetInsight(c *gin.Context) {
	h.respondInsight(c)
}

func (h *CoachHandler) respondInsight(c *gin.Context) {
	h.mu.Lock()
	last := h.lastInsight
	h.mu.Unlock()

	if last == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, *last)
}
