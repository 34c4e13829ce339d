package handlers

import (
	"errors"
	"net/http"
	"time"

	"omnitask/backend/internal/editor"
	"omnitask/backend/internal/models"
	"omnitask/backend/internal/store"
	"omnitask/backend/internal/views"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type TaskHandler struct {
	store *store.TaskStore
}

func NewTaskHandler(taskStore *store.TaskStore) *TaskHandler {
	return &TaskHandler{store: taskStore}
}

// ListTasks derives the filtered view from the query parameters: tab
// (all/wishlist/favorites), search, priority, category.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	tab := views.Tab(c.DefaultQuery("tab", string(views.TabAll)))
	if !views.ValidTab(tab) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tab"})
		return
	}

	view := views.Partition(h.store.Tasks(), views.Query{
		Tab:      tab,
		Search:   c.Query("search"),
		Priority: c.DefaultQuery("priority", views.FilterAll),
		Category: c.DefaultQuery("category", views.FilterAll),
	})

	c.JSON(http.StatusOK, view)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var draft editor.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params, ok := draft.ToCreate(time.Now())
	if !ok {
		// An empty title does not submit; there is no error payload to render.
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	task, err := h.store.Create(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, store.ErrEmptyTitle) {
			c.Status(http.StatusUnprocessableEntity)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	var draft editor.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields, ok := draft.ToUpdate(time.Now())
	if !ok {
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	task, ok := h.store.Update(c.Request.Context(), id, fields)
	if !ok {
		taskNotFound(c)
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask requires confirm=true, the API analog of the interactive
// delete confirmation. Without it nothing is removed.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delete requires confirm=true"})
		return
	}

	id := uuid.FromStringOrNil(c.Param("id"))
	if !h.store.Delete(c.Request.Context(), id) {
		taskNotFound(c)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) SetStatus(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	var input struct {
		Status models.TaskStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	if !h.store.SetStatus(c.Request.Context(), id, input.Status) {
		taskNotFound(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

// ToggleComplete flips done<->todo without passing through in-progress.
func (h *TaskHandler) ToggleComplete(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	task, ok := h.store.ToggleComplete(c.Request.Context(), id)
	if !ok {
		taskNotFound(c)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) SetOrderStatus(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	var input struct {
		OrderStatus models.OrderStatus `json:"orderStatus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidOrderStatus(input.OrderStatus) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown order status"})
		return
	}

	if !h.store.SetOrderStatus(c.Request.Context(), id, input.OrderStatus) {
		taskNotFound(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "order status updated"})
}

func (h *TaskHandler) ToggleFavorite(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	task, ok := h.store.ToggleFavorite(c.Request.Context(), id)
	if !ok {
		taskNotFound(c)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) ToggleSubtask(c *gin.Context) {
	taskID := uuid.FromStringOrNil(c.Param("id"))
	subtaskID := uuid.FromStringOrNil(c.Param("subtaskId"))

	task, ok := h.store.ToggleSubtask(c.Request.Context(), taskID, subtaskID)
	if !ok {
		taskNotFound(c)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) PromoteTask(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	task, ok := h.store.Promote(c.Request.Context(), id)
	if !ok {
		taskNotFound(c)
		return
	}

	c.JSON(http.StatusOK, task)
}

// GetDraft preloads the edit form for an existing task, with the stored
// due date normalized down to the date-only value the date input expects.
func (h *TaskHandler) GetDraft(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	task, ok := h.store.Get(id)
	if !ok {
		taskNotFound(c)
		return
	}

	c.JSON(http.StatusOK, editor.FromTask(task, time.Now()))
}

// ListCategories returns the category suggestion set the form offers.
// Task categories are free-form and not constrained to it.
func (h *TaskHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.Categories})
}

func (h *TaskHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, views.Summarize(h.store.Tasks()))
}

func taskNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
}
