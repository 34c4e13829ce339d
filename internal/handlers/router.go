package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes wires the API route table. aiLimit, when non-nil, is
// applied to the AI-backed routes only; the rest of the API is unmetered.
func RegisterRoutes(r *gin.Engine, tasks *TaskHandler, coach *CoachHandler, aiLimit gin.HandlerFunc) {
	api := r.Group("/api")

	api.GET("/tasks", tasks.ListTasks)
	api.POST("/tasks", tasks.CreateTask)
	api.GET("/tasks/:id/draft", tasks.GetDraft)
	api.PUT("/tasks/:id", tasks.UpdateTask)
	api.DELETE("/tasks/:id", tasks.DeleteTask)
	api.PATCH("/tasks/:id/status", tasks.SetStatus)
	api.POST("/tasks/:id/toggle", tasks.ToggleComplete)
	api.PATCH("/tasks/:id/order-status", tasks.SetOrderStatus)
	api.POST("/tasks/:id/favorite", tasks.ToggleFavorite)
	api.POST("/tasks/:id/promote", tasks.PromoteTask)
	api.POST("/tasks/:id/subtasks/:subtaskId/toggle", tasks.ToggleSubtask)
	api.GET("/stats", tasks.GetStats)
	api.GET("/categories", tasks.ListCategories)

	aiRoutes := api.Group("")
	if aiLimit != nil {
		aiRoutes.Use(aiLimit)
	}
	aiRoutes.POST("/tasks/:id/breakdown", coach.BreakDown)
	aiRoutes.GET("/insight", coach.GetInsight)
	aiRoutes.POST("/insight/refresh", coach.RefreshInsight)
}
