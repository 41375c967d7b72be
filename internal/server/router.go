package server

import (
	"github.com/gin-gonic/gin"
)

// Router assembles the mock task service. Reads are public; mutations
// require a session token and pass through failure injection.
func Router(h *Handler, failureRate float64, roll func() float64) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", Health)

	router.POST("/auth/login", h.Login)
	router.POST("/auth/logout", h.Logout)

	router.GET("/tasks", h.GetTasks)
	router.GET("/tasks/:id", h.GetTask)

	protected := router.Group("")
	protected.Use(AuthMiddleware(h.jwtSecret), FailureInjection(failureRate, roll))
	{
		protected.POST("/tasks", h.CreateTask)
		protected.PATCH("/tasks/:id", h.UpdateTask)
		protected.DELETE("/tasks/:id", h.DeleteTask)
	}

	return router
}
