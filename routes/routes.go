package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"medtriage/handlers"
)

// RegisterTriageRoutes registers the triage pipeline endpoints.
func RegisterTriageRoutes(r *gin.Engine, th *handlers.TriageHandler) {
	api := r.Group("/api/triage")
	{
		api.POST("", th.RunTriage)
		api.GET("/session/:sessionID", th.GetSession)
	}
}

// RegisterHealthRoute registers the liveness endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.HealthHandler)
}

// SetupRoutes applies CORS and registers all endpoints.
func SetupRoutes(r *gin.Engine, th *handlers.TriageHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterTriageRoutes(r, th)
	RegisterHealthRoute(r)
}
