package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"callpilot/handlers"
	"callpilot/utils"
)

// RegisterWorkflowRoutes registers the booking workflow endpoints.
func RegisterWorkflowRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/workflow")
	{
		api.POST("/run", hb.RunWorkflowHandler)
		api.POST("/propose", hb.ProposeHandler)
		api.POST("/confirm", hb.ConfirmHandler)
		api.GET("/graph", hb.WorkflowGraphHandler)
	}
}

// RegisterSpeechRoutes registers the speech-to-text endpoint.
func RegisterSpeechRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/speech")
	{
		api.POST("/transcribe", hb.TranscribeHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Hi, I'm CallPilot",
			"checks":  utils.GetHealthStatus(),
		})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterWorkflowRoutes(r, hb)
	RegisterSpeechRoutes(r, hb)
}
