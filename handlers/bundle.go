package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers for route registration.
type HandlerBundle struct {
	// Workflow endpoints.
	RunWorkflowHandler   gin.HandlerFunc
	ProposeHandler       gin.HandlerFunc
	ConfirmHandler       gin.HandlerFunc
	WorkflowGraphHandler gin.HandlerFunc

	// Speech endpoints.
	TranscribeHandler gin.HandlerFunc
}
