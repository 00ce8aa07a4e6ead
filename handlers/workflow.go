package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"callpilot/models"
	"callpilot/services/booking"
)

// WorkflowHandler exposes the booking workflows over HTTP. It stays thin:
// requests bind, the service runs, results serialize.
type WorkflowHandler struct {
	Service booking.WorkflowService
	Logger  *zap.Logger
}

func NewWorkflowHandler(svc booking.WorkflowService, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{Service: svc, Logger: logger}
}

// runRequest is the run endpoint's body: the booking request plus the
// pipeline selector.
type runRequest struct {
	models.BookingRequest
	Mode string `json:"mode"`
}

// RunHandler executes a full workflow. Local mode answers with the terminal
// result; agent mode returns the whole record, conversation included.
func (h *WorkflowHandler) RunHandler(c *gin.Context) {
	var input runRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	switch input.Mode {
	case "", booking.ModeLocal:
		result := h.Service.RunLocal(c.Request.Context(), input.BookingRequest)
		c.JSON(http.StatusOK, gin.H{"result": result})
	case booking.ModeAgent:
		rec := h.Service.RunAgent(c.Request.Context(), input.BookingRequest)
		c.JSON(http.StatusOK, rec)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode", "details": "mode must be local or agent"})
	}
}

// ProposeHandler runs discovery only and hands back everything needed to
// confirm later: the proposal, the stored session id and the inline state.
func (h *WorkflowHandler) ProposeHandler(c *gin.Context) {
	var input models.BookingRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	proposal, state, sessionID, err := h.Service.Propose(c.Request.Context(), input)
	if err != nil {
		h.Logger.Error("Propose failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store proposal", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"proposal":   proposal,
		"session_id": sessionID,
		"state":      state,
	})
}

// confirmRequest carries either a stored session id or the inline confirm
// state returned by propose.
type confirmRequest struct {
	SessionID string               `json:"session_id"`
	State     *models.ConfirmState `json:"state"`
}

// ConfirmHandler commits a proposal. An unknown or expired session id maps
// to 404; everything else terminates in a structured booking result.
func (h *WorkflowHandler) ConfirmHandler(c *gin.Context) {
	var input confirmRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if input.SessionID != "" {
		result, err := h.Service.ConfirmSession(c.Request.Context(), input.SessionID)
		if err != nil {
			var wfErr *booking.WorkflowError
			if errors.As(err, &wfErr) && wfErr.Code == booking.CodeProposalNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": wfErr.Message, "code": wfErr.Code})
				return
			}
			h.Logger.Error("Confirm failed", zap.String("sessionId", input.SessionID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to confirm proposal", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
		return
	}

	if input.State == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": "session_id or state is required"})
		return
	}

	result := h.Service.Confirm(c.Request.Context(), *input.State)
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GraphHandler renders the requested pipeline as Graphviz DOT text.
func (h *WorkflowHandler) GraphHandler(c *gin.Context) {
	dot, err := booking.DOT(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode", "details": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(dot))
}
