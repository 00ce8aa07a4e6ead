package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"callpilot/models"
	"callpilot/services/booking"
)

type fakeWorkflowService struct {
	lastRunRequest models.BookingRequest
	lastState      *models.ConfirmState
	lastSessionID  string

	localResult   *models.BookingResult
	agentRecord   *models.WorkflowRecord
	proposal      *models.Proposal
	proposalState *models.ConfirmState
	sessionID     string
	proposeErr    error
	confirmResult *models.BookingResult
	confirmErr    error
}

func (f *fakeWorkflowService) RunLocal(ctx context.Context, req models.BookingRequest) *models.BookingResult {
	f.lastRunRequest = req
	return f.localResult
}

func (f *fakeWorkflowService) RunAgent(ctx context.Context, req models.BookingRequest) *models.WorkflowRecord {
	f.lastRunRequest = req
	return f.agentRecord
}

func (f *fakeWorkflowService) Propose(ctx context.Context, req models.BookingRequest) (*models.Proposal, *models.ConfirmState, string, error) {
	f.lastRunRequest = req
	if f.proposeErr != nil {
		return nil, nil, "", f.proposeErr
	}
	return f.proposal, f.proposalState, f.sessionID, nil
}

func (f *fakeWorkflowService) Confirm(ctx context.Context, state models.ConfirmState) *models.BookingResult {
	f.lastState = &state
	return f.confirmResult
}

func (f *fakeWorkflowService) ConfirmSession(ctx context.Context, sessionID string) (*models.BookingResult, error) {
	f.lastSessionID = sessionID
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return f.confirmResult, nil
}

func workflowRouter(svc booking.WorkflowService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWorkflowHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/api/workflow/run", h.RunHandler)
	r.POST("/api/workflow/propose", h.ProposeHandler)
	r.POST("/api/workflow/confirm", h.ConfirmHandler)
	r.GET("/api/workflow/graph", h.GraphHandler)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRunHandlerDefaultsToLocalMode(t *testing.T) {
	svc := &fakeWorkflowService{localResult: &models.BookingResult{Status: models.StatusSuccess, EventID: "evt_1"}}
	r := workflowRouter(svc)

	w := postJSON(t, r, "/api/workflow/run", gin.H{"specialty": "dentist", "radius_km": 2.5})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "dentist", svc.lastRunRequest.Specialty)
	require.Equal(t, 2.5, svc.lastRunRequest.RadiusKm)

	var body struct {
		Result models.BookingResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, models.StatusSuccess, body.Result.Status)
	require.Equal(t, "evt_1", body.Result.EventID)
}

func TestRunHandlerAgentModeReturnsWholeRecord(t *testing.T) {
	svc := &fakeWorkflowService{agentRecord: &models.WorkflowRecord{
		RunID:      "run-42",
		Specialty:  "dentist",
		ResultText: "Booked prov_1",
		Transcript: []string{"[USER] book me a dentist"},
	}}
	r := workflowRouter(svc)

	w := postJSON(t, r, "/api/workflow/run", gin.H{"mode": "agent", "user_text": "book me a dentist"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "book me a dentist", svc.lastRunRequest.UserText)

	var rec models.WorkflowRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	require.Equal(t, "run-42", rec.RunID)
	require.Equal(t, "Booked prov_1", rec.ResultText)
}

func TestRunHandlerRejectsUnknownMode(t *testing.T) {
	r := workflowRouter(&fakeWorkflowService{})

	w := postJSON(t, r, "/api/workflow/run", gin.H{"mode": "hybrid"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "mode must be local or agent")
}

func TestRunHandlerRejectsMalformedBody(t *testing.T) {
	r := workflowRouter(&fakeWorkflowService{})

	req := httptest.NewRequest(http.MethodPost, "/api/workflow/run", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProposeHandlerReturnsSessionAndState(t *testing.T) {
	svc := &fakeWorkflowService{
		proposal: &models.Proposal{
			Provider:   &models.Provider{ID: "prov_1", Name: "Mitte Dental"},
			Slot:       &models.Slot{Start: "2026-02-11T09:00:00", End: "2026-02-11T09:30:00"},
			CalendarOK: models.BoolPtr(true),
		},
		proposalState: &models.ConfirmState{
			Provider:   &models.Provider{ID: "prov_1"},
			ChosenSlot: &models.Slot{Start: "2026-02-11T09:00:00", End: "2026-02-11T09:30:00"},
		},
		sessionID: "sess-1",
	}
	r := workflowRouter(svc)

	w := postJSON(t, r, "/api/workflow/propose", gin.H{"specialty": "dentist"})

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Proposal  models.Proposal     `json:"proposal"`
		SessionID string              `json:"session_id"`
		State     models.ConfirmState `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "sess-1", body.SessionID)
	require.Equal(t, "prov_1", body.Proposal.Provider.ID)
	require.Equal(t, "2026-02-11T09:00:00", body.State.ChosenSlot.Start)
}

func TestProposeHandlerStoreFailure(t *testing.T) {
	svc := &fakeWorkflowService{proposeErr: errors.New("failed to store proposal session: redis down")}
	r := workflowRouter(svc)

	w := postJSON(t, r, "/api/workflow/propose", gin.H{"specialty": "dentist"})

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestConfirmHandlerBySessionID(t *testing.T) {
	svc := &fakeWorkflowService{confirmResult: &models.BookingResult{Status: models.StatusSuccess}}
	r := workflowRouter(svc)

	w := postJSON(t, r, "/api/workflow/confirm", gin.H{"session_id": "sess-1"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "sess-1", svc.lastSessionID)
	require.Contains(t, w.Body.String(), models.StatusSuccess)
}

func TestConfirmHandlerUnknownSessionMapsTo404(t *testing.T) {
	svc := &fakeWorkflowService{
		confirmErr: booking.NewWorkflowError(booking.CodeProposalNotFound, "proposal session sess-9 not found or expired"),
	}
	r := workflowRouter(svc)

	w := postJSON(t, r, "/api/workflow/confirm", gin.H{"session_id": "sess-9"})

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), booking.CodeProposalNotFound)
}

func TestConfirmHandlerInlineState(t *testing.T) {
	svc := &fakeWorkflowService{confirmResult: &models.BookingResult{Status: models.StatusSuccess}}
	r := workflowRouter(svc)

	w := postJSON(t, r, "/api/workflow/confirm", gin.H{"state": gin.H{
		"provider":    gin.H{"id": "prov_1", "name": "Mitte Dental", "specialty": "dentist"},
		"chosen_slot": gin.H{"start": "2026-02-11T09:00:00", "end": "2026-02-11T09:30:00"},
	}})

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastState)
	require.Equal(t, "prov_1", svc.lastState.Provider.ID)
	require.Equal(t, "2026-02-11T09:00:00", svc.lastState.ChosenSlot.Start)
}

func TestConfirmHandlerRequiresSessionOrState(t *testing.T) {
	r := workflowRouter(&fakeWorkflowService{})

	w := postJSON(t, r, "/api/workflow/confirm", gin.H{})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "session_id or state is required")
}

func TestGraphHandlerRendersDOT(t *testing.T) {
	r := workflowRouter(&fakeWorkflowService{})

	req := httptest.NewRequest(http.MethodGet, "/api/workflow/graph?mode=agent", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/vnd.graphviz")
	require.Contains(t, w.Body.String(), "tools -> agent;")
}

func TestGraphHandlerRejectsUnknownMode(t *testing.T) {
	r := workflowRouter(&fakeWorkflowService{})

	req := httptest.NewRequest(http.MethodGet, "/api/workflow/graph?mode=hybrid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
