package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fixboard/fixboard/internal/domain"
	"github.com/fixboard/fixboard/internal/engine"
	"github.com/fixboard/fixboard/internal/logger"
)

// MockBoard is a mock implementation of the Board interface
type MockBoard struct {
	mock.Mock
}

func (m *MockBoard) View(f engine.Filter, now time.Time) engine.BoardView {
	args := m.Called(f, now)
	return args.Get(0).(engine.BoardView)
}

func (m *MockBoard) Staff(ctx context.Context) ([]domain.Agent, error) {
	args := m.Called(ctx)
	agents, _ := args.Get(0).([]domain.Agent)
	return agents, args.Error(1)
}

func (m *MockBoard) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockBoard) Claim(ctx context.Context, ticketID int64) error {
	return m.Called(ctx, ticketID).Error(0)
}

func (m *MockBoard) Complete(ctx context.Context, ticketID int64) error {
	return m.Called(ctx, ticketID).Error(0)
}

func (m *MockBoard) Edit(ctx context.Context, ticketID int64, req engine.EditRequest) error {
	return m.Called(ctx, ticketID, req).Error(0)
}

func (m *MockBoard) Transfer(ctx context.Context, ticketID int64, target domain.Agent) error {
	return m.Called(ctx, ticketID, target).Error(0)
}

func (m *MockBoard) Loading() bool { return m.Called().Bool(0) }

func (m *MockBoard) Busy() bool { return m.Called().Bool(0) }

func (m *MockBoard) LastError() error { return m.Called().Error(0) }

func serve(board *MockBoard, method, target string, body []byte) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	NewBoardHandler(board, logger.NewNop()).RegisterRoutes(router)

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestGetBoard_Success(t *testing.T) {
	board := new(MockBoard)
	board.On("View", mock.Anything, mock.Anything).Return(engine.BoardView{
		Queue: engine.QueueAvailable,
		Tickets: []domain.Ticket{
			{ID: 1, Code: "TK-2024-001", Status: domain.TicketStatusPending},
		},
		Stats: engine.BoardStats{Available: 1},
	})
	board.On("Loading").Return(false)
	board.On("Busy").Return(false)
	board.On("LastError").Return(nil)

	rec := serve(board, http.MethodGet, "/api/v1/board?queue=available", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Status)

	data, _ := env.Data.(map[string]interface{})
	require.NotNil(t, data)
	assert.Equal(t, "available", data["queue"])
	assert.Equal(t, false, data["loading"])
	board.AssertExpectations(t)
}

func TestGetBoard_SurfacesLastError(t *testing.T) {
	board := new(MockBoard)
	board.On("View", mock.Anything, mock.Anything).Return(engine.BoardView{Queue: engine.QueueAvailable})
	board.On("Loading").Return(true)
	board.On("Busy").Return(false)
	board.On("LastError").Return(domain.NewEngineError(domain.ErrCodeFetch, "helpdesk backend unreachable"))

	rec := serve(board, http.MethodGet, "/api/v1/board", nil)

	assert.Equal(t, http.StatusOK, rec.Code, "a stale board still renders; the error travels alongside")
	env := decodeEnvelope(t, rec)
	data, _ := env.Data.(map[string]interface{})
	require.NotNil(t, data)
	assert.Equal(t, true, data["loading"])
	assert.Contains(t, data["error"], "helpdesk backend unreachable")
}

func TestGetBoard_InvalidQueue(t *testing.T) {
	board := new(MockBoard)

	rec := serve(board, http.MethodGet, "/api/v1/board?queue=bogus", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Status)
	assert.Equal(t, "VALIDATION", env.Code)
	board.AssertNotCalled(t, "View", mock.Anything, mock.Anything)
}

func TestGetBoard_InvalidStatusAndUrgency(t *testing.T) {
	for _, target := range []string{
		"/api/v1/board?status=NOPE",
		"/api/v1/board?urgency=MILD",
	} {
		rec := serve(new(MockBoard), http.MethodGet, target, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, target)
	}
}

func TestClaimTicket(t *testing.T) {
	tests := []struct {
		name       string
		boardErr   error
		wantStatus int
		wantCode   string
	}{
		{"success", nil, http.StatusOK, ""},
		{"conflict", domain.NewEngineError(domain.ErrCodeConflict, "ticket already claimed"), http.StatusConflict, "CONFLICT"},
		{"not found", domain.NewEngineError(domain.ErrCodeNotFound, "ticket 3 is not in the current snapshot"), http.StatusNotFound, "NOT_FOUND"},
		{"busy", domain.NewEngineError(domain.ErrCodeBusy, "another command for ticket 3 is still in flight"), http.StatusTooManyRequests, "BUSY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := new(MockBoard)
			board.On("Claim", mock.Anything, int64(3)).Return(tt.boardErr)

			rec := serve(board, http.MethodPost, "/api/v1/tickets/3/claim", nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, tt.wantCode, env.Code)
			board.AssertExpectations(t)
		})
	}
}

func TestClaimTicket_InvalidID(t *testing.T) {
	board := new(MockBoard)

	rec := serve(board, http.MethodPost, "/api/v1/tickets/abc/claim", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	board.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything)
}

func TestCompleteTicket_PreconditionFailed(t *testing.T) {
	board := new(MockBoard)
	board.On("Complete", mock.Anything, int64(5)).
		Return(domain.NewEngineError(domain.ErrCodePrecondition, "ticket TK-2024-005 has no assignee and cannot be completed"))

	rec := serve(board, http.MethodPost, "/api/v1/tickets/5/complete", nil)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "PRECONDITION", env.Code)
	assert.Contains(t, env.Message, "no assignee")
}

func TestEditTicket(t *testing.T) {
	board := new(MockBoard)
	board.On("Edit", mock.Anything, int64(4), mock.MatchedBy(func(req engine.EditRequest) bool {
		return req.Title == "Broken monitor" && req.Urgency != nil && *req.Urgency == domain.TicketUrgencyUrgent
	})).Return(nil)

	body := []byte(`{"title":"Broken monitor","urgency":"URGENT"}`)
	rec := serve(board, http.MethodPatch, "/api/v1/tickets/4", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	board.AssertExpectations(t)
}

func TestEditTicket_MalformedBody(t *testing.T) {
	board := new(MockBoard)

	rec := serve(board, http.MethodPatch, "/api/v1/tickets/4", []byte(`{"title":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	board.AssertNotCalled(t, "Edit", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransferTicket(t *testing.T) {
	board := new(MockBoard)
	board.On("Transfer", mock.Anything, int64(2), domain.Agent{ID: 9, Name: "Lee"}).Return(nil)

	body := []byte(`{"agent_id":9,"agent_name":"Lee"}`)
	rec := serve(board, http.MethodPost, "/api/v1/tickets/2/transfer", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	board.AssertExpectations(t)
}

func TestTransferTicket_MissingAgent(t *testing.T) {
	board := new(MockBoard)

	rec := serve(board, http.MethodPost, "/api/v1/tickets/2/transfer", []byte(`{"agent_name":"Lee"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	board.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_BackendDown(t *testing.T) {
	board := new(MockBoard)
	board.On("Refresh", mock.Anything).
		Return(domain.NewEngineError(domain.ErrCodeFetch, "helpdesk backend unreachable"))

	rec := serve(board, http.MethodPost, "/api/v1/refresh", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "FETCH", env.Code)
}

func TestGetStats(t *testing.T) {
	board := new(MockBoard)
	board.On("View", engine.Filter{}, mock.Anything).Return(engine.BoardView{
		Stats: engine.BoardStats{Available: 2, Mine: 1, Completed: 4, Urgent: 1, ThisWeek: 3},
	})

	rec := serve(board, http.MethodGet, "/api/v1/board/stats", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	stats, _ := env.Data.(map[string]interface{})
	require.NotNil(t, stats)
	assert.Equal(t, float64(2), stats["available"])
	assert.Equal(t, float64(3), stats["this_week"])
}

func TestGetStaff(t *testing.T) {
	board := new(MockBoard)
	board.On("Staff", mock.Anything).Return([]domain.Agent{
		{ID: 7, Name: "Dana", Department: "IT Support"},
	}, nil)

	rec := serve(board, http.MethodGet, "/api/v1/staff", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	agents, _ := env.Data.([]interface{})
	require.Len(t, agents, 1)
}

func TestHealth(t *testing.T) {
	board := new(MockBoard)
	board.On("Loading").Return(false)
	board.On("Busy").Return(false)

	rec := serve(board, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}
