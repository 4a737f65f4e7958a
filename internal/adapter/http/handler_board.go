package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fixboard/fixboard/internal/domain"
	"github.com/fixboard/fixboard/internal/engine"
	"github.com/fixboard/fixboard/internal/logger"
)

// Board is the engine surface the handlers depend on
type Board interface {
	View(f engine.Filter, now time.Time) engine.BoardView
	Staff(ctx context.Context) ([]domain.Agent, error)
	Refresh(ctx context.Context) error
	Claim(ctx context.Context, ticketID int64) error
	Complete(ctx context.Context, ticketID int64) error
	Edit(ctx context.Context, ticketID int64, req engine.EditRequest) error
	Transfer(ctx context.Context, ticketID int64, target domain.Agent) error
	Loading() bool
	Busy() bool
	LastError() error
}

// BoardHandler exposes the projected board and the ticket commands over
// HTTP for the presentation layer
type BoardHandler struct {
	board Board
	log   logger.Logger
}

// NewBoardHandler creates a board handler
func NewBoardHandler(board Board, log logger.Logger) *BoardHandler {
	return &BoardHandler{
		board: board,
		log:   log,
	}
}

// RegisterRoutes registers board routes
func (h *BoardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/board", h.GetBoard).Methods("GET")
	router.HandleFunc("/api/v1/board/stats", h.GetStats).Methods("GET")
	router.HandleFunc("/api/v1/staff", h.GetStaff).Methods("GET")
	router.HandleFunc("/api/v1/refresh", h.Refresh).Methods("POST")
	router.HandleFunc("/api/v1/tickets/{id}/claim", h.ClaimTicket).Methods("POST")
	router.HandleFunc("/api/v1/tickets/{id}/complete", h.CompleteTicket).Methods("POST")
	router.HandleFunc("/api/v1/tickets/{id}", h.EditTicket).Methods("PATCH")
	router.HandleFunc("/api/v1/tickets/{id}/transfer", h.TransferTicket).Methods("POST")
	router.HandleFunc("/healthz", h.Health).Methods("GET")
}

// boardResponse augments the projection with the engine's transient
// fetch/command state
type boardResponse struct {
	engine.BoardView
	Loading bool   `json:"loading"`
	Busy    bool   `json:"busy"`
	Error   string `json:"error,omitempty"`
}

// GetBoard handles the board projection with queue, search, status and
// urgency query parameters
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		FailFromError(w, err)
		return
	}

	view := h.board.View(filter, time.Now())
	resp := boardResponse{
		BoardView: view,
		Loading:   h.board.Loading(),
		Busy:      h.board.Busy(),
	}
	if lastErr := h.board.LastError(); lastErr != nil {
		resp.Error = lastErr.Error()
	}

	Success(w, http.StatusOK, "Board retrieved", resp)
}

// GetStats handles the aggregate dashboard counts
func (h *BoardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	view := h.board.View(engine.Filter{}, time.Now())
	Success(w, http.StatusOK, "Stats retrieved", view.Stats)
}

// GetStaff handles the assignable-agent roster
func (h *BoardHandler) GetStaff(w http.ResponseWriter, r *http.Request) {
	agents, err := h.board.Staff(r.Context())
	if err != nil {
		FailFromError(w, err)
		return
	}
	Success(w, http.StatusOK, "Staff retrieved", agents)
}

// Refresh handles an explicit foreground refresh
func (h *BoardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.board.Refresh(r.Context()); err != nil {
		FailFromError(w, err)
		return
	}
	Success(w, http.StatusOK, "Snapshot refreshed", nil)
}

// ClaimTicket handles taking ownership of a ticket
func (h *BoardHandler) ClaimTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketID(w, r)
	if !ok {
		return
	}
	if err := h.board.Claim(r.Context(), id); err != nil {
		FailFromError(w, err)
		return
	}
	Success(w, http.StatusOK, "Ticket claimed", nil)
}

// CompleteTicket handles marking a ticket as completed
func (h *BoardHandler) CompleteTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketID(w, r)
	if !ok {
		return
	}
	if err := h.board.Complete(r.Context(), id); err != nil {
		FailFromError(w, err)
		return
	}
	Success(w, http.StatusOK, "Ticket completed", nil)
}

// EditTicket handles a field patch
func (h *BoardHandler) EditTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketID(w, r)
	if !ok {
		return
	}

	var req engine.EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Fail(w, http.StatusBadRequest, "Invalid request body", "invalid_request")
		return
	}

	if err := h.board.Edit(r.Context(), id, req); err != nil {
		FailFromError(w, err)
		return
	}
	Success(w, http.StatusOK, "Ticket updated", nil)
}

// transferRequest identifies the agent receiving the ticket
type transferRequest struct {
	AgentID   int64  `json:"agent_id"`
	AgentName string `json:"agent_name"`
}

// TransferTicket handles reassigning a ticket
func (h *BoardHandler) TransferTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketID(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Fail(w, http.StatusBadRequest, "Invalid request body", "invalid_request")
		return
	}
	if req.AgentID == 0 {
		Fail(w, http.StatusBadRequest, "agent_id is required", "invalid_request")
		return
	}

	target := domain.Agent{ID: req.AgentID, Name: req.AgentName}
	if err := h.board.Transfer(r.Context(), id, target); err != nil {
		FailFromError(w, err)
		return
	}
	Success(w, http.StatusOK, "Ticket transferred", nil)
}

// Health handles liveness checks
func (h *BoardHandler) Health(w http.ResponseWriter, r *http.Request) {
	Success(w, http.StatusOK, "ok", map[string]interface{}{
		"loading": h.board.Loading(),
		"busy":    h.board.Busy(),
	})
}

// ticketID parses the {id} path variable, writing the error response on
// failure
func ticketID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		Fail(w, http.StatusBadRequest, "Invalid ticket ID", "invalid_ticket_id")
		return 0, false
	}
	return id, true
}

// filterFromQuery builds the projection filter from query parameters
func filterFromQuery(r *http.Request) (engine.Filter, error) {
	filter := engine.Filter{
		Search: r.URL.Query().Get("search"),
	}

	if queue := r.URL.Query().Get("queue"); queue != "" {
		q := engine.Queue(queue)
		if !q.Valid() {
			return engine.Filter{}, domain.NewEngineError(domain.ErrCodeValidation, "unknown queue %q", queue)
		}
		filter.Queue = q
	}

	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.TicketStatus(status)
		if !s.Valid() {
			return engine.Filter{}, domain.NewEngineError(domain.ErrCodeValidation, "unknown status %q", status)
		}
		filter.Status = &s
	}

	if urgency := r.URL.Query().Get("urgency"); urgency != "" {
		u := domain.TicketUrgency(urgency)
		if !u.Valid() {
			return engine.Filter{}, domain.NewEngineError(domain.ErrCodeValidation, "unknown urgency %q", urgency)
		}
		filter.Urgency = &u
	}

	return filter, nil
}
