package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hbashir/paniwala/internal/schedule"
)

// TasksHandler serves the daily delivery round.
type TasksHandler struct {
	planner *schedule.Planner
}

func NewTasksHandler(planner *schedule.Planner) *TasksHandler {
	return &TasksHandler{planner: planner}
}

func (h *TasksHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/{customerID}/complete", h.complete)
	r.Post("/complete-all", h.completeAll)
}

func (h *TasksHandler) list(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.planner.Due(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponseList(tasks))
}

func (h *TasksHandler) complete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "customerID"))
	if err != nil {
		http.Error(w, "invalid customer id", http.StatusBadRequest)
		return
	}

	tx, err := h.planner.Complete(r.Context(), id)
	switch {
	case errors.Is(err, schedule.ErrAlreadyDone):
		http.Error(w, "already completed today", http.StatusConflict)
		return
	case errors.Is(err, schedule.ErrNotScheduled):
		http.Error(w, "customer not scheduled today", http.StatusUnprocessableEntity)
		return
	case errors.Is(err, schedule.ErrProductNotFound):
		http.Error(w, "scheduled product not found", http.StatusUnprocessableEntity)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(*tx))
}

type completeAllRequest struct {
	CustomerIDs []uuid.UUID `json:"customer_ids"`
}

type completeAllResponse struct {
	Completed int    `json:"completed"`
	Error     string `json:"error,omitempty"`
}

// completeAll posts every requested stop that can be posted. Partial
// failure still returns the successes with the joined error text.
func (h *TasksHandler) completeAll(w http.ResponseWriter, r *http.Request) {
	var req completeAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txs, err := h.planner.CompleteAll(r.Context(), req.CustomerIDs)
	resp := completeAllResponse{Completed: len(txs)}
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, http.StatusMultiStatus, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
