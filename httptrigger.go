package outship

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// NewTriggerHandler exposes the trigger over HTTP:
//
//	GET|POST /jobs?action=sync-work-orders&id=123  submit a job
//	GET      /jobs/{id}                            fetch a job
func NewTriggerHandler(trigger *Trigger, queue JobQueue, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &triggerHandler{trigger: trigger, queue: queue, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs", h.submit)
	mux.HandleFunc("/jobs/", h.get)
	return mux
}

type triggerHandler struct {
	trigger *Trigger
	queue   JobQueue
	logger  *zap.Logger
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *triggerHandler) submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	if err := r.ParseForm(); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	out, err := h.trigger.Submit(r.Context(), &SubmitJobInput{
		Action:     r.Form.Get("action"),
		DocumentID: r.Form.Get("id"),
	})
	if err != nil {
		h.logger.Warn("job submission rejected", zap.String("action", r.Form.Get("action")), zap.Error(err))
		h.writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusAccepted, submitResponse{JobID: out.Job.ID})
}

func (h *triggerHandler) get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: IDNotProvidedError{}.Error()})
		return
	}
	job, err := h.queue.GetJob(r.Context(), id)
	if err != nil {
		h.writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

func (h *triggerHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

func statusFor(err error) int {
	var (
		invalidAction InvalidActionError
		invalidID     InvalidIDError
		notProvided   IDNotProvidedError
		notFound      IDNotFoundError
		duplicated    IDDuplicatedError
	)
	switch {
	case errors.As(err, &invalidAction), errors.As(err, &invalidID), errors.As(err, &notProvided):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &duplicated):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
