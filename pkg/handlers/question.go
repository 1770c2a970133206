package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ontostock/ontostock-engine/pkg/apperrors"
	"github.com/ontostock/ontostock-engine/pkg/services"
)

// QuestionRequest is the request body for the question endpoints.
type QuestionRequest struct {
	Question string `json:"question"`
}

// QuestionHandler exposes the question pipeline over HTTP.
type QuestionHandler struct {
	svc    services.QuestionService
	logger *zap.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(svc services.QuestionService, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the question handler's routes on the given mux.
func (h *QuestionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /process_question", h.ProcessQuestion)
	mux.HandleFunc("POST /api/question", h.Answer)
}

// ProcessQuestion handles POST /process_question requests.
// It runs classification only and returns the template ID with the
// extracted entities, without touching the knowledge base.
func (h *QuestionHandler) ProcessQuestion(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	classification, err := h.svc.Classify(r.Context(), req.Question)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, classification); err != nil {
		h.logger.Error("Failed to encode classification response", zap.Error(err))
	}
}

// Answer handles POST /api/question requests.
// It runs the full pipeline: classification, query generation and,
// when an endpoint is configured, execution.
func (h *QuestionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	answer, err := h.svc.Answer(r.Context(), req.Question)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, answer); err != nil {
		h.logger.Error("Failed to encode answer response", zap.Error(err))
	}
}

func (h *QuestionHandler) decode(w http.ResponseWriter, r *http.Request) (QuestionRequest, bool) {
	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be JSON with a question field")
		return req, false
	}
	return req, true
}

func (h *QuestionHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrEmptyQuestion):
		_ = ErrorResponse(w, http.StatusBadRequest, "empty_question", "question must not be empty")
	case errors.Is(err, apperrors.ErrNoTemplate):
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "no_template", "no template matches the question")
	case errors.Is(err, apperrors.ErrMissingParameter):
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "missing_parameter", err.Error())
	default:
		h.logger.Error("question processing failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to process question")
	}
}
