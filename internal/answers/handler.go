package answers

import (
	"encoding/json"
	"net/http"

	"github.com/exam-paper/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GenerateAnswers(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if len(req.Questions) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "At least one question is required"})
		return
	}

	namespace := ResolveNamespace(req.Namespace, req.Subject)

	answers, err := h.service.GenerateAnswers(r.Context(), req.Questions, namespace)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, models.GenerateAnswersResponse{
		Total:     len(answers),
		Namespace: namespace,
		Answers:   answers,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
