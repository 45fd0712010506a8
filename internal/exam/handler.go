package exam

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/exam-paper/backend/internal/models"
)

type Handler struct {
	service *Service
	store   *Store
}

// NewHandler wires the HTTP surface. store may be nil; the history endpoints
// then report that persistence is disabled.
func NewHandler(service *Service, store *Store) *Handler {
	return &Handler{service: service, store: store}
}

func (h *Handler) GenerateExam(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.GenerateExam(r.Context(), req)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: verr.Message})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate exam"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) VerifyQuestions(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	writeJSON(w, http.StatusOK, h.service.VerifyQuestions(req.Questions))
}

func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.service.ListSubjects(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list subjects"})
		return
	}
	writeJSON(w, http.StatusOK, models.SubjectListResponse{Subjects: subjects})
}

func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	subjectID := mux.Vars(r)["id"]

	topics, err := h.service.ListTopics(r.Context(), subjectID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list topics"})
		return
	}

	if len(topics) == 0 {
		if !h.subjectExists(r, subjectID) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Subject '" + subjectID + "' not found"})
			return
		}
	}

	writeJSON(w, http.StatusOK, models.TopicListResponse{Topics: topics})
}

func (h *Handler) subjectExists(r *http.Request, subjectID string) bool {
	subjects, err := h.service.ListSubjects(r.Context())
	if err != nil {
		return false
	}
	for _, subject := range subjects {
		if subject.ID == subjectID {
			return true
		}
	}
	return false
}

// ── Paper history ───────────────────────────────────────

func (h *Handler) ListPapers(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "Paper history is not enabled"})
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	papers, err := h.store.ListPapers(r.Context(), limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list papers"})
		return
	}
	writeJSON(w, http.StatusOK, models.PaperListResponse{Papers: papers})
}

func (h *Handler) GetPaper(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "Paper history is not enabled"})
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid paper id"})
		return
	}

	paper, err := h.store.GetPaper(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Paper not found"})
		return
	}
	writeJSON(w, http.StatusOK, paper)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
