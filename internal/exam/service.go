package exam

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/exam-paper/backend/internal/graph"
	"github.com/exam-paper/backend/internal/models"
)

// ValidationError marks a request rejected before any generation work began:
// unknown subject, unknown topic, out-of-range parameters. Handlers map it
// to a client error.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Service is the orchestration facade over blueprint building and paper
// assembly. Input validation errors propagate; everything that goes wrong
// after validation degrades to a placeholder paper instead of failing.
type Service struct {
	retriever graph.ConceptRetriever
	builder   *BlueprintBuilder
	workflow  *Workflow
	validator *Validator
	store     *Store
}

// NewService wires the facade. store may be nil when paper history is not
// persisted.
func NewService(retriever graph.ConceptRetriever, builder *BlueprintBuilder, workflow *Workflow, validator *Validator, store *Store) *Service {
	return &Service{
		retriever: retriever,
		builder:   builder,
		workflow:  workflow,
		validator: validator,
		store:     store,
	}
}

// GenerateExam validates the request, plans a blueprint, runs the assembly
// workflow, and falls back to placeholder questions when assembly yields
// nothing. The returned distribution always reflects the blueprint's
// intended allocation, not the realized yield — that asymmetry is the
// documented contract.
func (s *Service) GenerateExam(ctx context.Context, req models.GenerateExamRequest) (*models.GenerateExamResponse, error) {
	if req.TotalQuestions < 1 || req.TotalQuestions > 120 {
		return nil, validationErrorf("total_questions must be between 1 and 120")
	}
	if req.CutoffYear < 2000 {
		return nil, validationErrorf("cutoff_year must be 2000 or later")
	}
	if strings.TrimSpace(req.Subject) == "" {
		return nil, validationErrorf("subject is required")
	}

	subject, err := s.resolveSubject(ctx, req.Subject)
	if err != nil {
		return nil, err
	}

	topics, err := s.resolveTopics(ctx, subject, req.Topics)
	if err != nil {
		return nil, err
	}

	blueprint, err := s.builder.Build(ctx, req.TotalQuestions, req.CutoffYear, subject.ID, req.Topics)
	if err != nil {
		return nil, fmt.Errorf("build blueprint: %w", err)
	}

	questions, degraded := s.assemble(ctx, blueprint, subject.Name)

	response := &models.GenerateExamResponse{
		TotalQuestions: len(questions),
		Distribution:   blueprint.Distribution,
		Questions:      questions,
		SubjectID:      subject.ID,
		SubjectName:    subject.Name,
		Topics:         topics,
		Degraded:       degraded,
	}

	s.savePaper(ctx, req.CutoffYear, subject, blueprint, response)

	return response, nil
}

// assemble runs the workflow and decides success vs. degraded exactly once.
// A workflow error or an empty yield both produce the placeholder paper: one
// synthetic question per blueprint item, so the caller still receives the
// allocation it asked for.
func (s *Service) assemble(ctx context.Context, blueprint *models.Blueprint, subjectName string) ([]models.GeneratedQuestion, bool) {
	questions, err := s.workflow.Run(ctx, blueprint)
	if err != nil {
		log.Printf("Paper assembly failed, degrading to placeholders: %v", err)
		questions = nil
	}
	if len(questions) > 0 {
		return questions, false
	}

	placeholders := make([]models.GeneratedQuestion, 0, len(blueprint.Questions))
	for _, item := range blueprint.Questions {
		placeholders = append(placeholders, models.GeneratedQuestion{
			Concept:    item.Concept,
			Difficulty: item.Difficulty,
			Question: fmt.Sprintf(
				"Describe a question on %s appropriate for %s level candidates in %s.",
				item.Concept, item.Difficulty, subjectName),
		})
	}
	return placeholders, true
}

// resolveSubject matches the requested subject against the provisioned set,
// case-insensitively, by identifier or display name.
func (s *Service) resolveSubject(ctx context.Context, requested string) (models.SubjectInfo, error) {
	subjects, err := s.retriever.ListSubjects(ctx)
	if err != nil {
		return models.SubjectInfo{}, fmt.Errorf("list subjects: %w", err)
	}
	if len(subjects) == 0 {
		return models.SubjectInfo{}, validationErrorf("no subjects are provisioned")
	}

	needle := strings.ToLower(strings.TrimSpace(requested))
	for _, subject := range subjects {
		if strings.ToLower(subject.ID) == needle || strings.ToLower(subject.Name) == needle {
			return subject, nil
		}
	}
	return models.SubjectInfo{}, validationErrorf("no such subject: %s", requested)
}

// resolveTopics checks every requested topic against the subject's known
// set and reports all unknown names at once. An empty request means all
// known topics.
func (s *Service) resolveTopics(ctx context.Context, subject models.SubjectInfo, requested []string) ([]string, error) {
	known, err := s.retriever.ListTopics(ctx, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}

	if len(requested) == 0 {
		return known, nil
	}

	knownSet := make(map[string]bool, len(known))
	for _, topic := range known {
		knownSet[topic] = true
	}

	var unknown []string
	for _, topic := range requested {
		if !knownSet[topic] {
			unknown = append(unknown, topic)
		}
	}
	if len(unknown) > 0 {
		return nil, validationErrorf("unknown topics for %s: %s", subject.Name, strings.Join(unknown, ", "))
	}
	return requested, nil
}

// savePaper records the generated paper best-effort; history must never
// block or fail a generation request.
func (s *Service) savePaper(ctx context.Context, cutoffYear int, subject models.SubjectInfo, blueprint *models.Blueprint, resp *models.GenerateExamResponse) {
	if s.store == nil {
		return
	}
	paper := &models.ExamPaper{
		SubjectID:      subject.ID,
		SubjectName:    subject.Name,
		TotalQuestions: len(resp.Questions),
		HighFrequency:  blueprint.Distribution[StrategyHighFrequency],
		RecencyGap:     blueprint.Distribution[StrategyRecencyGap],
		NeverAsked:     blueprint.Distribution[StrategyNeverAsked],
		CutoffYear:     cutoffYear,
		Degraded:       resp.Degraded,
		Questions:      resp.Questions,
	}
	if err := s.store.SavePaper(ctx, paper); err != nil {
		log.Printf("WARN: failed to save paper history: %v", err)
	}
}

// ── Verification / listing passthroughs ─────────────────

// VerifyQuestions runs the rule validator over caller-supplied questions.
func (s *Service) VerifyQuestions(questions []models.GeneratedQuestion) *models.VerifyQuestionsResponse {
	results := make([]models.QuestionVerification, 0, len(questions))
	validCount := 0

	for _, q := range questions {
		verdict := s.validator.Validate(q)
		if verdict.Valid {
			validCount++
		}
		results = append(results, models.QuestionVerification{
			Concept:    q.Concept,
			Difficulty: q.Difficulty,
			Question:   q.Question,
			Valid:      verdict.Valid,
			Reason:     verdict.Reason,
		})
	}

	return &models.VerifyQuestionsResponse{
		Total:   len(results),
		Valid:   validCount,
		Invalid: len(results) - validCount,
		Results: results,
	}
}

func (s *Service) ListSubjects(ctx context.Context) ([]models.SubjectInfo, error) {
	return s.retriever.ListSubjects(ctx)
}

func (s *Service) ListTopics(ctx context.Context, subjectID string) ([]string, error) {
	return s.retriever.ListTopics(ctx, subjectID)
}
