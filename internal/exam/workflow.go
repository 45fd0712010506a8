package exam

import (
	"context"
	"fmt"
	"log"

	"github.com/exam-paper/backend/internal/models"
)

// MaxRetries bounds the regenerate+validate loop. Combined with the batch
// size this caps total generator invocations for a request.
const MaxRetries = 2

// QuestionGenerator is the text-generation boundary the workflow drives.
type QuestionGenerator interface {
	Generate(ctx context.Context, concept string, difficulty models.Difficulty, subject string) (models.GeneratedQuestion, error)
}

// WorkflowState is the request-scoped state threaded through the assembly
// steps. Questions holds the current generation batch, FinalQuestions
// accumulates accepted questions across rounds, and FailedQuestions holds
// only the latest round's rejects.
type WorkflowState struct {
	TotalQuestions  int
	CutoffYear      int
	Blueprint       *models.Blueprint
	Questions       []models.GeneratedQuestion
	FinalQuestions  []models.GeneratedQuestion
	FailedQuestions []models.GeneratedQuestion
	RetryCount      int
}

// retryDecision is the outcome of the post-validation branch.
type retryDecision int

const (
	decisionRegenerate retryDecision = iota
	decisionFinalize
)

// Workflow drives generate → validate → (regenerate | finalize) for one
// blueprint. The Workflow value itself is immutable after construction and
// safe to share across concurrent requests; all per-request state lives in
// the WorkflowState each Run creates.
type Workflow struct {
	generator QuestionGenerator
	validator *Validator
}

func NewWorkflow(generator QuestionGenerator, validator *Validator) *Workflow {
	return &Workflow{generator: generator, validator: validator}
}

// Run assembles the paper planned by blueprint. Questions that never pass
// validation within the retry budget are dropped, so the result may be
// shorter than the blueprint. Generator errors abort the run and propagate;
// containment is the caller's job.
func (w *Workflow) Run(ctx context.Context, blueprint *models.Blueprint) ([]models.GeneratedQuestion, error) {
	state := &WorkflowState{
		TotalQuestions: blueprint.TotalQuestions,
		Blueprint:      blueprint,
	}

	if err := w.generateQuestions(ctx, state); err != nil {
		return nil, err
	}

	for {
		w.validateQuestions(state)

		switch w.decideRetry(state) {
		case decisionFinalize:
			return w.finalizePaper(state), nil
		case decisionRegenerate:
			if err := w.regenerateFailed(ctx, state); err != nil {
				return nil, err
			}
		}
	}
}

// generateQuestions fills the working set with one question per blueprint
// item, issued sequentially.
func (w *Workflow) generateQuestions(ctx context.Context, state *WorkflowState) error {
	questions := make([]models.GeneratedQuestion, 0, len(state.Blueprint.Questions))
	for _, item := range state.Blueprint.Questions {
		q, err := w.generator.Generate(ctx, item.Concept, item.Difficulty, state.Blueprint.Subject)
		if err != nil {
			return fmt.Errorf("generate questions: %w", err)
		}
		questions = append(questions, q)
	}
	state.Questions = questions
	return nil
}

// validateQuestions splits the working set into accepted and rejected.
// Accepted questions are appended to the cumulative FinalQuestions; rejects
// replace FailedQuestions wholesale so only the latest round is retried.
func (w *Workflow) validateQuestions(state *WorkflowState) {
	var failed []models.GeneratedQuestion
	for _, q := range state.Questions {
		verdict := w.validator.Validate(q)
		if verdict.Valid {
			state.FinalQuestions = append(state.FinalQuestions, q)
		} else {
			q.ValidationError = verdict.Reason
			failed = append(failed, q)
		}
	}
	state.FailedQuestions = failed
}

// decideRetry picks the branch after a validation round.
func (w *Workflow) decideRetry(state *WorkflowState) retryDecision {
	if len(state.FailedQuestions) > 0 && state.RetryCount < MaxRetries {
		return decisionRegenerate
	}
	return decisionFinalize
}

// regenerateFailed re-requests every failed slot from its original concept
// and difficulty, replacing the working set so the next validation round
// only sees the regenerated subset.
func (w *Workflow) regenerateFailed(ctx context.Context, state *WorkflowState) error {
	if state.RetryCount >= MaxRetries || len(state.FailedQuestions) == 0 {
		return nil
	}

	regenerated := make([]models.GeneratedQuestion, 0, len(state.FailedQuestions))
	for _, failed := range state.FailedQuestions {
		q, err := w.generator.Generate(ctx, failed.Concept, failed.Difficulty, state.Blueprint.Subject)
		if err != nil {
			return fmt.Errorf("regenerate questions: %w", err)
		}
		regenerated = append(regenerated, q)
	}

	state.Questions = regenerated
	state.RetryCount++
	return nil
}

// finalizePaper is the terminal step: it emits the accumulator unchanged.
func (w *Workflow) finalizePaper(state *WorkflowState) []models.GeneratedQuestion {
	if len(state.FailedQuestions) > 0 {
		log.Printf("Paper finalized with %d question(s) dropped after %d retries",
			len(state.FailedQuestions), state.RetryCount)
	}
	return state.FinalQuestions
}
