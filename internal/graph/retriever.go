package graph

import (
	"context"

	"github.com/exam-paper/backend/internal/models"
)

// ScoredConcept is a concept ranked by how often it has appeared in past
// papers.
type ScoredConcept struct {
	Concept string `json:"concept"`
	Score   int64  `json:"score"`
}

// StaleConcept is a concept whose most recent appearance is at or before a
// cutoff year. LastAsked is nil when the concept came from the syllabus
// fallback rather than question history.
type StaleConcept struct {
	Concept   string `json:"concept"`
	LastAsked *int   `json:"last_asked,omitempty"`
}

// Concept is a bare concept name, used for concepts with no question history.
type Concept struct {
	Concept string `json:"concept"`
}

// ConceptRetriever is the read-only boundary the paper-assembly core uses to
// pull concepts out of the knowledge graph. Implementations own their own
// connection handling; all methods are safe for concurrent use.
type ConceptRetriever interface {
	// HighFrequency returns concepts ranked by historical appearance count,
	// most frequent first.
	HighFrequency(ctx context.Context, subject string, topics []string, limit int) ([]ScoredConcept, error)

	// RecencyGap returns concepts whose latest appearance year is at or
	// before cutoffYear, stalest first.
	RecencyGap(ctx context.Context, subject string, topics []string, cutoffYear, limit int) ([]StaleConcept, error)

	// NeverAsked returns concepts with zero historical appearances, in no
	// particular order.
	NeverAsked(ctx context.Context, subject string, topics []string, limit int) ([]Concept, error)

	ListSubjects(ctx context.Context) ([]models.SubjectInfo, error)
	ListTopics(ctx context.Context, subjectID string) ([]string, error)
}
