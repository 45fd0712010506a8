package exam

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/exam-paper/backend/internal/graph"
	"github.com/exam-paper/backend/internal/models"
)

// Rationale strings recorded on each blueprint item. These travel to the
// caller unchanged, so they stay human-readable.
const (
	ReasonHighFrequency = "High frequency in PYQs"
	ReasonRecencyGap    = "Not asked recently"
	ReasonNeverAsked    = "Never asked in PYQs"
)

// Distribution keys reported to callers.
const (
	StrategyHighFrequency = "high_frequency"
	StrategyRecencyGap    = "recency_gap"
	StrategyNeverAsked    = "never_asked"
)

// BlueprintBuilder plans one paper: it splits the requested question count
// across the three retrieval strategies, pulls concepts for each slice, and
// assigns a difficulty to every slot. Pure over the retriever's responses.
type BlueprintBuilder struct {
	retriever graph.ConceptRetriever

	// randFloat is swapped out in tests for a deterministic source.
	randFloat func() float64
}

func NewBlueprintBuilder(retriever graph.ConceptRetriever) *BlueprintBuilder {
	return &BlueprintBuilder{
		retriever: retriever,
		randFloat: rand.Float64,
	}
}

// Build produces the blueprint for a paper of total questions. The split is
// 50% high-frequency, 30% recency-gap, with the remainder absorbing rounding
// so the three counts always sum to total. Strategies that under-return
// simply shorten the blueprint; there is no padding.
func (b *BlueprintBuilder) Build(ctx context.Context, total, cutoffYear int, subject string, topics []string) (*models.Blueprint, error) {
	hfCount := total * 5 / 10
	rgCount := total * 3 / 10
	naCount := total - hfCount - rgCount

	highFreq, err := b.retriever.HighFrequency(ctx, subject, topics, hfCount)
	if err != nil {
		return nil, fmt.Errorf("retrieve high-frequency concepts: %w", err)
	}
	recencyGap, err := b.retriever.RecencyGap(ctx, subject, topics, cutoffYear, rgCount)
	if err != nil {
		return nil, fmt.Errorf("retrieve recency-gap concepts: %w", err)
	}
	neverAsked, err := b.retriever.NeverAsked(ctx, subject, topics, naCount)
	if err != nil {
		return nil, fmt.Errorf("retrieve never-asked concepts: %w", err)
	}

	items := make([]models.BlueprintItem, 0, len(highFreq)+len(recencyGap)+len(neverAsked))
	for _, c := range highFreq {
		items = append(items, models.BlueprintItem{
			Concept:    c.Concept,
			Difficulty: b.drawDifficulty(),
			Reason:     ReasonHighFrequency,
		})
	}
	for _, c := range recencyGap {
		items = append(items, models.BlueprintItem{
			Concept:    c.Concept,
			Difficulty: b.drawDifficulty(),
			Reason:     ReasonRecencyGap,
		})
	}
	for _, c := range neverAsked {
		items = append(items, models.BlueprintItem{
			Concept:    c.Concept,
			Difficulty: b.drawDifficulty(),
			Reason:     ReasonNeverAsked,
		})
	}

	return &models.Blueprint{
		TotalQuestions: total,
		Distribution: map[string]int{
			StrategyHighFrequency: hfCount,
			StrategyRecencyGap:    rgCount,
			StrategyNeverAsked:    naCount,
		},
		Questions: items,
		Subject:   subject,
	}, nil
}

// drawDifficulty draws Easy with p=0.3, Medium with p=0.5, Hard with p=0.2.
func (b *BlueprintBuilder) drawDifficulty() models.Difficulty {
	r := b.randFloat()
	switch {
	case r < 0.3:
		return models.DifficultyEasy
	case r < 0.8:
		return models.DifficultyMedium
	default:
		return models.DifficultyHard
	}
}
