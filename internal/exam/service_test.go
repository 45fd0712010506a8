package exam

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/exam-paper/backend/internal/models"
)

func newTestService(retriever *stubRetriever, gen *scriptedGenerator) *Service {
	validator := NewValidator(DefaultBlocklist())
	return NewService(
		retriever,
		NewBlueprintBuilder(retriever),
		NewWorkflow(gen, validator),
		validator,
		nil,
	)
}

func electricalRetriever() *stubRetriever {
	return &stubRetriever{
		subjects: []models.SubjectInfo{
			{ID: "EE 2026", Name: "Electrical Engineering"},
			{ID: "ME 2026", Name: "Mechanical Engineering"},
		},
		topics: []string{"Electric Circuits", "Electrical Machines", "Power Systems"},
	}
}

func TestGenerateExamEndToEnd(t *testing.T) {
	retriever := electricalRetriever()
	gen := newScriptedGenerator()
	service := newTestService(retriever, gen)

	resp, err := service.GenerateExam(context.Background(), models.GenerateExamRequest{
		Subject:        "Electrical Engineering",
		TotalQuestions: 10,
		CutoffYear:     2020,
	})
	if err != nil {
		t.Fatal(err)
	}

	if resp.TotalQuestions != 10 {
		t.Errorf("total questions %d, want 10", resp.TotalQuestions)
	}
	if resp.Degraded {
		t.Error("paper unexpectedly degraded")
	}
	if resp.SubjectID != "EE 2026" || resp.SubjectName != "Electrical Engineering" {
		t.Errorf("subject resolved to %s/%s", resp.SubjectID, resp.SubjectName)
	}
	if resp.Distribution[StrategyHighFrequency] != 5 ||
		resp.Distribution[StrategyRecencyGap] != 3 ||
		resp.Distribution[StrategyNeverAsked] != 2 {
		t.Errorf("distribution %v, want 5/3/2", resp.Distribution)
	}
	if len(resp.Topics) != 3 {
		t.Errorf("expected all known topics back, got %v", resp.Topics)
	}
	if gen.calls != 10 {
		t.Errorf("generator called %d times, want 10", gen.calls)
	}
}

func TestGenerateExamResolvesSubjectByID(t *testing.T) {
	retriever := electricalRetriever()
	service := newTestService(retriever, newScriptedGenerator())

	resp, err := service.GenerateExam(context.Background(), models.GenerateExamRequest{
		Subject:        "ee 2026",
		TotalQuestions: 2,
		CutoffYear:     2020,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.SubjectName != "Electrical Engineering" {
		t.Errorf("subject name %q", resp.SubjectName)
	}
}

func TestGenerateExamInputValidation(t *testing.T) {
	tests := []struct {
		name string
		req  models.GenerateExamRequest
	}{
		{"zero questions", models.GenerateExamRequest{Subject: "Electrical Engineering", TotalQuestions: 0, CutoffYear: 2020}},
		{"too many questions", models.GenerateExamRequest{Subject: "Electrical Engineering", TotalQuestions: 121, CutoffYear: 2020}},
		{"cutoff too early", models.GenerateExamRequest{Subject: "Electrical Engineering", TotalQuestions: 10, CutoffYear: 1999}},
		{"blank subject", models.GenerateExamRequest{Subject: "  ", TotalQuestions: 10, CutoffYear: 2020}},
		{"unknown subject", models.GenerateExamRequest{Subject: "Astrology", TotalQuestions: 10, CutoffYear: 2020}},
		{"unknown topic", models.GenerateExamRequest{Subject: "Electrical Engineering", TotalQuestions: 10, CutoffYear: 2020, Topics: []string{"Quantum Gravity"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newScriptedGenerator()
			service := newTestService(electricalRetriever(), gen)

			_, err := service.GenerateExam(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if gen.calls != 0 {
				t.Errorf("generator called %d times before validation failed", gen.calls)
			}
		})
	}
}

func TestGenerateExamUnknownTopicNamesAll(t *testing.T) {
	service := newTestService(electricalRetriever(), newScriptedGenerator())

	_, err := service.GenerateExam(context.Background(), models.GenerateExamRequest{
		Subject:        "Electrical Engineering",
		TotalQuestions: 10,
		CutoffYear:     2020,
		Topics:         []string{"Electric Circuits", "Alchemy", "Phrenology"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Alchemy") || !strings.Contains(err.Error(), "Phrenology") {
		t.Errorf("error should name every unknown topic: %v", err)
	}
	if strings.Contains(err.Error(), "Electric Circuits") {
		t.Errorf("error names a known topic: %v", err)
	}
}

func TestGenerateExamDegradesOnGeneratorFailure(t *testing.T) {
	gen := newScriptedGenerator()
	gen.failWith = errors.New("backend unavailable")
	service := newTestService(electricalRetriever(), gen)

	resp, err := service.GenerateExam(context.Background(), models.GenerateExamRequest{
		Subject:        "Electrical Engineering",
		TotalQuestions: 10,
		CutoffYear:     2020,
	})
	if err != nil {
		t.Fatalf("generator failure must not surface: %v", err)
	}

	if !resp.Degraded {
		t.Fatal("expected degraded paper")
	}
	if len(resp.Questions) != 10 {
		t.Fatalf("expected one placeholder per blueprint slot, got %d", len(resp.Questions))
	}
	for _, q := range resp.Questions {
		if !strings.Contains(q.Question, "Electrical Engineering") {
			t.Errorf("placeholder missing subject name: %q", q.Question)
		}
		if !strings.Contains(q.Question, q.Concept) {
			t.Errorf("placeholder missing concept: %q", q.Question)
		}
	}
	// Even degraded papers report the intended allocation.
	if resp.Distribution[StrategyHighFrequency] != 5 {
		t.Errorf("distribution %v, want intended allocation", resp.Distribution)
	}
}

func TestVerifyQuestionsCounts(t *testing.T) {
	service := newTestService(electricalRetriever(), newScriptedGenerator())

	resp := service.VerifyQuestions([]models.GeneratedQuestion{
		{Difficulty: models.DifficultyMedium, Question: wellFormedQuestion},
		{Difficulty: models.DifficultyEasy, Question: "Too short?"},
	})

	if resp.Total != 2 || resp.Valid != 1 || resp.Invalid != 1 {
		t.Errorf("counts total=%d valid=%d invalid=%d", resp.Total, resp.Valid, resp.Invalid)
	}
	if resp.Results[0].Reason != "OK" {
		t.Errorf("first result reason %q", resp.Results[0].Reason)
	}
	if resp.Results[1].Reason != "Question too short" {
		t.Errorf("second result reason %q", resp.Results[1].Reason)
	}
}
