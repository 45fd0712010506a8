package answers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/exam-paper/backend/internal/generator"
	"github.com/exam-paper/backend/internal/models"
)

type fakeLLM struct {
	calls   int
	content string
	err     error
}

func (f *fakeLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (*generator.LLMResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &generator.LLMResponse{Content: f.content}, nil
}

type fakeContexts struct {
	chunks []ContextChunk
	err    error
}

func (f *fakeContexts) Retrieve(ctx context.Context, query, namespace string, topK int) ([]ContextChunk, error) {
	return f.chunks, f.err
}

func TestResolveNamespace(t *testing.T) {
	tests := []struct {
		namespace string
		subject   string
		want      string
	}{
		{"Custom KB", "Electrical Engineering", "Custom KB"},
		{"  ", "Mechanical Engineering", "Mechanical Engineering"},
		{"", "Unknown Subject", DefaultNamespace},
		{"", "", DefaultNamespace},
	}
	for _, tt := range tests {
		if got := ResolveNamespace(tt.namespace, tt.subject); got != tt.want {
			t.Errorf("ResolveNamespace(%q, %q) = %q, want %q", tt.namespace, tt.subject, got, tt.want)
		}
	}
}

func TestGenerateAnswers(t *testing.T) {
	llm := &fakeLLM{content: "The slip is 0.04, giving a rotor frequency of 2 Hz."}
	service := NewService(llm, nil)

	questions := []models.GeneratedQuestion{
		{Concept: "Induction Machines", Difficulty: models.DifficultyMedium, Question: "Find the slip?"},
		{Concept: "Transformers", Difficulty: models.DifficultyEasy, Question: "Find the turns ratio?"},
	}

	answers, err := service.GenerateAnswers(context.Background(), questions, DefaultNamespace)
	if err != nil {
		t.Fatal(err)
	}

	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(answers))
	}
	if llm.calls != 2 {
		t.Errorf("llm called %d times", llm.calls)
	}
	for i, a := range answers {
		if a.Concept != questions[i].Concept || a.Question != questions[i].Question {
			t.Errorf("answer %d lost its question: %+v", i, a)
		}
		if a.Answer != llm.content {
			t.Errorf("answer %d text %q", i, a.Answer)
		}
		if a.ContextRetrieved {
			t.Errorf("answer %d claims retrieved context with no retriever", i)
		}
	}
}

func TestGenerateAnswersEmbedsPerQuestionFailures(t *testing.T) {
	llm := &fakeLLM{err: errors.New("rate limited")}
	service := NewService(llm, nil)

	answers, err := service.GenerateAnswers(context.Background(), []models.GeneratedQuestion{
		{Concept: "Transformers", Question: "Find the turns ratio?"},
	}, DefaultNamespace)
	if err != nil {
		t.Fatalf("per-question failures must not abort the batch: %v", err)
	}

	if len(answers) != 1 {
		t.Fatalf("expected 1 answer, got %d", len(answers))
	}
	if !strings.Contains(answers[0].Answer, "Error generating answer") {
		t.Errorf("failure not embedded: %q", answers[0].Answer)
	}
}

func TestGenerateAnswersRequiresBackend(t *testing.T) {
	service := NewService(nil, nil)
	if _, err := service.GenerateAnswers(context.Background(), nil, DefaultNamespace); err == nil {
		t.Fatal("expected error with no backend")
	}
}

func TestRetrieveContextFormatsAndBounds(t *testing.T) {
	contexts := &fakeContexts{chunks: []ContextChunk{
		{Text: "Slip is defined as the relative speed difference.", Source: "textbook.pdf", Topic: "Induction Machines", Score: 0.9123},
		{Text: ""},
		{Text: strings.Repeat("x", maxContextChars)},
		{Text: "never reached"},
	}}
	service := NewService(&fakeLLM{content: "ok"}, contexts)

	block := service.retrieveContext(context.Background(), "Find the slip?", DefaultNamespace)

	if !strings.HasPrefix(block, "RETRIEVED CONTEXT:") {
		t.Fatalf("block header missing: %q", block)
	}
	if !strings.Contains(block, "[Source 1: textbook.pdf | Topic: Induction Machines] (score=0.9123)") {
		t.Error("chunk label malformed")
	}
	if strings.Contains(block, "never reached") {
		t.Error("char budget not enforced")
	}
}

func TestRetrieveContextDegradesOnFailure(t *testing.T) {
	service := NewService(&fakeLLM{content: "ok"}, &fakeContexts{err: errors.New("index offline")})

	if block := service.retrieveContext(context.Background(), "Find the slip?", DefaultNamespace); block != "" {
		t.Errorf("expected no context on retrieval failure, got %q", block)
	}
}

func TestBuildAnswerPrompt(t *testing.T) {
	q := models.GeneratedQuestion{
		Concept:    "Induction Machines",
		Difficulty: models.DifficultyHard,
		Question:   "Find the slip?",
	}

	prompt := buildAnswerPrompt(q, "")
	if !strings.Contains(prompt, "No context available") {
		t.Error("empty context should note the missing knowledge base")
	}
	if !strings.Contains(prompt, answerDifficultyGuidance[models.DifficultyHard]) {
		t.Error("difficulty guidance missing")
	}
	if !strings.HasSuffix(prompt, "ANSWER:") {
		t.Error("prompt should end with the answer cue")
	}

	prompt = buildAnswerPrompt(models.GeneratedQuestion{Difficulty: "???", Question: "q"}, "RETRIEVED CONTEXT:\n\nsome text")
	if !strings.Contains(prompt, answerDifficultyGuidance[models.DifficultyMedium]) {
		t.Error("unknown difficulty should fall back to medium guidance")
	}
	if !strings.Contains(prompt, "some text") {
		t.Error("context block dropped")
	}
}
