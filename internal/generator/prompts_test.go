package generator

import (
	"context"
	"strings"
	"testing"

	"github.com/exam-paper/backend/internal/models"
)

func TestBuildQuestionPrompt(t *testing.T) {
	prompt := BuildQuestionPrompt("Thevenin's Theorem", models.DifficultyHard, "Electrical Engineering")

	for _, want := range []string{
		"- Concept: Thevenin's Theorem",
		"- Difficulty: Hard",
		"GATE Electrical Engineering",
		"Do NOT include solution",
		"QUESTION:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildQuestionPromptDefaults(t *testing.T) {
	prompt := BuildQuestionPrompt("Laplace Transform", "Impossible", "")

	if !strings.Contains(prompt, "GATE Engineering question setter") {
		t.Error("blank subject should fall back to Engineering")
	}
	// Unknown difficulty falls back to the medium guideline.
	if !strings.Contains(prompt, difficultyGuidelines[models.DifficultyMedium]) {
		t.Error("unknown difficulty should use the medium guideline")
	}
}

func TestSanitizeQuestionText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "What is the slip?", "What is the slip?"},
		{"whitespace", "  What is the slip?\n", "What is the slip?"},
		{"code fence", "```\nWhat is the slip?\n```", "What is the slip?"},
		{"fence with language", "```text\nWhat is the slip?\n```", "What is the slip?"},
		{"surrounding quotes", `"What is the slip?"`, "What is the slip?"},
		{"leading label", "QUESTION: What is the slip?", "What is the slip?"},
		{"lowercase label", "Question: What is the slip?", "What is the slip?"},
		{"label inside fence", "```\nQUESTION: What is the slip?\n```", "What is the slip?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeQuestionText(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractPromptField(t *testing.T) {
	prompt := BuildQuestionPrompt("Signal Flow Graphs", models.DifficultyEasy, "Electrical Engineering")

	if got := extractPromptField(prompt, "Concept: "); got != "Signal Flow Graphs" {
		t.Errorf("concept = %q", got)
	}
	if got := extractPromptField(prompt, "Difficulty: "); got != "Easy" {
		t.Errorf("difficulty = %q", got)
	}
	if got := extractPromptField(prompt, "Absent: "); got != "" {
		t.Errorf("missing key should yield empty, got %q", got)
	}
}

func TestGeneratorUsesClientAndSanitizes(t *testing.T) {
	client := &staticClient{content: "```\nQUESTION: What is the transfer function of the given network?\n```"}
	gen := NewGeneratorWithClient(client, "test-model")

	q, err := gen.Generate(context.Background(), "Transfer Functions", models.DifficultyMedium, "Electrical Engineering")
	if err != nil {
		t.Fatal(err)
	}

	if q.Question != "What is the transfer function of the given network?" {
		t.Errorf("question not sanitized: %q", q.Question)
	}
	if q.Concept != "Transfer Functions" || q.Difficulty != models.DifficultyMedium {
		t.Errorf("inputs not carried back: %+v", q)
	}
	if !strings.Contains(client.lastSystem, "strict GATE Electrical Engineering examiner") {
		t.Errorf("system prompt %q", client.lastSystem)
	}
}

func TestMockClientProducesValidatableQuestion(t *testing.T) {
	gen := NewGeneratorWithClient(NewMockClient(), "mock")

	q, err := gen.Generate(context.Background(), "Power Factor Correction", models.DifficultyMedium, "Electrical Engineering")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(q.Question, "Power Factor Correction") {
		t.Errorf("mock question does not echo concept: %q", q.Question)
	}
	if words := len(strings.Fields(q.Question)); words < 30 {
		t.Errorf("mock question only %d words", words)
	}
	if strings.Count(q.Question, "?") > 2 {
		t.Errorf("mock question has too many question marks: %q", q.Question)
	}
}

type staticClient struct {
	content    string
	lastSystem string
	lastUser   string
}

func (c *staticClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (*LLMResponse, error) {
	c.lastSystem = systemPrompt
	c.lastUser = userPrompt
	return &LLMResponse{Content: c.content, PromptTokens: 100, OutputTokens: 40}, nil
}
