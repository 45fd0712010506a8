package generator

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/exam-paper/backend/internal/models"
)

// LLMClient is the interface every text-generation backend satisfies.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// Generator wraps an LLMClient and produces single exam questions for a
// concept/difficulty/subject triple.
type Generator struct {
	llm   LLMClient
	model string
}

// NewGenerator picks a backend from the environment. LLM_BACKEND selects
// "anthropic", "openai", "groq", or "mock"; unset defaults to anthropic.
func NewGenerator() *Generator {
	backend := os.Getenv("LLM_BACKEND")

	var llm LLMClient
	var model string

	switch backend {
	case "mock":
		llm = NewMockClient()
		model = "mock"
		log.Println("Generator using mock data")
	case "openai":
		model = os.Getenv("OPENAI_MODEL")
		if model == "" {
			model = "gpt-4o"
		}
		llm = NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_BASE_URL"), model)
		log.Println("Generator using OpenAI API:", model)
	case "groq":
		model = os.Getenv("GROQ_MODEL_NAME")
		if model == "" {
			model = "llama-3.3-70b-versatile"
		}
		llm = NewOpenAIClient(os.Getenv("GROQ_API_KEY"), groqBaseURL, model)
		log.Println("Generator using Groq API:", model)
	default:
		model = os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-sonnet-4-5-20250929"
		}
		llm = NewAPIClient(model)
		log.Println("Generator using Anthropic API:", model)
	}

	return &Generator{llm: llm, model: model}
}

// NewGeneratorWithClient builds a Generator around an explicit client.
func NewGeneratorWithClient(llm LLMClient, model string) *Generator {
	return &Generator{llm: llm, model: model}
}

func (g *Generator) ModelName() string {
	return g.model
}

// Client exposes the underlying LLM client for collaborators that need raw
// text generation, such as the answer service.
func (g *Generator) Client() LLMClient {
	return g.llm
}

// Generate produces one exam question for the concept at the requested
// difficulty. The returned question carries the inputs back so callers can
// re-request the same slot after a validation rejection.
func (g *Generator) Generate(ctx context.Context, concept string, difficulty models.Difficulty, subject string) (models.GeneratedQuestion, error) {
	userPrompt := BuildQuestionPrompt(concept, difficulty, subject)

	resp, err := g.llm.Generate(ctx, questionSystemPrompt(subject), userPrompt)
	if err != nil {
		return models.GeneratedQuestion{}, fmt.Errorf("generate question for %q: %w", concept, err)
	}

	return models.GeneratedQuestion{
		Concept:    concept,
		Difficulty: difficulty,
		Question:   sanitizeQuestionText(resp.Content),
	}, nil
}

// ── APIClient — Anthropic SDK (Production) ─────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   512,
		Temperature: param.NewOpt(0.35),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("Retrying Anthropic API call in %v (attempt %d)", sleepDuration, attempt+1)
			time.Sleep(sleepDuration)
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Printf("Anthropic API attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient — Local Development ─────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	return &LLMResponse{
		Content:      buildMockQuestion(userPrompt),
		PromptTokens: 250,
		OutputTokens: 90,
	}, nil
}

func buildMockQuestion(userPrompt string) string {
	concept := extractPromptField(userPrompt, "Concept: ")
	if concept == "" {
		concept = "the stated concept"
	}
	return fmt.Sprintf(
		"[Mock] A test bench built around %s is operated under steady conditions with the supply held at 230 V "+
			"and the load drawing 4.2 A at a power factor of 0.85 lagging. Taking the stated values as exact and "+
			"treating all instruments as ideal, determine the quantity that characterises %s under these operating "+
			"conditions, stating any assumptions you make along the way?",
		concept, concept,
	)
}
