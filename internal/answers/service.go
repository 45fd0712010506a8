package answers

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/exam-paper/backend/internal/generator"
	"github.com/exam-paper/backend/internal/models"
)

const (
	// DefaultNamespace is the knowledge-base namespace used when neither an
	// explicit namespace nor a mapped subject is supplied.
	DefaultNamespace = "Electrical Engineering"

	defaultTopK     = 5
	maxContextChars = 4000
)

// SubjectNamespaceMap routes a subject display name to its knowledge-base
// namespace.
var SubjectNamespaceMap = map[string]string{
	"Civil Engineering":                         "Civil Engineering",
	"Chemical Engineering":                      "Chemical Engineering",
	"Computer Science Engineering":              "Computer Science Engineering",
	"Electronics and Communication Engineering": "Electronics and Communication Engineering",
	"Electrical Engineering":                    "Electrical Engineering",
	"Mechanical Engineering":                    "Mechanical Engineering",
	"Metallurgical Engineering":                 "Metallurgical Engineering",
}

// ContextChunk is one passage of reference material retrieved for a
// question.
type ContextChunk struct {
	Text   string
	Source string
	Topic  string
	Score  float64
}

// ContextRetriever is the semantic-search boundary. Implementations own
// embedding and index access; the answer service only consumes ranked text.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query, namespace string, topK int) ([]ContextChunk, error)
}

// Service produces worked answers for already-generated questions. Context
// retrieval is best-effort: when the retriever is absent or fails, answers
// are generated from the model alone.
type Service struct {
	llm      generator.LLMClient
	contexts ContextRetriever
}

func NewService(llm generator.LLMClient, contexts ContextRetriever) *Service {
	return &Service{llm: llm, contexts: contexts}
}

// ResolveNamespace picks the namespace for a request: explicit namespace
// first, then the subject mapping, then the default.
func ResolveNamespace(namespace, subject string) string {
	if ns := strings.TrimSpace(namespace); ns != "" {
		return ns
	}
	if ns, ok := SubjectNamespaceMap[subject]; ok {
		return ns
	}
	return DefaultNamespace
}

// GenerateAnswers answers each question in order. Per-question model
// failures are embedded in the answer text rather than aborting the batch,
// so one flaky call does not lose the rest of the answer key.
func (s *Service) GenerateAnswers(ctx context.Context, questions []models.GeneratedQuestion, namespace string) ([]models.AnswerItem, error) {
	if s.llm == nil {
		return nil, fmt.Errorf("answer generation backend not configured")
	}

	answers := make([]models.AnswerItem, 0, len(questions))
	for _, q := range questions {
		answers = append(answers, s.generateAnswer(ctx, q, namespace))
	}
	return answers, nil
}

func (s *Service) generateAnswer(ctx context.Context, q models.GeneratedQuestion, namespace string) models.AnswerItem {
	contextBlock := s.retrieveContext(ctx, q.Question, namespace)
	prompt := buildAnswerPrompt(q, contextBlock)

	answerText := ""
	resp, err := s.llm.Generate(ctx, answerSystemPrompt, prompt)
	if err != nil {
		log.Printf("WARN: answer generation failed for %q: %v", q.Concept, err)
		answerText = fmt.Sprintf("Error generating answer: %v", err)
	} else {
		answerText = strings.TrimSpace(resp.Content)
	}
	if answerText == "" {
		answerText = "Unable to generate answer."
	}

	return models.AnswerItem{
		Concept:          q.Concept,
		Difficulty:       q.Difficulty,
		Question:         q.Question,
		Answer:           answerText,
		ContextRetrieved: contextBlock != "",
	}
}

// retrieveContext queries the knowledge base and formats the matches into a
// bounded context block. Any failure degrades to no context.
func (s *Service) retrieveContext(ctx context.Context, question, namespace string) string {
	if s.contexts == nil {
		return ""
	}

	chunks, err := s.contexts.Retrieve(ctx, question, namespace, defaultTopK)
	if err != nil {
		log.Printf("WARN: context retrieval failed: %v", err)
		return ""
	}

	var sections []string
	totalChars := 0
	for i, chunk := range chunks {
		if chunk.Text == "" {
			continue
		}
		remaining := maxContextChars - totalChars
		if remaining <= 0 {
			break
		}
		text := chunk.Text
		if len(text) > remaining {
			text = text[:remaining]
		}

		source := chunk.Source
		if source == "" {
			source = "Unknown"
		}
		label := fmt.Sprintf("[Source %d: %s | Topic: %s] (score=%.4f)", i+1, source, chunk.Topic, chunk.Score)
		sections = append(sections, label+"\n"+text)
		totalChars += len(text)
	}

	if len(sections) == 0 {
		return ""
	}
	return "RETRIEVED CONTEXT:\n\n" + strings.Join(sections, "\n\n")
}

const answerSystemPrompt = "You are an expert engineering tutor preparing answer keys for GATE exam questions."

var answerDifficultyGuidance = map[models.Difficulty]string{
	models.DifficultyEasy:   "Provide a clear, concise answer with basic explanation.",
	models.DifficultyMedium: "Provide a detailed answer with step-by-step working if applicable.",
	models.DifficultyHard:   "Provide a comprehensive answer with deep analysis and multiple approaches if applicable.",
}

func buildAnswerPrompt(q models.GeneratedQuestion, contextBlock string) string {
	guidance, ok := answerDifficultyGuidance[q.Difficulty]
	if !ok {
		guidance = answerDifficultyGuidance[models.DifficultyMedium]
	}

	if contextBlock == "" {
		contextBlock = "NOTE: No context available from knowledge base."
	}

	var sb strings.Builder
	sb.WriteString("QUESTION:\n")
	sb.WriteString(q.Question)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("CONCEPT: %s\n", q.Concept))
	sb.WriteString(fmt.Sprintf("DIFFICULTY LEVEL: %s\n\n", q.Difficulty))
	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString(fmt.Sprintf("1. %s\n", guidance))
	sb.WriteString("2. Use the retrieved context below to support your answer.\n")
	sb.WriteString("3. Show all calculations and reasoning.\n")
	sb.WriteString("4. If numerical, include units and final boxed answer.\n")
	sb.WriteString("5. Keep answer focused and exam-appropriate.\n\n")
	sb.WriteString(contextBlock)
	sb.WriteString("\n\nANSWER:")
	return sb.String()
}
