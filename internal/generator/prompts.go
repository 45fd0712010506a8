package generator

import (
	"fmt"
	"strings"

	"github.com/exam-paper/backend/internal/models"
)

var difficultyGuidelines = map[models.Difficulty]string{
	models.DifficultyEasy: "Single-step conceptual recall or simple numeric substitution. " +
		"Provide one clear data point or condition so the question is answerable.",
	models.DifficultyMedium: "Incorporate 2-3 reasoning steps, blending theory with calculation or reasoning. " +
		"State any required assumptions explicitly.",
	models.DifficultyHard: "Require multi-step reasoning or analysis of interacting phenomena. " +
		"Include realistic parameter values and constraints to guide problem solving.",
}

func questionSystemPrompt(subject string) string {
	if subject == "" {
		subject = "Engineering"
	}
	return fmt.Sprintf("You are a strict GATE %s examiner.", subject)
}

// BuildQuestionPrompt renders the single-question generation prompt for a
// concept/difficulty/subject triple.
func BuildQuestionPrompt(concept string, difficulty models.Difficulty, subject string) string {
	subjectLabel := subject
	if subjectLabel == "" {
		subjectLabel = "Engineering"
	}

	guideline := difficultyGuidelines[difficulty]
	if guideline == "" {
		guideline = difficultyGuidelines[models.DifficultyMedium]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are an expert GATE %s question setter.\n\n", subjectLabel))
	sb.WriteString("TASK:\n")
	sb.WriteString(fmt.Sprintf("Generate ONE exam-quality GATE %s question.\n\n", subjectLabel))
	sb.WriteString("CONSTRAINTS:\n")
	sb.WriteString(fmt.Sprintf("- Concept: %s\n", concept))
	sb.WriteString(fmt.Sprintf("- Difficulty: %s\n", difficulty))
	sb.WriteString(fmt.Sprintf("- %s\n", guideline))
	sb.WriteString(fmt.Sprintf("- Syllabus strictly limited to %s (GATE level)\n", subjectLabel))
	sb.WriteString("- Target length: 45-120 words. Provide enough context, numeric values, and conditions so the question is self-contained.\n")
	sb.WriteString("- Do NOT include solution\n")
	sb.WriteString("- Do NOT include explanation\n")
	sb.WriteString("- Do NOT include multiple questions\n")
	sb.WriteString("- Do NOT mention marks explicitly\n")
	sb.WriteString("- Use standard GATE exam language\n\n")
	sb.WriteString("STRUCTURE:\n")
	sb.WriteString("- Begin with a concise scenario or set of givens before the actual interrogative.\n")
	sb.WriteString("- End with a single question sentence.\n")
	sb.WriteString("- Avoid bullet lists; write as a short paragraph.\n\n")
	sb.WriteString("OUTPUT:\n")
	sb.WriteString("Return ONLY the question text.\n\n")
	sb.WriteString("QUESTION:")

	return sb.String()
}

// sanitizeQuestionText strips the wrapping an LLM sometimes adds around the
// bare question: code fences, surrounding quotes, and a leading label.
func sanitizeQuestionText(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.Index(s, "\n"); idx >= 0 && !strings.ContainsAny(s[:idx], " \t") {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	for _, label := range []string{"QUESTION:", "Question:"} {
		if strings.HasPrefix(s, label) {
			s = strings.TrimSpace(strings.TrimPrefix(s, label))
		}
	}
	return s
}

// extractPromptField pulls a "- Key: value" line back out of a prompt. Used
// by the mock backend to echo the requested concept.
func extractPromptField(prompt, key string) string {
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimPrefix(strings.TrimSpace(line), "- ")
		if strings.HasPrefix(line, key) {
			return strings.TrimSpace(strings.TrimPrefix(line, key))
		}
	}
	return ""
}
