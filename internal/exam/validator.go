package exam

import (
	"regexp"
	"strings"

	"github.com/exam-paper/backend/internal/models"
)

const (
	minQuestionWords = 30
	maxQuestionWords = 320
)

var forbiddenPhrases = []string{
	"solution",
	"explain",
	"explanation",
	"correct answer",
}

// subPartPattern matches parenthesized single letters like "(a)", which
// signal a question split into sub-parts.
var subPartPattern = regexp.MustCompile(`\(\s*[a-z]\s*\)`)

// DefaultBlocklist returns the out-of-domain keywords used when no
// subject-specific blocklist is configured. Tuned for electrical-engineering
// papers, where these terms mark content drifting into other disciplines.
func DefaultBlocklist() []string {
	return []string{
		"chemical",
		"civil engineering",
		"biotechnology",
		"medical",
		"organic chemistry",
	}
}

// Verdict is the outcome of validating one question.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// Validator applies a fixed battery of deterministic rules to a generated
// question. The rule chain is order-sensitive and short-circuits on the
// first failure. Validation is pure: no side effects, same verdict every
// time for the same input.
type Validator struct {
	blocklist []string
}

func NewValidator(blocklist []string) *Validator {
	lowered := make([]string, 0, len(blocklist))
	for _, word := range blocklist {
		lowered = append(lowered, strings.ToLower(word))
	}
	return &Validator{blocklist: lowered}
}

// Validate runs the rule chain over one question.
func (v *Validator) Validate(q models.GeneratedQuestion) Verdict {
	text := strings.TrimSpace(q.Question)

	if appearsMultiQuestion(text) {
		return Verdict{Valid: false, Reason: "Multiple questions detected"}
	}

	words := len(strings.Fields(text))
	if words < minQuestionWords {
		return Verdict{Valid: false, Reason: "Question too short"}
	}
	if words > maxQuestionWords {
		return Verdict{Valid: false, Reason: "Question too long"}
	}

	lowered := strings.ToLower(text)
	for _, phrase := range forbiddenPhrases {
		if strings.Contains(lowered, phrase) {
			return Verdict{Valid: false, Reason: "Contains solution/explanation language"}
		}
	}

	for _, keyword := range v.blocklist {
		if strings.Contains(lowered, keyword) {
			return Verdict{Valid: false, Reason: "Out-of-domain content"}
		}
	}

	if !models.ValidDifficulties[q.Difficulty] {
		return Verdict{Valid: false, Reason: "Unknown difficulty level"}
	}

	return Verdict{Valid: true, Reason: "OK"}
}

func appearsMultiQuestion(text string) bool {
	if strings.Count(text, "?") > 2 {
		return true
	}
	return subPartPattern.MatchString(strings.ToLower(text))
}
