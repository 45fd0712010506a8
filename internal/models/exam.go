package models

import (
	"time"

	"github.com/google/uuid"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

var ValidDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

// BlueprintItem is one planned question slot: which concept to ask about,
// how hard it should be, and why the concept was picked.
type BlueprintItem struct {
	Concept    string     `json:"concept"`
	Difficulty Difficulty `json:"difficulty"`
	Reason     string     `json:"reason"`
}

// Blueprint is the planned allocation for one paper before any text is
// generated. Distribution values always sum to TotalQuestions even when the
// retriever under-returns and Questions comes up short.
type Blueprint struct {
	TotalQuestions int                `json:"total_questions"`
	Distribution   map[string]int     `json:"distribution"`
	Questions      []BlueprintItem    `json:"questions"`
	Subject        string             `json:"subject"`
}

// GeneratedQuestion is one LLM-produced question. ValidationError is set
// only when the question was rejected by the rule validator.
type GeneratedQuestion struct {
	Concept         string     `json:"concept"`
	Difficulty      Difficulty `json:"difficulty"`
	Question        string     `json:"question"`
	ValidationError string     `json:"validation_error,omitempty"`
}

type SubjectInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ── Exam generation API ─────────────────────────────────

type GenerateExamRequest struct {
	Subject        string   `json:"subject"`
	TotalQuestions int      `json:"total_questions"`
	CutoffYear     int      `json:"cutoff_year"`
	Topics         []string `json:"topics,omitempty"`
}

type GenerateExamResponse struct {
	TotalQuestions int                 `json:"total_questions"`
	Distribution   map[string]int      `json:"distribution"`
	Questions      []GeneratedQuestion `json:"questions"`
	SubjectID      string              `json:"subject_id"`
	SubjectName    string              `json:"subject_name"`
	Topics         []string            `json:"topics"`
	Degraded       bool                `json:"degraded"`
}

type SubjectListResponse struct {
	Subjects []SubjectInfo `json:"subjects"`
}

type TopicListResponse struct {
	Topics []string `json:"topics"`
}

// ── Question verification API ───────────────────────────

type VerifyQuestionsRequest struct {
	Questions []GeneratedQuestion `json:"questions"`
}

type QuestionVerification struct {
	Concept    string     `json:"concept"`
	Difficulty Difficulty `json:"difficulty"`
	Question   string     `json:"question"`
	Valid      bool       `json:"valid"`
	Reason     string     `json:"reason"`
}

type VerifyQuestionsResponse struct {
	Total   int                    `json:"total"`
	Valid   int                    `json:"valid"`
	Invalid int                    `json:"invalid"`
	Results []QuestionVerification `json:"results"`
}

// ── Answer generation API ───────────────────────────────

type GenerateAnswersRequest struct {
	Questions []GeneratedQuestion `json:"questions"`
	Namespace string              `json:"namespace,omitempty"`
	Subject   string              `json:"subject,omitempty"`
}

type AnswerItem struct {
	Concept          string     `json:"concept"`
	Difficulty       Difficulty `json:"difficulty"`
	Question         string     `json:"question"`
	Answer           string     `json:"answer"`
	ContextRetrieved bool       `json:"context_retrieved"`
}

type GenerateAnswersResponse struct {
	Total     int          `json:"total"`
	Namespace string       `json:"namespace"`
	Answers   []AnswerItem `json:"answers"`
}

// ── Paper history ───────────────────────────────────────

type ExamPaper struct {
	ID             uuid.UUID           `json:"id"`
	SubjectID      string              `json:"subject_id"`
	SubjectName    string              `json:"subject_name"`
	TotalQuestions int                 `json:"total_questions"`
	HighFrequency  int                 `json:"high_frequency"`
	RecencyGap     int                 `json:"recency_gap"`
	NeverAsked     int                 `json:"never_asked"`
	CutoffYear     int                 `json:"cutoff_year"`
	Degraded       bool                `json:"degraded"`
	Questions      []GeneratedQuestion `json:"questions,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

type PaperListResponse struct {
	Papers []ExamPaper `json:"papers"`
}
