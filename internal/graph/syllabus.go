package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/exam-paper/backend/internal/models"
)

// SubjectLabels maps syllabus subject identifiers to display names. Raw
// identifiers that already read as display names map to themselves.
var SubjectLabels = map[string]string{
	"CE 2026":                "Civil Engineering",
	"CH 2026":                "Chemical Engineering",
	"CS 2026":                "Computer Science Engineering",
	"EC 2026":                "Electronics and Communication Engineering",
	"EE 2026":                "Electrical Engineering",
	"Electrical Engineering": "Electrical Engineering",
	"ME 2026":                "Mechanical Engineering",
	"MT 2026":                "Metallurgical Engineering",
}

// subjectPriority breaks ties between identifiers that share a display name.
// Lower wins, so the catalogue codes beat the bare display-name identifier.
var subjectPriority = map[string]int{
	"CE 2026":                0,
	"CH 2026":                0,
	"CS 2026":                0,
	"EC 2026":                0,
	"EE 2026":                0,
	"ME 2026":                0,
	"MT 2026":                0,
	"Electrical Engineering": 1,
}

// ResolveSubjectLabel returns the display name for a subject identifier,
// falling back to the identifier itself.
func ResolveSubjectLabel(subjectID string) string {
	if label, ok := SubjectLabels[subjectID]; ok {
		return label
	}
	return subjectID
}

// mergeSubjects combines subject identifiers found in the graph with the
// static label map and the syllabus index. Identifiers sharing a display name
// are deduplicated by priority, and the result is sorted by display name.
func mergeSubjects(graphNames []string, idx *SyllabusIndex) []models.SubjectInfo {
	ids := append([]string{}, graphNames...)
	for id := range SubjectLabels {
		ids = append(ids, id)
	}
	if idx != nil {
		ids = append(ids, idx.Subjects()...)
	}

	type pick struct {
		id       string
		priority int
	}
	preferred := make(map[string]pick)
	for _, id := range uniqueOrdered(ids) {
		display := ResolveSubjectLabel(id)
		priority, ok := subjectPriority[id]
		if !ok {
			priority = 100
		}
		current, exists := preferred[display]
		if !exists || priority < current.priority {
			preferred[display] = pick{id: id, priority: priority}
		}
	}

	subjects := make([]models.SubjectInfo, 0, len(preferred))
	for display, p := range preferred {
		subjects = append(subjects, models.SubjectInfo{ID: p.id, Name: display})
	}

	sort.Slice(subjects, func(i, j int) bool {
		return strings.ToLower(subjects[i].Name) < strings.ToLower(subjects[j].Name)
	})
	return subjects
}

// candidateSubjects lists identifiers that could refer to the given subject:
// the value itself plus every identifier whose id or label matches it.
func candidateSubjects(subject string) []string {
	candidates := []string{subject}
	for id, label := range SubjectLabels {
		if id == subject || label == subject {
			candidates = append(candidates, id)
		}
	}
	return uniqueOrdered(candidates)
}

func uniqueOrdered(values []string) []string {
	seen := make(map[string]bool, len(values))
	var ordered []string
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		ordered = append(ordered, v)
	}
	return ordered
}

// ── Syllabus index ──────────────────────────────────────

type syllabusConcept struct {
	Name string `json:"name"`
}

// UnmarshalJSON accepts both {"name": "..."} objects and bare strings, which
// both occur in the syllabus files.
func (c *syllabusConcept) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Name = s
		return nil
	}
	type alias syllabusConcept
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	c.Name = a.Name
	return nil
}

type syllabusSubtopic struct {
	Name     string            `json:"name"`
	Concepts []syllabusConcept `json:"concepts"`
}

type syllabusTopic struct {
	Name      string             `json:"name"`
	Subtopics []syllabusSubtopic `json:"subtopics"`
}

type syllabusSubject struct {
	Subject string          `json:"subject"`
	Topics  []syllabusTopic `json:"topics"`
}

// SyllabusIndex is a static index of subject → topic → subtopic → concept,
// loaded once from JSON files. It backs concept retrieval when the graph
// holds no data for a subject.
type SyllabusIndex struct {
	subjects map[string]syllabusSubject
}

// LoadSyllabusIndex reads every *.json file in dir. Files that fail to parse
// or carry no subject identifier are skipped. A missing directory yields an
// empty index, not an error.
func LoadSyllabusIndex(dir string) (*SyllabusIndex, error) {
	idx := &SyllabusIndex{subjects: make(map[string]syllabusSubject)}
	if dir == "" {
		return idx, nil
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read syllabus dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var payload syllabusSubject
		if err := json.Unmarshal(data, &payload); err != nil {
			continue
		}
		if payload.Subject == "" {
			continue
		}
		idx.subjects[payload.Subject] = payload
	}

	return idx, nil
}

// Subjects returns every indexed subject identifier, sorted.
func (idx *SyllabusIndex) Subjects() []string {
	ids := make([]string, 0, len(idx.subjects))
	for id := range idx.subjects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Topics returns the topic names for a subject identifier, in file order.
func (idx *SyllabusIndex) Topics(subject string) []string {
	payload, ok := idx.subjects[subject]
	if !ok {
		return nil
	}
	var topics []string
	for _, topic := range payload.Topics {
		if topic.Name != "" {
			topics = append(topics, topic.Name)
		}
	}
	return uniqueOrdered(topics)
}

// Concepts returns the concept names under a subject, optionally limited to
// the named topics, in file order.
func (idx *SyllabusIndex) Concepts(subject string, topics []string) []string {
	payload, ok := idx.subjects[subject]
	if !ok {
		return nil
	}

	wanted := make(map[string]bool, len(topics))
	for _, t := range topics {
		wanted[t] = true
	}

	var concepts []string
	for _, topic := range payload.Topics {
		if len(wanted) > 0 && !wanted[topic.Name] {
			continue
		}
		for _, sub := range topic.Subtopics {
			for _, concept := range sub.Concepts {
				if concept.Name != "" {
					concepts = append(concepts, concept.Name)
				}
			}
		}
	}
	return uniqueOrdered(concepts)
}

// sampleConcepts resolves subject aliases against the index and returns up to
// limit concept names, randomly sampled when the pool is larger.
func (idx *SyllabusIndex) sampleConcepts(subject string, topics []string, limit int) []string {
	var candidates []string
	if subject != "" {
		candidates = candidateSubjects(subject)
	} else {
		candidates = idx.Subjects()
	}

	for _, candidate := range candidates {
		concepts := idx.Concepts(candidate, topics)
		if len(concepts) == 0 {
			continue
		}
		if limit > 0 && len(concepts) > limit {
			rand.Shuffle(len(concepts), func(i, j int) {
				concepts[i], concepts[j] = concepts[j], concepts[i]
			})
			concepts = concepts[:limit]
		}
		return concepts
	}
	return nil
}

// ── Syllabus-only retriever ─────────────────────────────

// SyllabusRetriever serves concept retrieval straight from the static
// syllabus index. It is the degraded mode used when no graph database is
// configured: every strategy samples the same concept pool, scores are zero
// and last-asked years unknown.
type SyllabusRetriever struct {
	index *SyllabusIndex
}

func NewSyllabusRetriever(index *SyllabusIndex) *SyllabusRetriever {
	return &SyllabusRetriever{index: index}
}

func (r *SyllabusRetriever) HighFrequency(ctx context.Context, subject string, topics []string, limit int) ([]ScoredConcept, error) {
	names := r.index.sampleConcepts(subject, topics, limit)
	concepts := make([]ScoredConcept, 0, len(names))
	for _, name := range names {
		concepts = append(concepts, ScoredConcept{Concept: name})
	}
	return concepts, nil
}

func (r *SyllabusRetriever) RecencyGap(ctx context.Context, subject string, topics []string, cutoffYear, limit int) ([]StaleConcept, error) {
	names := r.index.sampleConcepts(subject, topics, limit)
	concepts := make([]StaleConcept, 0, len(names))
	for _, name := range names {
		concepts = append(concepts, StaleConcept{Concept: name})
	}
	return concepts, nil
}

func (r *SyllabusRetriever) NeverAsked(ctx context.Context, subject string, topics []string, limit int) ([]Concept, error) {
	names := r.index.sampleConcepts(subject, topics, limit)
	concepts := make([]Concept, 0, len(names))
	for _, name := range names {
		concepts = append(concepts, Concept{Concept: name})
	}
	return concepts, nil
}

func (r *SyllabusRetriever) ListSubjects(ctx context.Context) ([]models.SubjectInfo, error) {
	return mergeSubjects(nil, r.index), nil
}

func (r *SyllabusRetriever) ListTopics(ctx context.Context, subjectID string) ([]string, error) {
	for _, candidate := range candidateSubjects(subjectID) {
		if topics := r.index.Topics(candidate); len(topics) > 0 {
			return topics, nil
		}
	}
	return nil, nil
}
