package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleSyllabus = `{
	"subject": "EE 2026",
	"topics": [
		{
			"name": "Electric Circuits",
			"subtopics": [
				{"name": "Network Theorems", "concepts": ["Thevenin's Theorem", {"name": "Norton's Theorem"}]},
				{"name": "Transients", "concepts": ["RC Circuits"]}
			]
		},
		{
			"name": "Electrical Machines",
			"subtopics": [
				{"name": "Transformers", "concepts": ["Equivalent Circuit", "Open Circuit Test"]}
			]
		}
	]
}`

func writeSyllabusDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadSyllabusIndex(t *testing.T) {
	dir := writeSyllabusDir(t, map[string]string{
		"ee.json":      sampleSyllabus,
		"broken.json":  "{not json",
		"no-id.json":   `{"topics": []}`,
		"ignored.yaml": "subject: ME 2026",
	})

	idx, err := LoadSyllabusIndex(dir)
	if err != nil {
		t.Fatal(err)
	}

	subjects := idx.Subjects()
	if len(subjects) != 1 || subjects[0] != "EE 2026" {
		t.Fatalf("subjects = %v, want [EE 2026]", subjects)
	}

	topics := idx.Topics("EE 2026")
	if len(topics) != 2 || topics[0] != "Electric Circuits" || topics[1] != "Electrical Machines" {
		t.Errorf("topics = %v", topics)
	}

	// Concepts accept both bare strings and {"name": ...} objects.
	concepts := idx.Concepts("EE 2026", nil)
	if len(concepts) != 5 {
		t.Errorf("concepts = %v, want 5 entries", concepts)
	}

	filtered := idx.Concepts("EE 2026", []string{"Electrical Machines"})
	if len(filtered) != 2 {
		t.Errorf("filtered concepts = %v, want 2 entries", filtered)
	}
}

func TestLoadSyllabusIndexMissingDir(t *testing.T) {
	idx, err := LoadSyllabusIndex(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("missing dir should yield empty index, got %v", err)
	}
	if len(idx.Subjects()) != 0 {
		t.Errorf("subjects = %v", idx.Subjects())
	}
}

func TestResolveSubjectLabel(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"EE 2026", "Electrical Engineering"},
		{"CE 2026", "Civil Engineering"},
		{"Electrical Engineering", "Electrical Engineering"},
		{"Unmapped Subject", "Unmapped Subject"},
	}
	for _, tt := range tests {
		if got := ResolveSubjectLabel(tt.id); got != tt.want {
			t.Errorf("ResolveSubjectLabel(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestMergeSubjectsPrefersCatalogueCodes(t *testing.T) {
	// Both identifiers resolve to the same display name; the catalogue code
	// must win the dedupe.
	subjects := mergeSubjects([]string{"Electrical Engineering", "EE 2026"}, nil)

	var electrical int
	for _, s := range subjects {
		if s.Name == "Electrical Engineering" {
			electrical++
			if s.ID != "EE 2026" {
				t.Errorf("deduped to %q, want EE 2026", s.ID)
			}
		}
	}
	if electrical != 1 {
		t.Errorf("display name appears %d times", electrical)
	}

	// The static label map fills in subjects the graph does not know.
	names := make(map[string]bool)
	for _, s := range subjects {
		names[s.Name] = true
	}
	if !names["Mechanical Engineering"] {
		t.Error("static subjects missing from merge")
	}

	for i := 1; i < len(subjects); i++ {
		if subjects[i-1].Name > subjects[i].Name {
			t.Fatalf("subjects not sorted: %q before %q", subjects[i-1].Name, subjects[i].Name)
		}
	}
}

func TestCandidateSubjects(t *testing.T) {
	candidates := candidateSubjects("Electrical Engineering")

	seen := make(map[string]bool)
	for _, c := range candidates {
		if seen[c] {
			t.Errorf("duplicate candidate %q", c)
		}
		seen[c] = true
	}
	if candidates[0] != "Electrical Engineering" {
		t.Errorf("first candidate %q, want the identifier itself", candidates[0])
	}
	if !seen["EE 2026"] {
		t.Errorf("candidates %v missing EE 2026", candidates)
	}
}

func TestSyllabusRetriever(t *testing.T) {
	dir := writeSyllabusDir(t, map[string]string{"ee.json": sampleSyllabus})
	idx, err := LoadSyllabusIndex(dir)
	if err != nil {
		t.Fatal(err)
	}
	retriever := NewSyllabusRetriever(idx)
	ctx := context.Background()

	// Alias resolution: the display name routes to the indexed identifier.
	concepts, err := retriever.HighFrequency(ctx, "Electrical Engineering", nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(concepts) != 3 {
		t.Errorf("expected 3 sampled concepts, got %d", len(concepts))
	}

	stale, err := retriever.RecencyGap(ctx, "EE 2026", []string{"Electric Circuits"}, 2020, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 3 {
		t.Errorf("expected the 3 circuit concepts, got %d", len(stale))
	}

	topics, err := retriever.ListTopics(ctx, "Electrical Engineering")
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 2 {
		t.Errorf("topics = %v", topics)
	}

	subjects, err := retriever.ListSubjects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, s := range subjects {
		if s.ID == "EE 2026" && s.Name == "Electrical Engineering" {
			found = true
		}
	}
	if !found {
		t.Errorf("indexed subject missing from %v", subjects)
	}
}
