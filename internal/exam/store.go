package exam

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/exam-paper/backend/internal/models"
)

// Store persists generated papers for history and auditing.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SavePaper inserts a paper and its questions in one transaction. The paper
// ID is assigned here.
func (s *Store) SavePaper(ctx context.Context, paper *models.ExamPaper) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	paper.ID = uuid.New()

	err = tx.QueryRow(
		`INSERT INTO exam_papers
		 (id, subject_id, subject_name, total_questions, high_frequency, recency_gap,
		  never_asked, cutoff_year, degraded)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		paper.ID, paper.SubjectID, paper.SubjectName, paper.TotalQuestions,
		paper.HighFrequency, paper.RecencyGap, paper.NeverAsked,
		paper.CutoffYear, paper.Degraded,
	).Scan(&paper.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert paper: %w", err)
	}

	for position, q := range paper.Questions {
		_, err := tx.Exec(
			`INSERT INTO paper_questions (paper_id, position, concept, difficulty, question)
			 VALUES ($1, $2, $3, $4, $5)`,
			paper.ID, position, q.Concept, q.Difficulty, q.Question,
		)
		if err != nil {
			return fmt.Errorf("insert paper question: %w", err)
		}
	}

	return tx.Commit()
}

// GetPaper loads one paper with its questions in position order.
func (s *Store) GetPaper(ctx context.Context, id uuid.UUID) (*models.ExamPaper, error) {
	var paper models.ExamPaper
	err := s.db.QueryRowContext(ctx,
		`SELECT id, subject_id, subject_name, total_questions, high_frequency,
		        recency_gap, never_asked, cutoff_year, degraded, created_at
		 FROM exam_papers WHERE id = $1`,
		id,
	).Scan(&paper.ID, &paper.SubjectID, &paper.SubjectName, &paper.TotalQuestions,
		&paper.HighFrequency, &paper.RecencyGap, &paper.NeverAsked,
		&paper.CutoffYear, &paper.Degraded, &paper.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT concept, difficulty, question
		 FROM paper_questions WHERE paper_id = $1 ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("get paper questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q models.GeneratedQuestion
		if err := rows.Scan(&q.Concept, &q.Difficulty, &q.Question); err != nil {
			return nil, fmt.Errorf("scan paper question: %w", err)
		}
		paper.Questions = append(paper.Questions, q)
	}

	return &paper, rows.Err()
}

// ListPapers returns paper summaries, newest first, without questions.
func (s *Store) ListPapers(ctx context.Context, limit, offset int) ([]models.ExamPaper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject_id, subject_name, total_questions, high_frequency,
		        recency_gap, never_asked, cutoff_year, degraded, created_at
		 FROM exam_papers
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	var papers []models.ExamPaper
	for rows.Next() {
		var p models.ExamPaper
		if err := rows.Scan(&p.ID, &p.SubjectID, &p.SubjectName, &p.TotalQuestions,
			&p.HighFrequency, &p.RecencyGap, &p.NeverAsked,
			&p.CutoffYear, &p.Degraded, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}
