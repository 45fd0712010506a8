package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func Connect() (*sql.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "exam_user")
	password := getEnv("DB_PASSWORD", "exam_password")
	dbname := getEnv("DB_NAME", "exam_paper")
	sslmode := getEnv("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS exam_papers (
		id              UUID PRIMARY KEY,
		subject_id      VARCHAR(255) NOT NULL,
		subject_name    VARCHAR(255) NOT NULL,
		total_questions INT NOT NULL,
		high_frequency  INT NOT NULL DEFAULT 0,
		recency_gap     INT NOT NULL DEFAULT 0,
		never_asked     INT NOT NULL DEFAULT 0,
		cutoff_year     INT NOT NULL,
		degraded        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at      TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_papers_subject ON exam_papers(subject_id);
	CREATE INDEX IF NOT EXISTS idx_papers_created ON exam_papers(created_at);

	CREATE TABLE IF NOT EXISTS paper_questions (
		id         BIGSERIAL PRIMARY KEY,
		paper_id   UUID NOT NULL REFERENCES exam_papers(id) ON DELETE CASCADE,
		position   INT NOT NULL,
		concept    TEXT NOT NULL,
		difficulty VARCHAR(20) NOT NULL,
		question   TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_paper_questions_paper ON paper_questions(paper_id);
	`

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
