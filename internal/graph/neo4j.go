package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/exam-paper/backend/internal/models"
)

// Neo4jRetriever serves concept retrieval from the knowledge graph, falling
// back to the static syllabus index whenever a query returns nothing. The
// graph schema is Subject-[:HAS_TOPIC]->Topic-[:HAS_SUBTOPIC]->SubTopic-
// [:HAS_CONCEPT]->Concept, with past-paper questions attached via
// Question-[:APPEARS_IN]->Concept.
type Neo4jRetriever struct {
	driver   neo4j.DriverWithContext
	database string
	syllabus *SyllabusIndex
}

type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	Database string
	Timeout  time.Duration
}

func NewNeo4jRetriever(ctx context.Context, cfg Neo4jConfig, syllabus *SyllabusIndex) (*Neo4jRetriever, error) {
	if cfg.User == "" {
		cfg.User = "neo4j"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""), func(c *neo4j.Config) {
		c.SocketConnectTimeout = cfg.Timeout
	})
	if err != nil {
		return nil, fmt.Errorf("init neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	return &Neo4jRetriever{driver: driver, database: cfg.Database, syllabus: syllabus}, nil
}

func (r *Neo4jRetriever) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

func (r *Neo4jRetriever) read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records.([]*neo4j.Record), nil
}

func topicCondition(topics []string) string {
	if len(topics) > 0 {
		return "WHERE t.name IN $topics\n"
	}
	return ""
}

func recordString(record *neo4j.Record, key string) string {
	value, ok := record.Get(key)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

func recordInt(record *neo4j.Record, key string) (int64, bool) {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return 0, false
	}
	n, ok := value.(int64)
	return n, ok
}

// ── Retrieval strategies ────────────────────────────────

func (r *Neo4jRetriever) HighFrequency(ctx context.Context, subject string, topics []string, limit int) ([]ScoredConcept, error) {
	var query string
	params := map[string]any{"limit": limit}

	if subject != "" {
		query = `
		MATCH (s:Subject {name: $subject})-[:HAS_TOPIC]->(t:Topic)
		` + topicCondition(topics) + `MATCH (t)-[:HAS_SUBTOPIC]->(:SubTopic)-[:HAS_CONCEPT]->(c:Concept)
		WITH DISTINCT c
		OPTIONAL MATCH (q:Question)-[:APPEARS_IN]->(c)
		WITH c, count(q) AS score
		WHERE score > 0
		RETURN c.name AS name, score
		ORDER BY score DESC
		LIMIT $limit`
		params["subject"] = subject
		if len(topics) > 0 {
			params["topics"] = topics
		}
	} else {
		query = `
		MATCH (q:Question)-[:APPEARS_IN]->(c:Concept)
		RETURN c.name AS name, count(q) AS score
		ORDER BY score DESC
		LIMIT $limit`
	}

	records, err := r.read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("high-frequency query: %w", err)
	}

	concepts := make([]ScoredConcept, 0, len(records))
	for _, record := range records {
		score, _ := recordInt(record, "score")
		concepts = append(concepts, ScoredConcept{Concept: recordString(record, "name"), Score: score})
	}
	if len(concepts) > 0 {
		return concepts, nil
	}

	names, err := r.conceptFallback(ctx, subject, topics, limit)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		concepts = append(concepts, ScoredConcept{Concept: name})
	}
	return concepts, nil
}

func (r *Neo4jRetriever) RecencyGap(ctx context.Context, subject string, topics []string, cutoffYear, limit int) ([]StaleConcept, error) {
	var query string
	params := map[string]any{"cutoff": cutoffYear, "limit": limit}

	if subject != "" {
		query = `
		MATCH (s:Subject {name: $subject})-[:HAS_TOPIC]->(t:Topic)
		` + topicCondition(topics) + `MATCH (t)-[:HAS_SUBTOPIC]->(:SubTopic)-[:HAS_CONCEPT]->(c:Concept)
		WITH DISTINCT c
		MATCH (q:Question)-[:APPEARS_IN]->(c)
		WITH c, max(q.year) AS last_year
		WHERE last_year <= $cutoff
		RETURN c.name AS name, last_year
		ORDER BY last_year ASC
		LIMIT $limit`
		params["subject"] = subject
		if len(topics) > 0 {
			params["topics"] = topics
		}
	} else {
		query = `
		MATCH (q:Question)-[:APPEARS_IN]->(c:Concept)
		WITH c, max(q.year) AS last_year
		WHERE last_year <= $cutoff
		RETURN c.name AS name, last_year
		ORDER BY last_year ASC
		LIMIT $limit`
	}

	records, err := r.read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("recency-gap query: %w", err)
	}

	concepts := make([]StaleConcept, 0, len(records))
	for _, record := range records {
		concept := StaleConcept{Concept: recordString(record, "name")}
		if year, ok := recordInt(record, "last_year"); ok {
			y := int(year)
			concept.LastAsked = &y
		}
		concepts = append(concepts, concept)
	}
	if len(concepts) > 0 {
		return concepts, nil
	}

	names, err := r.conceptFallback(ctx, subject, topics, limit)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		concepts = append(concepts, StaleConcept{Concept: name})
	}
	return concepts, nil
}

func (r *Neo4jRetriever) NeverAsked(ctx context.Context, subject string, topics []string, limit int) ([]Concept, error) {
	var query string
	params := map[string]any{"limit": limit}

	if subject != "" {
		query = `
		MATCH (s:Subject {name: $subject})-[:HAS_TOPIC]->(t:Topic)
		` + topicCondition(topics) + `MATCH (t)-[:HAS_SUBTOPIC]->(:SubTopic)-[:HAS_CONCEPT]->(c:Concept)
		WITH DISTINCT c
		OPTIONAL MATCH (q:Question)-[:APPEARS_IN]->(c)
		WITH c, count(q) AS appearances
		WHERE appearances = 0
		RETURN c.name AS name
		ORDER BY rand()
		LIMIT $limit`
		params["subject"] = subject
		if len(topics) > 0 {
			params["topics"] = topics
		}
	} else {
		query = `
		MATCH (c:Concept)
		WHERE NOT EXISTS { MATCH (:Question)-[:APPEARS_IN]->(c) }
		RETURN c.name AS name
		ORDER BY rand()
		LIMIT $limit`
	}

	records, err := r.read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("never-asked query: %w", err)
	}

	concepts := make([]Concept, 0, len(records))
	for _, record := range records {
		concepts = append(concepts, Concept{Concept: recordString(record, "name")})
	}
	if len(concepts) > 0 {
		return concepts, nil
	}

	names, err := r.conceptFallback(ctx, subject, topics, limit)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		concepts = append(concepts, Concept{Concept: name})
	}
	return concepts, nil
}

// conceptFallback pulls random concepts for the subject when a strategy
// query matches nothing, trying the graph first and the syllabus index last.
func (r *Neo4jRetriever) conceptFallback(ctx context.Context, subject string, topics []string, limit int) ([]string, error) {
	var query string
	params := map[string]any{"limit": limit}

	if subject != "" {
		query = `
		MATCH (s:Subject {name: $subject})-[:HAS_TOPIC]->(t:Topic)
		` + topicCondition(topics) + `MATCH (t)-[:HAS_SUBTOPIC]->(:SubTopic)-[:HAS_CONCEPT]->(c:Concept)
		RETURN DISTINCT c.name AS name
		ORDER BY rand()
		LIMIT $limit`
		params["subject"] = subject
		if len(topics) > 0 {
			params["topics"] = topics
		}
	} else {
		query = `
		MATCH (c:Concept)
		RETURN c.name AS name
		ORDER BY rand()
		LIMIT $limit`
	}

	records, err := r.read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("concept fallback query: %w", err)
	}

	names := make([]string, 0, len(records))
	for _, record := range records {
		names = append(names, recordString(record, "name"))
	}
	if len(names) > 0 {
		return names, nil
	}

	if r.syllabus != nil {
		return r.syllabus.sampleConcepts(subject, topics, limit), nil
	}
	return nil, nil
}

// ── Subject / topic listing ─────────────────────────────

func (r *Neo4jRetriever) ListSubjects(ctx context.Context) ([]models.SubjectInfo, error) {
	records, err := r.read(ctx, `
	MATCH (s:Subject)
	RETURN s.name AS name
	ORDER BY name`, nil)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}

	names := make([]string, 0, len(records))
	for _, record := range records {
		names = append(names, recordString(record, "name"))
	}
	return mergeSubjects(names, r.syllabus), nil
}

func (r *Neo4jRetriever) ListTopics(ctx context.Context, subjectID string) ([]string, error) {
	records, err := r.read(ctx, `
	MATCH (s:Subject {name: $subject})-[:HAS_TOPIC]->(t:Topic)
	RETURN DISTINCT t.name AS name
	ORDER BY name`, map[string]any{"subject": subjectID})
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}

	topics := make([]string, 0, len(records))
	for _, record := range records {
		topics = append(topics, recordString(record, "name"))
	}
	if len(topics) > 0 {
		return topics, nil
	}

	if r.syllabus != nil {
		for _, candidate := range candidateSubjects(subjectID) {
			if fallback := r.syllabus.Topics(candidate); len(fallback) > 0 {
				return fallback, nil
			}
		}
	}
	return nil, nil
}
