package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/exam-paper/backend/internal/answers"
	"github.com/exam-paper/backend/internal/auth"
	"github.com/exam-paper/backend/internal/database"
	"github.com/exam-paper/backend/internal/exam"
	"github.com/exam-paper/backend/internal/generator"
	"github.com/exam-paper/backend/internal/graph"
	"github.com/exam-paper/backend/internal/middleware"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	ctx := context.Background()

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Syllabus index backs concept retrieval when the graph has no data
	syllabusDir := os.Getenv("SYLLABUS_DIR")
	if syllabusDir == "" {
		syllabusDir = "json_syllabus"
	}
	syllabus, err := graph.LoadSyllabusIndex(syllabusDir)
	if err != nil {
		log.Fatalf("Failed to load syllabus index: %v", err)
	}

	// Concept retriever: Neo4j when configured, syllabus-only otherwise
	var retriever graph.ConceptRetriever
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		neoRetriever, err := graph.NewNeo4jRetriever(ctx, graph.Neo4jConfig{
			URI:      uri,
			User:     os.Getenv("NEO4J_USER"),
			Password: os.Getenv("NEO4J_PASSWORD"),
			Database: os.Getenv("NEO4J_DATABASE"),
		}, syllabus)
		if err != nil {
			log.Fatalf("Failed to connect to Neo4j: %v", err)
		}
		defer neoRetriever.Close(ctx)
		retriever = neoRetriever
		log.Println("Concept retriever using Neo4j:", uri)
	} else {
		retriever = graph.NewSyllabusRetriever(syllabus)
		log.Println("Concept retriever using static syllabus index only")
	}

	// Question generation + validation
	gen := generator.NewGenerator()
	validator := exam.NewValidator(blocklistFromEnv())

	builder := exam.NewBlueprintBuilder(retriever)
	workflow := exam.NewWorkflow(gen, validator)
	store := exam.NewStore(db)
	examService := exam.NewService(retriever, builder, workflow, validator, store)

	answerService := answers.NewService(gen.Client(), nil)

	// Initialize handlers
	authHandler := auth.NewHandler(db)
	examHandler := exam.NewHandler(examService, store)
	answersHandler := answers.NewHandler(answerService)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	api.HandleFunc("/exams/generate", examHandler.GenerateExam).Methods("POST")
	api.HandleFunc("/exams/verify", examHandler.VerifyQuestions).Methods("POST")
	api.HandleFunc("/exams/answers", answersHandler.GenerateAnswers).Methods("POST")
	api.HandleFunc("/subjects", examHandler.ListSubjects).Methods("GET")
	api.HandleFunc("/subjects/{id}/topics", examHandler.ListTopics).Methods("GET")
	api.HandleFunc("/papers", examHandler.ListPapers).Methods("GET")
	api.HandleFunc("/papers/{id}", examHandler.GetPaper).Methods("GET")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// blocklistFromEnv reads a comma-separated out-of-domain keyword list,
// falling back to the built-in default.
func blocklistFromEnv() []string {
	raw := os.Getenv("EXAM_BLOCKLIST")
	if raw == "" {
		return exam.DefaultBlocklist()
	}
	var blocklist []string
	for _, word := range strings.Split(raw, ",") {
		if word = strings.TrimSpace(word); word != "" {
			blocklist = append(blocklist, word)
		}
	}
	return blocklist
}
