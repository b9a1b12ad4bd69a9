package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/camden-git/facenotebackend/config"
	"github.com/camden-git/facenotebackend/database"
	"github.com/camden-git/facenotebackend/handlers"
	"github.com/camden-git/facenotebackend/repository"
	"github.com/camden-git/facenotebackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	personRepo := repository.NewPersonRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	log.Printf("Initializing state writer pool (Workers: %d, Queue Size: %d)...", cfg.NumStateWriterWorkers, cfg.StateWriterQueueSize)
	stateWriter := workers.NewStateWriter(personRepo, cfg.StateWriterQueueSize, cfg.NumStateWriterWorkers)
	defer stateWriter.Stop()

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Photo max size (longest side): %dpx, JPEG quality: %d", cfg.PhotoMaxSize, cfg.PhotoJpegQuality)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	personHandler := &handlers.PersonHandler{Repo: personRepo, StatsDB: sqlDB, Cfg: cfg}
	quizHandler := handlers.NewQuizHandler(personRepo, settingsRepo, stateWriter)

	r.Route("/api", func(r chi.Router) {
		r.Route("/people", func(r chi.Router) {
			r.Post("/", personHandler.CreatePerson)
			r.Get("/", personHandler.ListPeople)
			r.Get("/stats", personHandler.GetStats)
			r.Route("/{person_id}", func(r chi.Router) {
				r.Get("/", personHandler.GetPerson)
				r.Put("/", personHandler.UpdatePerson)
				r.Delete("/", personHandler.DeletePerson)
			})
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", personHandler.ListTopGroups)
			r.Get("/all", personHandler.ListAllGroups)
		})

		r.Route("/quiz", func(r chi.Router) {
			r.Get("/settings", quizHandler.GetSettings)
			r.Put("/settings", quizHandler.SaveSettings)
			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", quizHandler.StartSession)
				r.Route("/{session_id}", func(r chi.Router) {
					r.Post("/answer", quizHandler.Answer)
					r.Post("/next", quizHandler.Next)
					r.Put("/settings", quizHandler.ApplySessionSettings)
				})
			})
		})

		r.Get("/placeholder/{width}/{height}", handlers.PlaceholderImage)

		r.Post("/reset", personHandler.Reset)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
