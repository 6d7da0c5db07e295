package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/rs/cors"

	"mindflow/internal/ai"
	"mindflow/internal/auth"
	"mindflow/internal/capture"
	"mindflow/internal/config"
	"mindflow/internal/db"
	"mindflow/internal/goals"
	"mindflow/internal/httpx"
	"mindflow/internal/principles"
	"mindflow/internal/tasks"
)

func main() {
	cfg := config.LoadConfig()

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer database.Close()
	log.Printf("database ready at %s", cfg.DBPath)

	externalClient := httpx.NewExternalClient(time.Duration(cfg.ExternalHTTPTimeoutSeconds) * time.Second)
	gateway := ai.NewGateway(cfg, externalClient)
	analysis := ai.NewService(gateway, &ai.AuditStore{DB: database})

	secret := []byte(cfg.JWTSecret)
	authHandler := auth.NewHandler(database, secret)
	captureHandler := capture.NewHandler(database, analysis)
	goalHandler := goals.NewHandler(database)
	taskHandler := tasks.NewHandler(database)
	principleHandler := principles.NewHandler(database)

	if cfg.RecurringSchedule != "" {
		scheduler := &tasks.Scheduler{DB: database, Spec: cfg.RecurringSchedule}
		if err := scheduler.Start(context.Background()); err != nil {
			log.Fatalf("Error starting recurring scheduler: %v", err)
		}
	} else {
		log.Println("recurring task scheduler disabled (no schedule configured)")
	}

	protect := auth.Middleware(secret)

	mux := http.NewServeMux()

	// Public routes.
	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.OK(w, map[string]string{"status": "ok"}, "")
	})

	// Everything else requires a verified identity.
	mux.Handle("/api/auth/me", protect(http.HandlerFunc(authHandler.Me)))
	mux.Handle("/api/auth/logout", protect(http.HandlerFunc(authHandler.Logout)))

	mux.Handle("/api/capture", protect(http.HandlerFunc(captureHandler.Collection)))
	mux.Handle("/api/capture/analyze", protect(http.HandlerFunc(captureHandler.Analyze)))
	mux.Handle("/api/capture/align", protect(http.HandlerFunc(captureHandler.Align)))
	mux.Handle("/api/captures", protect(http.HandlerFunc(captureHandler.Collection)))
	mux.Handle("/api/captures/", protect(http.HandlerFunc(captureHandler.Item)))

	mux.Handle("/api/goals", protect(http.HandlerFunc(goalHandler.Collection)))
	mux.Handle("/api/goals/", protect(http.HandlerFunc(goalHandler.Item)))

	// ServeMux routes /api/tasks/goals ahead of the /api/tasks/ catch-all.
	mux.Handle("/api/tasks", protect(http.HandlerFunc(taskHandler.Collection)))
	mux.Handle("/api/tasks/goals", protect(http.HandlerFunc(taskHandler.Relations)))
	mux.Handle("/api/tasks/", protect(http.HandlerFunc(taskHandler.Item)))

	mux.Handle("/api/principles", protect(http.HandlerFunc(principleHandler.Collection)))
	mux.Handle("/api/principles/", protect(http.HandlerFunc(principleHandler.Item)))

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}).Handler(mux)

	log.Printf("listening on %s (provider %s)", cfg.ListenAddr, cfg.AIProvider)
	if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
