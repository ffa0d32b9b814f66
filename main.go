package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/olugbengaakindele/handyhubclean/internal/api"
	"github.com/olugbengaakindele/handyhubclean/internal/config"
	"github.com/olugbengaakindele/handyhubclean/internal/db"
	"github.com/olugbengaakindele/handyhubclean/internal/messaging"
	"github.com/olugbengaakindele/handyhubclean/internal/notify"
	"github.com/olugbengaakindele/handyhubclean/internal/session"
	"github.com/olugbengaakindele/handyhubclean/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found. Environment variables must be set another way.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.AppEnv == "dev" {
		log.SetLevel(log.DebugLevel)
	}

	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	blobs, err := storage.NewDiskStore(cfg.MediaDir, "/api/media")
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.FromEmail)
	}

	msgService := messaging.NewService(db.Store{}, blobs, mailer, cfg.SiteURL)
	sessions := session.NewManager()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.SetupRoutes(r, &api.API{
		Config:   cfg,
		Sessions: sessions,
		Msg:      msgService,
		Blobs:    blobs,
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	log.Infof("Starting HTTP server on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}
