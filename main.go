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

	"github.com/lumenphotos/photosharebackend/config"
	"github.com/lumenphotos/photosharebackend/database"
	"github.com/lumenphotos/photosharebackend/handlers"
	"github.com/lumenphotos/photosharebackend/repository"
	"github.com/lumenphotos/photosharebackend/services"
	"github.com/lumenphotos/photosharebackend/sharing"
	"github.com/lumenphotos/photosharebackend/workers"
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

	albumRepo := repository.NewAlbumRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	sessionRepo := repository.NewGuestSessionRepository(db)
	eventRepo := repository.NewViewEventRepository(db)
	shortURLRepo := repository.NewShortURLRepository(db)
	userRepo := repository.NewUserRepository(db)

	limiter := sharing.NewRateLimiter(sharing.NewMemoryAttemptStore(), cfg.MaxPasswordAttempts, cfg.LockoutWindow)
	signer := sharing.NewCredentialSigner(cfg.SigningSecret)
	sharingService := services.NewSharingService(cfg, albumRepo, sessionRepo, eventRepo, shortURLRepo, limiter, signer)

	cleanupWorker := workers.NewCleanupWorker(sessionRepo, eventRepo, shortURLRepo,
		cfg.SessionSweepInterval, cfg.AuditSweepInterval, cfg.AuditRetention)
	cleanupWorker.Start()
	defer cleanupWorker.Stop()

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
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

	externalHandler := &handlers.ExternalAlbumHandler{Service: sharingService, PhotoRepo: photoRepo}
	albumHandler := &handlers.AlbumHandler{
		AlbumRepo:   albumRepo,
		SessionRepo: sessionRepo,
		EventRepo:   eventRepo,
		Service:     sharingService,
	}
	shortURLHandler := &handlers.ShortURLHandler{ShortURLRepo: shortURLRepo, Service: sharingService}
	authHandler := handlers.NewAuthHandler(userRepo, cfg.SigningSecret)

	// guest-facing routes, no owner authentication
	r.Route("/shared/albums/{token}", func(r chi.Router) {
		r.Get("/", externalHandler.ShowSharedAlbum)
		r.Get("/password", externalHandler.PasswordForm)
		r.Post("/authenticate", externalHandler.Authenticate)
		r.Post("/track_photo_view", externalHandler.TrackPhotoView)
	})
	r.Get("/s/{token}", shortURLHandler.Redirect)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return handlers.AuthMiddleware(userRepo, cfg.SigningSecret, next)
			})

			r.Route("/albums", func(r chi.Router) {
				r.Post("/", albumHandler.CreateAlbum)
				r.Get("/", albumHandler.ListAlbums)
				r.Route("/{album_id}", func(r chi.Router) {
					r.Get("/", albumHandler.GetAlbum)
					r.Delete("/", albumHandler.DeleteAlbum)
					r.Post("/sharing", albumHandler.EnableSharing)
					r.Delete("/sharing", albumHandler.DisableSharing)
					r.Post("/short_url", albumHandler.MintShortURL)
					r.Route("/guest_sessions", func(r chi.Router) {
						r.Get("/", albumHandler.ListGuestSessions)
						r.Patch("/revoke_all", albumHandler.RevokeAllGuestSessions)
						r.Delete("/{session_token}", albumHandler.RevokeGuestSession)
					})
					r.Get("/view_events", albumHandler.ViewEvents)
				})
			})
		})
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
