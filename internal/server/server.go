// Package server is the composition root: it opens the store and the media
// backend selected by the configuration, builds services and handlers, and
// mounts the routes.
//
//	config → store (sqlite | mongo), media (local | hdfs)
//	       → services → handlers → chi router
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/BiswasSwagatam/Muzik/internal/auth"
	"github.com/BiswasSwagatam/Muzik/internal/config"
	"github.com/BiswasSwagatam/Muzik/internal/handler"
	"github.com/BiswasSwagatam/Muzik/internal/media"
	"github.com/BiswasSwagatam/Muzik/internal/middleware"
	"github.com/BiswasSwagatam/Muzik/internal/repository"
	"github.com/BiswasSwagatam/Muzik/internal/repository/mongostore"
	sqliteRepo "github.com/BiswasSwagatam/Muzik/internal/repository/sqlite"
	"github.com/BiswasSwagatam/Muzik/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the store and the media backend and closes both on shutdown.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	store  repository.Store
	media  media.Store

	sweeper *service.IntegritySweeper
}

// New opens the configured backends and wires the routes. cfg must have
// passed Validate.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mediaStore, err := openMedia(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	s, err := newServer(cfg, logger, store, mediaStore)
	if err != nil {
		store.Close()
		mediaStore.Close()
		return nil, err
	}
	return s, nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("opening mongo store: %w", err)
		}
		return store, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return db, nil
	}
}

func openMedia(cfg *config.Config) (media.Store, error) {
	switch cfg.MediaBackend {
	case config.MediaHDFS:
		store, err := media.NewHDFSStore(cfg.HDFSNamenode, cfg.HDFSDir, cfg.MediaBaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening hdfs media store: %w", err)
		}
		return store, nil
	default:
		store, err := media.NewLocalStore(cfg.MediaDir, cfg.MediaBaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening local media store: %w", err)
		}
		return store, nil
	}
}

func newServer(cfg *config.Config, logger *slog.Logger, store repository.Store, mediaStore media.Store) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		store:  store,
		media:  mediaStore,
	}
	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ROUTES:
//
//	GET    /healthz
//	GET    /media/*                         stored audio and images
//	GET    /auth/github/login               (GitHub configured)
//	GET    /auth/github/callback            (GitHub configured)
//	POST   /api/auth/login                  (local admin configured)
//	POST   /api/auth/logout
//	GET    /api/auth/me                     user
//	GET    /api/songs/featured|made-for-you|trending
//	GET    /api/albums, /api/albums/{id}
//	GET    /api/users                       user
//	GET    /api/users/messages/{userId}     user
//	POST   /api/users/messages/{userId}     user
//	GET    /api/songs                       admin
//	GET    /api/stats                       admin
//	       /api/admin/...                   admin
func (s *Server) setupRoutes() error {
	secret := s.cfg.JWTSecret
	if secret == "" {
		var err error
		if secret, err = randomSecret(); err != nil {
			return err
		}
		s.logger.Warn("JWT_SECRET not set, using a random secret; sessions end on restart")
	}
	tokens, err := auth.NewTokenService(secret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	if s.cfg.LocalAdminEnabled() {
		if err := auth.CheckHash(s.cfg.AdminPasswordHash); err != nil {
			return fmt.Errorf("ADMIN_PASSWORD_HASH: %w", err)
		}
	}

	rs := handler.Responder{Logger: s.logger, ExposeErrors: !s.cfg.IsProduction()}

	catalog := service.NewCatalogService(s.store.Songs(), s.store.Albums(), s.media, s.logger)
	s.sweeper = service.NewIntegritySweeper(catalog, s.cfg.IntegritySweepInterval, s.logger)
	stats := service.NewStatsService(s.store.Songs(), s.store.Albums(), s.store.Users())
	users := service.NewUserService(s.store.Users(), s.store.Messages(), s.logger)
	authService := service.NewAuthService(s.store.Users(), tokens, auth.NewPasswordService(), service.AdminPolicy{
		Logins:       s.cfg.AdminLogins,
		Username:     s.cfg.AdminUsername,
		PasswordHash: s.cfg.AdminPasswordHash,
	}, s.logger)

	var github handler.IdentityProvider
	if s.cfg.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.cfg.GitHubClientID, s.cfg.GitHubClientSecret, s.cfg.GitHubCallbackURL)
	}

	authHandler := handler.NewAuthHandler(github, authService, rs, s.cfg.IsProduction())
	songHandler := handler.NewSongHandler(catalog, rs)
	albumHandler := handler.NewAlbumHandler(catalog, rs)
	statsHandler := handler.NewStatsHandler(stats, rs)
	userHandler := handler.NewUserHandler(users, rs)
	adminHandler := handler.NewAdminHandler(catalog, rs, s.cfg.MediaMaxFileBytes)

	requireAuth := auth.RequireAuth(tokens)
	requireAdmin := auth.RequireAdmin(authService)

	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(s.cfg.CORSAllowedOrigins))

	r.Get("/healthz", handler.Health)
	r.Handle("/media/*", http.StripPrefix("/media", s.media.Handler()))

	if github != nil {
		r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	} else {
		s.logger.Info("GitHub sign-in disabled: GITHUB_CLIENT_ID or GITHUB_CLIENT_SECRET not set")
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if s.cfg.LocalAdminEnabled() {
				r.Post("/login", authHandler.HandleLocalLogin)
			}
			r.Post("/logout", authHandler.HandleLogout)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.Get("/songs/featured", songHandler.HandleFeatured)
		r.Get("/songs/made-for-you", songHandler.HandleMadeForYou)
		r.Get("/songs/trending", songHandler.HandleTrending)
		r.Get("/albums", albumHandler.HandleList)
		r.Get("/albums/{id}", albumHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/users", userHandler.HandleList)
			r.Get("/users/messages/{userId}", userHandler.HandleMessages)
			r.Post("/users/messages/{userId}", userHandler.HandleSend)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)
			r.Get("/songs", songHandler.HandleList)
			r.Get("/stats", statsHandler.HandleStats)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/check", adminHandler.HandleCheck)
				r.Post("/songs", adminHandler.HandleCreateSong)
				r.Delete("/songs/{id}", adminHandler.HandleDeleteSong)
				r.Post("/albums", adminHandler.HandleCreateAlbum)
				r.Delete("/albums/{id}", adminHandler.HandleDeleteAlbum)
				r.Get("/integrity", adminHandler.HandleIntegrity)
				r.Post("/integrity/repair", adminHandler.HandleRepair)
			})
		})
	})

	return nil
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the backends. The integrity sweep runs while
// the server does.
func (s *Server) Start() error {
	defer s.Close()

	s.sweeper.Start()
	defer s.sweeper.Stop()

	// Uploads of two files at the size limit need more than the usual
	// write window.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("env", s.cfg.AppEnv),
			slog.String("store", s.cfg.StoreDriver),
			slog.String("media", s.cfg.MediaBackend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close releases the store and the media backend.
func (s *Server) Close() error {
	return errors.Join(s.store.Close(), s.media.Close())
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
