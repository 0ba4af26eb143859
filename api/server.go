package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Brosquire/nodemaster/config"
	"github.com/Brosquire/nodemaster/database"
	"github.com/Brosquire/nodemaster/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(cfg *config.Config, database database.Database, geocoder services.Geocoder, mailer services.Mailer) (Server, error) {
	startupTime := time.Now()
	router := newRouter(cfg, database, geocoder, mailer)

	server := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return Server{server, startupTime}, nil
}

func newRouter(cfg *config.Config, database database.Database, geocoder services.Geocoder, mailer services.Mailer) *chi.Mux {
	chiRouter := chi.NewRouter()

	chiRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	chiRouter.Use(requestLogger)

	handlers := initializeHandlers(database, geocoder, mailer, cfg)
	authMiddleware := newAuthMiddleware(database.UserRepo(), cfg)
	loginLimiter := newLimiterStore(cfg.LoginRate, cfg.LoginBurst)

	setupRoutes(chiRouter, handlers, authMiddleware, loginLimiter)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
