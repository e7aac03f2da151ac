// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/tamzrod/sign-controller/internal/bridge"
	cfg "github.com/tamzrod/sign-controller/internal/config"
	"github.com/tamzrod/sign-controller/internal/protocol"
	"github.com/tamzrod/sign-controller/internal/store"
)

const (
	maxBody         = 4 << 10
	shutdownTimeout = 5 * time.Second
)

// Backend is what the HTTP surface drives.
type Backend interface {
	HandleCommand(payload []byte) error
	Info() bridge.Info
}

type reply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewRouter builds the /api routes. Basic auth applies when a username is
// configured.
func NewRouter(c cfg.APIConfig, b Backend) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(middleware.Timeout(c.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{},
	}))

	r.Route("/api", func(r chi.Router) {
		if c.Username != "" {
			r.Use(middleware.BasicAuth("sign", map[string]string{c.Username: c.Password}))
		}
		r.Post("/message", handleMessage(b))
		r.Get("/info", handleInfo(b))
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, reply{Status: "error", Message: "Endpoint not found"})
		})
	})

	return r
}

func handleMessage(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			writeJSON(w, http.StatusRequestEntityTooLarge, reply{Status: "error", Message: "Body too large"})
			return
		}
		if !json.Valid(body) {
			writeJSON(w, http.StatusBadRequest, reply{Status: "error", Message: "Invalid JSON"})
			return
		}

		if err := b.HandleCommand(body); err != nil {
			status := statusFor(err)
			log.Warn().Err(err).Int("status", status).Msg("api: command rejected")
			writeJSON(w, status, reply{Status: "error", Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, reply{Status: "success", Message: "Command accepted"})
	}
}

// statusFor maps a command failure onto an HTTP status.
func statusFor(err error) int {
	var encErr *protocol.EncodingError
	switch {
	case errors.Is(err, bridge.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.As(err, &encErr), errors.Is(err, store.ErrInvalidPolicy):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

func handleInfo(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, b.Info())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("api: write response")
	}
}

// Server serves the router until its context ends.
type Server struct {
	srv *http.Server
}

func New(c cfg.APIConfig, b Backend) *Server {
	return &Server{srv: &http.Server{
		Addr:              c.Listen,
		Handler:           NewRouter(c, b),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Run listens and blocks. Cancelling ctx shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("api: listening on %s", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
