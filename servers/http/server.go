package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	nethttp "net/http"
	"time"

	httpAdapter "github.com/gruzdev-dev/codex-users/adapters/http"
	"github.com/gruzdev-dev/codex-users/configs"

	"github.com/gorilla/mux"
)

type Server struct {
	cfg     *configs.Config
	handler *httpAdapter.Handler
}

func NewServer(cfg *configs.Config, handler *httpAdapter.Handler) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
	}
}

// Routes builds the full HTTP stack. Path cleaning wraps the router so it
// runs before route matching.
func (s *Server) Routes() nethttp.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", s.handler.HealthCheck).Methods("GET")
	router.HandleFunc("/readyz", s.handler.ReadinessCheck).Methods("GET")

	s.handler.RegisterRoutes(router)

	return httpAdapter.CleanPath(httpAdapter.Logging(router))
}

func (s *Server) Start(ctx context.Context) error {
	srv := &nethttp.Server{
		Addr:              ":" + s.cfg.HTTP.Port,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Server is running on http://localhost:%s", s.cfg.HTTP.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
	}

	log.Println("server exited")
	return nil
}
