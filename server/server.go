package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/nebula-bridge/internal/config"
	"github.com/jrsteele09/nebula-bridge/userpool"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	repos    userpool.Repos
	pool     *userpool.Service // nil unless the local pool is enabled
	verifier TokenVerifier     // nil when the API is open
}

// Option customises a Server before it is initialised.
type Option func(*Server)

// WithTokenVerifier replaces the verifier chosen from configuration.
func WithTokenVerifier(v TokenVerifier) Option {
	return func(s *Server) {
		s.verifier = v
	}
}

func New(ctx context.Context, config config.Config, repos userpool.Repos, options ...Option) (*Server, error) {
	s := &Server{
		env:    config.GetEnv(),
		mux:    http.NewServeMux(),
		config: config,
		repos:  repos,
	}

	for _, opt := range options {
		opt(s)
	}

	// Bootstrap: local pool, its app client, and the API's token verifier
	if err := s.InitialiseSystem(ctx); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

// Pool is the local user pool, or nil when a managed pool is used.
func (s *Server) Pool() *userpool.Service {
	return s.pool
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}
