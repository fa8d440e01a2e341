// Package httpapi exposes the admin reporting and backfill endpoints.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/assolib/assolib-manager/internal/backfill"
	"github.com/assolib/assolib-manager/internal/dependency"
	"github.com/assolib/assolib-manager/internal/report"
)

// Config is the configuration for the http server
type Config struct {
	Port           string   `mapstructure:"port"`
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
}

// Server is the http server
type Server struct {
	hs       *http.Server
	c        *Config
	reports  *report.Service
	backfill *backfill.Service
	repo     dependency.Repository
	auth     *jwtauth.JWTAuth
	done     chan struct{}
}

// New creates a new server
func New(config *Config, reports *report.Service, bf *backfill.Service, repo dependency.Repository) *Server {
	return &Server{
		c:        config,
		reports:  reports,
		backfill: bf,
		repo:     repo,
		auth:     jwtauth.New("HS256", []byte(config.JWTSecret), nil),
		done:     make(chan struct{}),
	}
}

// Done returns a channel that is closed when the http server exits
func (s *Server) Done() <-chan struct{} {
	return s.done
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.c.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(jwtauth.Verifier(s.auth))
		r.Use(jwtauth.Authenticator)

		r.Get("/reports/platform", s.handlePlatformReport)
		r.Get("/reports/associations/{associationID}", s.handleAssociationReport)
		r.Get("/associations/{associationID}/transactions", s.handleListTransactions)
		r.Get("/orders/{orderID}", s.handleGetOrder)
		r.Post("/orders/{orderID}/delivery-status", s.handleSetDeliveryStatus)
		r.Post("/orders/{orderID}/fisc-status", s.handleSetFiscStatus)
		r.Post("/orders/{orderID}/exported", s.handleSetExported)
		r.Post("/backfill/transactions", s.handleBackfill)
	})

	return r
}

// Start starts the server. It returns once the listener goroutine is up;
// watch Done for the exit.
func (s *Server) Start(ctx context.Context) error {
	listenerAddr := fmt.Sprintf("%s:%s", s.c.Address, s.c.Port)
	s.hs = &http.Server{
		Addr:    listenerAddr,
		Handler: h2c.NewHandler(s.router(), &http2.Server{}),
	}

	go func() {
		slog.Default().InfoContext(ctx, fmt.Sprintf("assolib-manager new listener on: http://%v", listenerAddr))
		err := s.hs.ListenAndServe()
		if err == http.ErrServerClosed {
			slog.Default().InfoContext(ctx, "http server returned")
		} else {
			slog.Default().ErrorContext(ctx, "http server exited with an error",
				slog.String("err", err.Error()),
			)
		}
		close(s.done)
	}()

	return nil
}

// Stop shuts the listener down, draining in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if s.hs == nil {
		return nil
	}
	return s.hs.Shutdown(ctx)
}
