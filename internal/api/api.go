// Package api provides the HTTP surface of the after-hours agent: the
// per-turn invocation endpoint the hosting voice platform calls, and the
// read-only dashboard API the dispatch frontend consumes.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/wireheat/afterhours/internal/flow"
	"github.com/wireheat/afterhours/internal/notify"
	"github.com/wireheat/afterhours/internal/store"
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr        string
	TokenSecret string
	CompanyName string
	PhoneNumber string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithTokenSecret sets the signing secret for dashboard guest tokens.
func WithTokenSecret(secret string) Option {
	return func(o *Opts) { o.TokenSecret = secret }
}

// WithCompanyName sets the company name reported to the dashboard.
func WithCompanyName(name string) Option {
	return func(o *Opts) { o.CompanyName = name }
}

// WithPhoneNumber sets the inbound service line reported to the dashboard.
func WithPhoneNumber(number string) Option {
	return func(o *Opts) { o.PhoneNumber = number }
}

// Server wires the dialogue engine, the ticket repository, and the
// websocket hub behind the HTTP mux.
type Server struct {
	engine      *flow.Engine
	repo        store.Repository
	hub         *notify.Hub
	tokenSecret []byte
	companyName string
	phoneNumber string
	addr        string
}

// NewServer creates an API server. Option values fall back to environment
// variables and then to defaults, in the same manner across the codebase.
func NewServer(engine *flow.Engine, repo store.Repository, hub *notify.Hub, options ...Option) *Server {
	opts := Opts{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Addr == "" {
		opts.Addr = os.Getenv("API_ADDR")
	}
	if opts.Addr == "" {
		opts.Addr = ":8000"
	}
	if opts.TokenSecret == "" {
		opts.TokenSecret = os.Getenv("TOKEN_SECRET")
	}
	if opts.CompanyName == "" {
		opts.CompanyName = os.Getenv("COMPANY_NAME")
	}
	if opts.CompanyName == "" {
		opts.CompanyName = "Wire Heating and Air"
	}
	if opts.PhoneNumber == "" {
		opts.PhoneNumber = os.Getenv("SERVICE_PHONE_NUMBER")
	}

	return &Server{
		engine:      engine,
		repo:        repo,
		hub:         hub,
		tokenSecret: []byte(opts.TokenSecret),
		companyName: opts.CompanyName,
		phoneNumber: opts.PhoneNumber,
		addr:        opts.Addr,
	}
}

// Handler returns the server's HTTP mux. Exposed separately from Run so
// tests can drive the full routing table through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/agent/invoke", s.invokeHandler)
	mux.HandleFunc("/agent/tools", s.toolsHandler)
	mux.HandleFunc("/api/requests", s.listRequestsHandler)
	mux.HandleFunc("/api/requests/", s.getRequestHandler)
	mux.HandleFunc("/api/config", s.configHandler)
	mux.HandleFunc("/get_token", s.tokenHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/ready", s.readyHandler)
	if s.hub != nil {
		mux.Handle("/ws", s.hub)
	}
	return mux
}

// Run starts the HTTP server and blocks until the context is canceled or
// the listener fails.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server.Run: shutdown failed", "error", err)
			return err
		}
		slog.Info("Server.Run: API server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
