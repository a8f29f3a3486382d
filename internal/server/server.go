// Package server exposes the demo form over HTTP, one form per visitor
// session.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/goliatone/go-formdemo/internal/config"
	"github.com/goliatone/go-formdemo/internal/session"
	"github.com/goliatone/go-formdemo/pkg/form"
	"github.com/goliatone/go-formdemo/pkg/model"
	"github.com/goliatone/go-formdemo/pkg/openapi"
	"github.com/goliatone/go-formdemo/pkg/render"
	"github.com/goliatone/go-formdemo/pkg/renderers/vanilla"
	"github.com/goliatone/go-formdemo/pkg/submit"
)

// CSRFFieldName is the hidden input carrying the session token.
const CSRFFieldName = "csrf_token"

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRenderer replaces the vanilla HTML renderer.
func WithRenderer(renderer render.Renderer) Option {
	return func(s *Server) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

// WithSink replaces the sink built from configuration.
func WithSink(sink submit.Sink) Option {
	return func(s *Server) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithForm replaces the demo catalogue.
func WithForm(form model.FormModel) Option {
	return func(s *Server) {
		s.form = form
	}
}

// Server owns the session store and the HTTP routes.
type Server struct {
	cfg      config.Config
	form     model.FormModel
	store    *session.Store
	renderer render.Renderer
	sink     submit.Sink
	theme    *render.ThemeConfig
	logger   *slog.Logger
	spec     []byte
	handler  http.Handler
}

// New wires a Server from cfg.
func New(ctx context.Context, cfg config.Config, options ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		form:   model.DemoForm(),
		logger: slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	theme, err := render.ResolveTheme(
		render.NewStaticSelector("", render.DefaultThemeManifest()),
		cfg.Theme.Name,
		cfg.Theme.Variant,
	)
	if err != nil {
		return nil, fmt.Errorf("server: resolve theme: %w", err)
	}
	s.theme = theme

	if s.renderer == nil {
		renderer, err := vanilla.New(vanilla.WithDefaultTheme(theme), vanilla.WithChangeURL(openapi.PathChange))
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.renderer = renderer
	}
	if s.sink == nil {
		s.sink = NewSink(cfg.Submit, s.logger)
	}

	s.spec, err = openapi.JSON(ctx, s.form, openapi.Options{})
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s.store = session.NewStore(
		func() *form.Component {
			return form.New(form.WithForm(s.form), form.WithSink(s.sink), form.WithLogger(s.logger))
		},
		session.WithIdleTimeout(cfg.Session.IdleTimeout),
		session.WithMaxSessions(cfg.Session.MaxSessions),
	)
	s.handler = s.routes()
	return s, nil
}

// NewSink builds the configured sink: the log sink, plus an HTTP sink when a
// webhook is set.
func NewSink(cfg config.Submit, logger *slog.Logger) submit.Sink {
	logSink := submit.NewLogSink(logger)
	logSink.Message = cfg.Message
	if cfg.WebhookURL == "" {
		return logSink
	}
	webhook := submit.NewHTTPSink(cfg.WebhookURL, cfg.Timeout)
	webhook.Headers = cfg.Headers
	webhook.Message = cfg.Message
	return submit.Multi{logSink, webhook}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Store exposes the session store.
func (s *Server) Store() *session.Store { return s.store }

// ListenAndServe serves on cfg.Server.Addr until ctx is done, then shuts down
// within the configured grace period.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.store.Run(sweepCtx, 0)

	s.logger.Info("listening", slog.String("addr", listener.Addr().String()))

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	grace := s.cfg.Server.ShutdownGrace
	if grace <= 0 {
		grace = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	s.logger.Info("shutting down", slog.Duration("grace", grace))
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
