package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/goliatone/go-formdemo/internal/session"
	"github.com/goliatone/go-formdemo/pkg/agent"
	"github.com/goliatone/go-formdemo/pkg/form"
	"github.com/goliatone/go-formdemo/pkg/openapi"
	"github.com/goliatone/go-formdemo/pkg/render"
	"github.com/goliatone/go-formdemo/pkg/renderers/vanilla"
	"github.com/goliatone/go-formdemo/pkg/state"
	"github.com/goliatone/go-formdemo/pkg/submit"
)

// PathAgent runs the form agent against the caller's session.
const PathAgent = "/agent/run"

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc(openapi.PathForm, s.handleForm)
	mux.HandleFunc(openapi.PathChange, s.handleChange)
	mux.HandleFunc(openapi.PathSubmit, s.handleSubmit)
	mux.HandleFunc(openapi.PathState, s.handleState)
	mux.HandleFunc(openapi.PathSpec, s.handleSpec)
	mux.HandleFunc(PathAgent, s.handleAgent)
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServerFS(vanilla.AssetsFS())))
	mux.HandleFunc(openapi.PathHealth, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return s.logRequests(mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, openapi.PathForm, http.StatusFound)
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowedWith(w, http.MethodGet)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.renderSession(w, r, sess, nil)
}

func (s *Server) handleChange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowedWith(w, http.MethodPost)
		return
	}
	sess, ok := s.postSession(w, r)
	if !ok {
		return
	}

	ev := state.ChangeEventFromForm(s.form, r.PostForm, multipartFiles(r))
	if strings.TrimSpace(ev.Name) == "" {
		http.Error(w, "field name is required", http.StatusBadRequest)
		return
	}
	_ = sess.Do(func(c *form.Component) error {
		c.HandleChange(ev)
		return nil
	})
	s.renderSession(w, r, sess, nil)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowedWith(w, http.MethodPost)
		return
	}
	sess, ok := s.postSession(w, r)
	if !ok {
		return
	}

	var ack submit.Ack
	_ = sess.Do(func(c *form.Component) error {
		c.HandleForm(r.PostForm, multipartFiles(r))
		ack = c.Submit(r.Context())
		return nil
	})

	if wantsJSON(r) {
		writeJSON(w, s.logger, http.StatusOK, ack)
		return
	}
	s.renderSession(w, r, sess, &render.Flash{Level: render.FlashSuccess, Message: ack.Message})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowedWith(w, http.MethodGet)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var record state.FormState
	_ = sess.Do(func(c *form.Component) error {
		record = c.State()
		return nil
	})
	writeJSON(w, s.logger, http.StatusOK, record)
}

func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowedWith(w, http.MethodGet)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(s.spec); err != nil {
		s.logger.Warn("write openapi document", slog.Any("error", err))
	}
}

// handleAgent fills and submits a fresh component with generated values and
// replies with the agent report. The caller's session record is untouched.
func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowedWith(w, http.MethodPost)
		return
	}
	if _, ok := s.postSession(w, r); !ok {
		return
	}

	scratch := form.New(form.WithForm(s.form), form.WithSink(s.sink), form.WithLogger(s.logger))
	target := agent.NewLocalTarget(scratch, s.renderer)
	report, runErr := agent.New(target, agent.WithLogger(s.logger), agent.WithFormID(s.form.ID)).Run(r.Context())
	if runErr != nil {
		s.logger.Error("agent run failed", slog.Any("error", runErr))
		writeJSON(w, s.logger, http.StatusInternalServerError, report)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, report)
}

func (s *Server) renderSession(w http.ResponseWriter, r *http.Request, sess *session.Session, flash *render.Flash) {
	opts := render.RenderOptions{
		Flash:    flash,
		Fragment: isPartial(r),
		Theme:    s.theme,
	}
	if s.cfg.Server.CSRF {
		opts.HiddenFields = render.MergeHiddenFields(nil, render.CSRFToken(CSRFFieldName, sess.CSRFToken))
	}

	var (
		out []byte
		err error
	)
	_ = sess.Do(func(c *form.Component) error {
		out, err = c.Render(r.Context(), s.renderer, opts)
		return nil
	})
	if err != nil {
		s.logger.Error("render form", slog.Any("error", err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", s.renderer.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(out); err != nil {
		s.logger.Warn("write response", slog.Any("error", err))
	}
}

// session resolves the caller's session, creating one and setting the cookie
// when needed.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := ""
	if cookie, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
		id = cookie.Value
	}
	sess, created, err := s.store.GetOrCreate(id)
	if err != nil {
		s.logger.Error("create session", slog.Any("error", err))
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return nil, false
	}
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     s.cfg.Session.CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   r.TLS != nil,
		})
	}
	return sess, true
}

// postSession parses the body and checks the CSRF token.
func (s *Server) postSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	if limit := s.cfg.Server.MaxUploadBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := parseBody(r); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, "invalid form payload", status)
		return nil, false
	}

	sess, ok := s.session(w, r)
	if !ok {
		return nil, false
	}
	if s.cfg.Server.CSRF {
		token := r.PostForm.Get(CSRFFieldName)
		if token == "" {
			token = r.Header.Get("X-CSRF-Token")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(sess.CSRFToken)) != 1 {
			s.logger.Warn("csrf token mismatch", slog.String("path", r.URL.Path))
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return nil, false
		}
	}
	return sess, true
}

func parseBody(r *http.Request) error {
	err := r.ParseMultipartForm(32 << 20)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func multipartFiles(r *http.Request) map[string][]*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File
}

func isPartial(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("write json response", slog.Any("error", err))
	}
}

func methodNotAllowedWith(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
