// Package httpapi exposes the GeoCam JSON API over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/and161185/geocam/internal/convert"
	"github.com/and161185/geocam/internal/model"
	"github.com/and161185/geocam/internal/service"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Server wires services into HTTP handlers.
type Server struct {
	auth   service.AuthService
	photos service.PhotoService
	log    *zap.Logger
	checks []namedCheck
}

type namedCheck struct {
	name  string
	check HealthCheck
}

// Option configures a Server.
type Option func(*Server)

// WithHealthCheck adds a dependency checked by GET /healthz. Checks run in the order added.
func WithHealthCheck(name string, c HealthCheck) Option {
	return func(s *Server) { s.checks = append(s.checks, namedCheck{name: name, check: c}) }
}

// New constructs a Server with injected services.
func New(auth service.AuthService, photos service.PhotoService, log *zap.Logger, opts ...Option) *Server {
	s := &Server{auth: auth, photos: photos, log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router returns the routing table with logging and panic recovery applied.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(Recover(s.log), Logging(s.log))

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.requireAuth(s.logout)).Methods(http.MethodPost)
	r.HandleFunc("/photos", s.requireAuth(s.createPhoto)).Methods(http.MethodPost)
	r.HandleFunc("/photos", s.requireAuth(s.listPhotos)).Methods(http.MethodGet)

	// mux skips r.Use middleware for unmatched requests.
	wrap := func(h http.HandlerFunc) http.Handler { return Recover(s.log)(Logging(s.log)(h)) }
	r.NotFoundHandler = wrap(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = wrap(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for _, c := range s.checks {
		if err := c.check(ctx); err != nil {
			s.log.Warn("health check failed", zap.String("dep", c.name), zap.Error(err))
			writeMessage(w, http.StatusServiceUnavailable, c.name+" unavailable")
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req convert.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := s.auth.Register(r.Context(), req.Name, req.Email, req.Password, req.PasswordConfirmation)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, convert.Created{ID: id.String()})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req convert.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tok, u, err := s.auth.LoginWithIP(r.Context(), req.Email, req.Password, r.RemoteAddr)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToLoginResponse(tok, u))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	c, _ := ClaimsFromCtx(r.Context())
	if err := s.auth.Revoke(r.Context(), c); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createPhoto(w http.ResponseWriter, r *http.Request) {
	c, _ := ClaimsFromCtx(r.Context())
	var req model.UploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.photos.Upload(r.Context(), c.UserID, req)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, convert.Created{ID: p.ID.String()})
}

func (s *Server) listPhotos(w http.ResponseWriter, r *http.Request) {
	c, _ := ClaimsFromCtx(r.Context())
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	ps, err := s.photos.List(r.Context(), c.UserID, limit)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToPhotoList(ps))
}
