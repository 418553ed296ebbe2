package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/fitplan/internal/session"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	sessions *session.Manager
	log      *slog.Logger
	apiKey   string
	whois    whoIser
	router   chi.Router
}

// New creates a new Server with all routes configured. An empty apiKey
// leaves the mutating routes open.
func New(sessions *session.Manager, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		sessions: sessions,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches caller identity from the local dev user to the
// tailnet peer reported by WhoIs. Call it before serving.
func (s *Server) SetTailscale(lc whoIser) {
	s.whois = lc
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Get("/api/v1/health", s.handleHealth)
	s.router.Get("/api/v1/me", s.handleMe)

	s.router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/", s.handleOpenSession)
			r.Delete("/{id}", s.handleCloseSession)
			r.Post("/{id}/select", s.handleSelectDay)
			r.Post("/{id}/toggle", s.handleToggleExercise)
		})

		r.Get("/{id}", s.handleGetSession)
		r.Get("/{id}/plan", s.handlePlan)
		r.Get("/{id}/day", s.handleCurrentDay)
		r.Get("/{id}/completion", s.handleCompletion)
		r.Get("/{id}/events", s.handleEvents)
	})
}

// identity attaches the caller's UserInfo to the request context.
func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.log)(next).ServeHTTP(w, r)
	})
}
