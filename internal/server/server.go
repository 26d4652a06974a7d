package server

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xpasha85/treadlogic-server/internal/workouts"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc      *workouts.Service
	log      *slog.Logger
	apiToken string
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(svc *workouts.Service, apiToken string, log *slog.Logger) *Server {
	s := &Server{
		svc:      svc,
		log:      log,
		apiToken: apiToken,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestID)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	// Workout collection (bearer token required)
	s.router.Route("/workouts", func(r chi.Router) {
		r.Use(BearerAuth(s.apiToken))
		r.Get("/", s.handleListWorkouts)
		r.Post("/", s.handleUpsertWorkout)
		r.Delete("/{id}", s.handleDeleteWorkout)
	})
}

// SetStatic serves the admin page at / and /admin, and every file of
// staticFS under /static/.
func (s *Server) SetStatic(staticFS fs.FS) {
	admin := func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, staticFS, "admin.html")
	}
	s.router.Get("/", admin)
	s.router.Get("/admin", admin)
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFS)))
}

// SetMCP mounts an MCP transport handler at /mcp behind the bearer token.
func (s *Server) SetMCP(h http.Handler) {
	s.router.With(BearerAuth(s.apiToken)).Handle("/mcp", h)
}
