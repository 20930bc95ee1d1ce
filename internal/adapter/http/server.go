package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/school-report-service/internal/admin"
	"github.com/couchcryptid/school-report-service/internal/catalog"
	"github.com/couchcryptid/school-report-service/internal/domain"
	"github.com/couchcryptid/school-report-service/internal/observability"
)

// ReportStore is the report workflow the API drives.
type ReportStore interface {
	List() []domain.Report
	Append(reporterName, schoolName, description string) (domain.Report, error)
	Delete(id string) (domain.Report, error)
}

// SchoolDirectory is the read side of the school catalog.
type SchoolDirectory interface {
	domain.SchoolCatalog
	Filter(f catalog.Filter) []domain.School
	Options() catalog.FilterOptions
}

// Dependencies wires the server to its collaborators. Publisher may be nil.
type Dependencies struct {
	Reports   ReportStore
	Schools   SchoolDirectory
	Gate      *admin.Gate
	Publisher domain.EventPublisher
	Ready     sharedobs.ReadinessChecker
	Metrics   *observability.Metrics
}

// Server exposes the report API, the school dashboard endpoints, and health,
// readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	deps       Dependencies
	logger     *slog.Logger
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(addr string, deps Dependencies, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("POST /api/reports", s.handleCreateReport)
	mux.HandleFunc("DELETE /api/reports/{id}", s.requireAdmin(s.handleDeleteReport))

	mux.HandleFunc("POST /api/admin/session", s.handleUnlock)
	mux.HandleFunc("DELETE /api/admin/session", s.handleLock)

	mux.HandleFunc("GET /api/schools", s.handleSchools)
	mux.HandleFunc("GET /api/schools/names", s.handleSchoolNames)
	mux.HandleFunc("GET /api/schools/options", s.handleSchoolOptions)
	mux.HandleFunc("GET /api/schools/summary", s.handleSchoolSummary)
	mux.HandleFunc("GET /api/schools/export.csv", s.handleSchoolExport)
	mux.HandleFunc("GET /api/schools/map", s.handleSchoolMap)
	mux.HandleFunc("GET /dashboard/charts", s.handleCharts)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// AllReady combines readiness checkers; the first failure wins.
func AllReady(checkers ...sharedobs.ReadinessChecker) sharedobs.ReadinessChecker {
	return readinessGroup(checkers)
}

type readinessGroup []sharedobs.ReadinessChecker

func (g readinessGroup) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, c := range g {
		if err := c.CheckReadiness(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
