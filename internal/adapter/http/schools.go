package http

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"

	"github.com/couchcryptid/school-report-service/internal/catalog"
	"github.com/couchcryptid/school-report-service/internal/dashboard"
	"github.com/couchcryptid/school-report-service/internal/mapcluster"
)

// filterFromQuery reads the repeatable filter parameters. Absent parameters
// select everything.
func filterFromQuery(q url.Values) catalog.Filter {
	return catalog.Filter{
		Regions:        q["wilayah"],
		Levels:         q["bentuk"],
		Statuses:       q["status"],
		Accreditations: q["akreditasi"],
	}
}

func (s *Server) handleSchools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Schools.Filter(filterFromQuery(r.URL.Query())))
}

func (s *Server) handleSchoolNames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Schools.ListDistinctSchoolNames())
}

func (s *Server) handleSchoolOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Schools.Options())
}

func (s *Server) handleSchoolSummary(w http.ResponseWriter, r *http.Request) {
	schools := s.deps.Schools.Filter(filterFromQuery(r.URL.Query()))
	writeJSON(w, http.StatusOK, catalog.Summarize(schools))
}

func (s *Server) handleSchoolExport(w http.ResponseWriter, r *http.Request) {
	schools := s.deps.Schools.Filter(filterFromQuery(r.URL.Query()))

	var buf bytes.Buffer
	if err := catalog.WriteCSV(&buf, schools); err != nil {
		s.logger.Error("export schools", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="data_sekolah.csv"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSchoolMap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	level := mapcluster.DefaultLevel
	if v := q.Get("level"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "level must be an integer")
			return
		}
		level = n
	}

	points := mapcluster.PointsFromSchools(s.deps.Schools.Filter(filterFromQuery(q)))
	writeJSON(w, http.StatusOK, mapcluster.Cluster(points, level))
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	schools := s.deps.Schools.Filter(filterFromQuery(r.URL.Query()))

	var buf bytes.Buffer
	if err := dashboard.Render(&buf, catalog.Summarize(schools), schools); err != nil {
		s.logger.Error("render charts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
