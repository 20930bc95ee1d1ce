package http

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/couchcryptid/school-report-service/internal/domain"
)

const publishTimeout = 5 * time.Second

type createReportRequest struct {
	ReporterName string `json:"reporter_name"`
	SchoolName   string `json:"school_name"`
	Description  string `json:"description"`
}

// reportResponse carries a mutated report. PersistError is set when the
// change is live in memory but the report file could not be rewritten.
type reportResponse struct {
	Report       domain.Report `json:"report"`
	PersistError string        `json:"persist_error,omitempty"`
}

const persistErrorMessage = "change applied in memory only; durable write failed"

func (s *Server) handleListReports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Reports.List())
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateReport(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.deps.Schools.HasSchool(req.SchoolName) {
		s.deps.Metrics.ValidationErrors.Inc()
		verr := &domain.ValidationError{Field: "school_name", Reason: "is not a known school"}
		if req.SchoolName == "" {
			verr.Reason = ""
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
		return
	}

	report, err := s.deps.Reports.Append(req.ReporterName, req.SchoolName, req.Description)
	var verr *domain.ValidationError
	var perr *domain.PersistenceError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
		return
	case errors.As(err, &perr):
		s.logger.Error("report accepted but not persisted", "report_id", report.ID, "path", perr.Path, "error", perr.Err)
	case err != nil:
		s.logger.Error("append report", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info("report submitted", "report_id", report.ID, "school", report.SchoolName)
	s.publish(r.Context(), domain.NewReportEvent(domain.ReportSubmitted, report))

	resp := reportResponse{Report: report}
	if perr != nil {
		resp.PersistError = persistErrorMessage
	}
	writeJSON(w, http.StatusCreated, resp)
}

func decodeCreateReport(r *http.Request) (createReportRequest, error) {
	var req createReportRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errors.New("invalid JSON body")
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, errors.New("invalid form body")
	}
	req.ReporterName = r.PostForm.Get("reporter_name")
	req.SchoolName = r.PostForm.Get("school_name")
	req.Description = r.PostForm.Get("description")
	return req, nil
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	report, err := s.deps.Reports.Delete(id)
	var perr *domain.PersistenceError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "report not found")
		return
	case errors.As(err, &perr):
		s.logger.Error("report deleted but not persisted", "report_id", id, "path", perr.Path, "error", perr.Err)
	case err != nil:
		s.logger.Error("delete report", "report_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info("report deleted", "report_id", id)
	s.publish(r.Context(), domain.NewReportEvent(domain.ReportDeleted, report))

	if perr != nil {
		writeJSON(w, http.StatusOK, reportResponse{Report: report, PersistError: persistErrorMessage})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// publish forwards an event without failing the request.
func (s *Server) publish(ctx context.Context, event domain.ReportEvent) {
	if s.deps.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.deps.Publisher.Publish(ctx, event); err != nil {
		s.deps.Metrics.EventsPublished.WithLabelValues("error").Inc()
		s.logger.Warn("publish report event", "type", event.Type, "report_id", event.Report.ID, "error", err)
		return
	}
	s.deps.Metrics.EventsPublished.WithLabelValues("success").Inc()
}
