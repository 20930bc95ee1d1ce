// Package reportstore keeps the ordered list of citizen reports and mirrors it
// to a CSV file after every mutation.
package reportstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/school-report-service/internal/atomicfile"
	"github.com/couchcryptid/school-report-service/internal/domain"
	"github.com/couchcryptid/school-report-service/internal/observability"
)

// Store is the single source of truth for reports within one process. All
// operations are serialized by one mutex, so positional indices observed by a
// caller stay valid only until its next call.
type Store struct {
	path    string
	logger  *slog.Logger
	metrics *observability.Metrics

	mu            sync.Mutex
	reports       []domain.Report
	nextID        uint64
	loaded        bool
	lastPersisted time.Time
}

// New creates an empty store backed by the file at path. Call Load before use.
func New(path string, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		path:    path,
		logger:  logger,
		metrics: metrics,
	}
}

// Path returns the durable file location.
func (s *Store) Path() string { return s.path }

// Load replaces the in-memory list with the contents of the durable file. A
// missing file yields an empty store. A file that exists but cannot be parsed
// also leaves the store empty and returns a *domain.LoadParseError; the store
// is still usable, but the next mutation will overwrite the unreadable file.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = nil
	s.loaded = true
	defer s.updateGauge()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("report file not found, starting empty", "path", s.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("open report file: %w", err)
	}
	defer f.Close()

	reports, err := decodeReports(f)
	if err != nil {
		return &domain.LoadParseError{Path: s.path, Err: err}
	}

	for i := range reports {
		reports[i].ID = s.newID()
	}
	s.reports = reports
	s.logger.Info("reports loaded", "path", s.path, "count", len(reports))
	return nil
}

// Append adds a report with status New to the end of the list and persists.
// Reporter name and description must be non-blank; the school name is not
// checked here. CRLF line breaks in any field are stored as LF, the form the
// file reader returns them in. On a persistence failure the report is still appended and
// returned together with a *domain.PersistenceError.
func (s *Store) Append(reporterName, schoolName, description string) (domain.Report, error) {
	if strings.TrimSpace(reporterName) == "" {
		s.metrics.ValidationErrors.Inc()
		return domain.Report{}, &domain.ValidationError{Field: "reporter_name"}
	}
	if strings.TrimSpace(description) == "" {
		s.metrics.ValidationErrors.Inc()
		return domain.Report{}, &domain.ValidationError{Field: "description"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := domain.Report{
		ID:           s.newID(),
		ReporterName: normalizeLineBreaks(reporterName),
		SchoolName:   normalizeLineBreaks(schoolName),
		Description:  normalizeLineBreaks(description),
		Status:       domain.StatusNew,
	}
	s.reports = append(s.reports, r)
	s.metrics.ReportsSubmitted.Inc()
	s.updateGauge()

	return r, s.persistLocked()
}

// List returns a copy of the reports in insertion order.
func (s *Store) List() []domain.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Report, len(s.reports))
	copy(out, s.reports)
	return out
}

// Len returns the number of reports.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

// DeleteAt removes the report at a positional index and persists. Indices
// outside [0, Len) return domain.ErrIndexOutOfRange without mutating.
func (s *Store) DeleteAt(index int) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.reports) {
		return domain.Report{}, fmt.Errorf("%w: index %d, %d reports", domain.ErrIndexOutOfRange, index, len(s.reports))
	}
	return s.removeLocked(index)
}

// Delete removes the report with the given ID and persists. Unknown IDs
// return domain.ErrNotFound without mutating.
func (s *Store) Delete(id string) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.reports {
		if s.reports[i].ID == id {
			return s.removeLocked(i)
		}
	}
	return domain.Report{}, fmt.Errorf("%w: id %q", domain.ErrNotFound, id)
}

// Persist rewrites the durable file from the in-memory list. An empty list
// writes a header-only file.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// LastPersisted returns the time of the last successful write, or the zero
// time if nothing has been written by this process.
func (s *Store) LastPersisted() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPersisted
}

// CheckReadiness returns an error until Load has been called.
func (s *Store) CheckReadiness(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return errors.New("report store not loaded")
	}
	return nil
}

func (s *Store) removeLocked(i int) (domain.Report, error) {
	removed := s.reports[i]
	s.reports = slices.Delete(s.reports, i, i+1)
	s.metrics.ReportsDeleted.Inc()
	s.updateGauge()
	return removed, s.persistLocked()
}

func (s *Store) persistLocked() error {
	start := time.Now()
	snapshot := s.reports

	err := atomicfile.Write(s.path, func(w io.Writer) error {
		return encodeReports(w, snapshot)
	})
	if err != nil {
		s.metrics.PersistErrors.Inc()
		s.logger.Error("persist reports failed", "path", s.path, "count", len(snapshot), "error", err)
		return &domain.PersistenceError{Path: s.path, Err: err}
	}

	s.metrics.PersistDuration.Observe(time.Since(start).Seconds())
	s.lastPersisted = domain.Now()
	s.logger.Debug("reports persisted", "path", s.path, "count", len(snapshot))
	return nil
}

func normalizeLineBreaks(v string) string {
	return strings.ReplaceAll(v, "\r\n", "\n")
}

func (s *Store) newID() string {
	s.nextID++
	return strconv.FormatUint(s.nextID, 10)
}

func (s *Store) updateGauge() {
	s.metrics.ReportsStored.Set(float64(len(s.reports)))
}
