package http_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/school-report-service/internal/adapter/http"
	"github.com/couchcryptid/school-report-service/internal/admin"
	"github.com/couchcryptid/school-report-service/internal/catalog"
	"github.com/couchcryptid/school-report-service/internal/domain"
	"github.com/couchcryptid/school-report-service/internal/mapcluster"
	"github.com/couchcryptid/school-report-service/internal/observability"
	"github.com/couchcryptid/school-report-service/internal/reportstore"
)

const testPassword = "rahasia"

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ReportEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.ReportEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

type fixture struct {
	srv       *httpadapter.Server
	store     *reportstore.Store
	publisher *recordingPublisher
	metrics   *observability.Metrics
	path      string
}

func testSchools() []domain.School {
	return []domain.School{
		{NPSN: "1", Name: "SMAN 3 BANDUNG", Status: domain.SchoolPublic, Accreditation: "A", Region: "Kota Bandung", Level: "SMA", Lat: -6.9094, Lon: 107.6137},
		{NPSN: "2", Name: "SMA PASUNDAN 1", Status: domain.SchoolPrivate, Accreditation: domain.UnknownAccreditation, Region: "Kota Bandung", Level: "SMA"},
		{NPSN: "3", Name: "SMKN 1 CIMAHI", Status: domain.SchoolPublic, Accreditation: "A", Region: "Kota Cimahi", Level: "SMK", Lat: -6.8841, Lon: 107.5413},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureAt(t, filepath.Join(t.TempDir(), "laporan_warga.csv"))
}

func newFixtureAt(t *testing.T, path string) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	store := reportstore.New(path, logger, metrics)
	require.NoError(t, store.Load())

	publisher := &recordingPublisher{}
	srv := httpadapter.NewServer(":0", httpadapter.Dependencies{
		Reports:   store,
		Schools:   catalog.New(testSchools()),
		Gate:      admin.NewGate(testPassword),
		Publisher: publisher,
		Ready:     &mockReadiness{},
		Metrics:   metrics,
	}, logger)

	return &fixture{srv: srv, store: store, publisher: publisher, metrics: metrics, path: path}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (f *fixture) unlock(t *testing.T) *http.Cookie {
	t.Helper()
	rec := f.do(t, jsonRequest(http.MethodPost, "/api/admin/session", `{"password":"`+testPassword+`"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReflectsCheckers(t *testing.T) {
	logger := slog.Default()
	notReady := httpadapter.NewServer(":0", httpadapter.Dependencies{
		Ready: httpadapter.AllReady(&mockReadiness{}, &mockReadiness{err: fmt.Errorf("school catalog is empty")}),
	}, logger)

	rec := httptest.NewRecorder()
	notReady.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready := httpadapter.NewServer(":0", httpadapter.Dependencies{
		Ready: httpadapter.AllReady(&mockReadiness{}, &mockReadiness{}),
	}, logger)
	rec = httptest.NewRecorder()
	ready.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// --- reports ---

func TestCreateReport_JSON(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, jsonRequest(http.MethodPost, "/api/reports",
		`{"reporter_name":"Budi","school_name":"SMAN 3 BANDUNG","description":"atap bocor"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Report       domain.Report `json:"report"`
		PersistError string        `json:"persist_error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Budi", body.Report.ReporterName)
	assert.Equal(t, domain.StatusNew, body.Report.Status)
	assert.NotEmpty(t, body.Report.ID)
	assert.Empty(t, body.PersistError)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.ReportSubmitted, f.publisher.events[0].Type)
	assert.Equal(t, body.Report, f.publisher.events[0].Report)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventsPublished.WithLabelValues("success")))

	data, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.Equal(t, "Pelapor,Sekolah,Ket,Status\nBudi,SMAN 3 BANDUNG,atap bocor,Baru\n", string(data))
}

func TestCreateReport_Form(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, formRequest(http.MethodPost, "/api/reports", url.Values{
		"reporter_name": {"Siti"},
		"school_name":   {"SMKN 1 CIMAHI"},
		"description":   {"toilet rusak, \"parah\""},
	}))
	require.Equal(t, http.StatusCreated, rec.Code)

	reports := f.store.List()
	require.Len(t, reports, 1)
	assert.Equal(t, `toilet rusak, "parah"`, reports[0].Description)
}

func TestCreateReport_FormCRLFSurvivesRestart(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, formRequest(http.MethodPost, "/api/reports", url.Values{
		"reporter_name": {"Dewi"},
		"school_name":   {"SMAN 3 BANDUNG"},
		"description":   {"baris satu\r\nbaris dua"},
	}))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Report domain.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "baris satu\nbaris dua", body.Report.Description)

	restarted := reportstore.New(f.path, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	require.NoError(t, restarted.Load())
	require.Len(t, restarted.List(), 1)
	assert.Equal(t, f.store.List()[0].Description, restarted.List()[0].Description)
}

func TestCreateReport_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"blank reporter", `{"reporter_name":"  ","school_name":"SMAN 3 BANDUNG","description":"x"}`, "reporter_name"},
		{"blank description", `{"reporter_name":"Budi","school_name":"SMAN 3 BANDUNG","description":""}`, "description"},
		{"unknown school", `{"reporter_name":"Budi","school_name":"SMA FIKTIF","description":"x"}`, "school_name"},
		{"missing school", `{"reporter_name":"Budi","description":"x"}`, "school_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(t, jsonRequest(http.MethodPost, "/api/reports", tt.body))
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantField, body["field"])
			assert.Empty(t, f.store.List())
			assert.Empty(t, f.publisher.events)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ValidationErrors))
		})
	}
}

func TestCreateReport_InvalidJSON(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, jsonRequest(http.MethodPost, "/api/reports", `{"reporter_name":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReport_PersistFailureStillAccepted(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	store := reportstore.New(filepath.Join(blocker, "laporan_warga.csv"), logger, metrics)

	srv := httpadapter.NewServer(":0", httpadapter.Dependencies{
		Reports: store,
		Schools: catalog.New(testSchools()),
		Gate:    admin.NewGate(testPassword),
		Ready:   &mockReadiness{},
		Metrics: metrics,
	}, logger)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/reports",
		`{"reporter_name":"Budi","school_name":"SMAN 3 BANDUNG","description":"atap bocor"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["persist_error"])
	assert.Len(t, store.List(), 1)
}

func TestCreateReport_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	rec := f.do(t, jsonRequest(http.MethodPost, "/api/reports",
		`{"reporter_name":"Budi","school_name":"SMAN 3 BANDUNG","description":"atap bocor"}`))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventsPublished.WithLabelValues("error")))
}

func TestListReports(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	_, err := f.store.Append("Budi", "SMAN 3 BANDUNG", "atap bocor")
	require.NoError(t, err)
	_, err = f.store.Append("Siti", "SMKN 1 CIMAHI", "toilet rusak")
	require.NoError(t, err)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	var reports []domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "Budi", reports[0].ReporterName)
	assert.Equal(t, "Siti", reports[1].ReporterName)
}

// --- admin gate ---

func TestUnlock(t *testing.T) {
	tests := []struct {
		name       string
		req        func() *http.Request
		wantStatus int
		wantCookie bool
		wantLabel  string
	}{
		{
			name:       "correct password json",
			req:        func() *http.Request { return jsonRequest(http.MethodPost, "/api/admin/session", `{"password":"rahasia"}`) },
			wantStatus: http.StatusOK,
			wantCookie: true,
			wantLabel:  "unlocked",
		},
		{
			name: "correct password form",
			req: func() *http.Request {
				return formRequest(http.MethodPost, "/api/admin/session", url.Values{"password": {testPassword}})
			},
			wantStatus: http.StatusOK,
			wantCookie: true,
			wantLabel:  "unlocked",
		},
		{
			name:       "wrong password",
			req:        func() *http.Request { return jsonRequest(http.MethodPost, "/api/admin/session", `{"password":"Rahasia"}`) },
			wantStatus: http.StatusUnauthorized,
			wantLabel:  "wrong_password",
		},
		{
			name:       "empty password",
			req:        func() *http.Request { return jsonRequest(http.MethodPost, "/api/admin/session", `{"password":""}`) },
			wantStatus: http.StatusNoContent,
			wantLabel:  "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, tt.req())

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCookie, len(rec.Result().Cookies()) == 1)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AdminLogins.WithLabelValues(tt.wantLabel)))

			switch tt.wantStatus {
			case http.StatusUnauthorized:
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, admin.WrongPasswordMessage, body["error"])
			case http.StatusNoContent:
				assert.Empty(t, rec.Body.String())
			}
		})
	}
}

func TestDeleteReport_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	r, err := f.store.Append("Budi", "SMAN 3 BANDUNG", "atap bocor")
	require.NoError(t, err)

	rec := f.do(t, httptest.NewRequest(http.MethodDelete, "/api/reports/"+r.ID, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/reports/"+r.ID, nil)
	req.AddCookie(&http.Cookie{Name: "admin_session", Value: "forged"})
	rec = f.do(t, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Len(t, f.store.List(), 1)
}

func TestDeleteReport(t *testing.T) {
	f := newFixture(t)
	first, err := f.store.Append("Budi", "SMAN 3 BANDUNG", "atap bocor")
	require.NoError(t, err)
	second, err := f.store.Append("Siti", "SMKN 1 CIMAHI", "toilet rusak")
	require.NoError(t, err)
	cookie := f.unlock(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/reports/"+first.ID, nil)
	req.AddCookie(cookie)
	rec := f.do(t, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, []domain.Report{second}, f.store.List())
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.ReportDeleted, f.publisher.events[0].Type)
	assert.Equal(t, first.ID, f.publisher.events[0].Report.ID)

	req = httptest.NewRequest(http.MethodDelete, "/api/reports/"+first.ID, nil)
	req.AddCookie(cookie)
	rec = f.do(t, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []domain.Report{second}, f.store.List())
}

func TestDeleteReport_PersistFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	f := newFixtureAt(t, filepath.Join(dir, "laporan_warga.csv"))
	report, err := f.store.Append("Budi", "SMAN 3 BANDUNG", "atap bocor")
	require.NoError(t, err)
	cookie := f.unlock(t)

	// Replace the report directory with a plain file so the rewrite fails.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o644))

	req := httptest.NewRequest(http.MethodDelete, "/api/reports/"+report.ID, nil)
	req.AddCookie(cookie)
	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Report       domain.Report `json:"report"`
		PersistError string        `json:"persist_error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, report, body.Report)
	assert.NotEmpty(t, body.PersistError)
	assert.Empty(t, f.store.List(), "deletion stays committed in memory")
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.PersistErrors), 0)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.ReportDeleted, f.publisher.events[0].Type)
}

func TestLock_EndsSession(t *testing.T) {
	f := newFixture(t)
	r, err := f.store.Append("Budi", "SMAN 3 BANDUNG", "atap bocor")
	require.NoError(t, err)
	cookie := f.unlock(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/session", nil)
	req.AddCookie(cookie)
	rec := f.do(t, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/reports/"+r.ID, nil)
	req.AddCookie(cookie)
	rec = f.do(t, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// --- schools ---

func TestSchools_Filter(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/schools?wilayah=Kota+Bandung&status=SWASTA", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var schools []domain.School
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schools))
	require.Len(t, schools, 1)
	assert.Equal(t, "SMA PASUNDAN 1", schools[0].Name)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/schools?bentuk=SMA&bentuk=SMK", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schools))
	assert.Len(t, schools, 3)
}

func TestSchoolNames(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/schools/names", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["SMA PASUNDAN 1","SMAN 3 BANDUNG","SMKN 1 CIMAHI"]`, rec.Body.String())
}

func TestSchoolOptions(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/schools/options", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var opts catalog.FilterOptions
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []string{"Kota Bandung", "Kota Cimahi"}, opts.Regions)
}

func TestSchoolSummary(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/schools/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var sum catalog.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Public)
	assert.Equal(t, 1, sum.Private)
	assert.Equal(t, "Kota Bandung", sum.TopRegion)
	require.Len(t, sum.Regions, 2)
	assert.True(t, sum.Regions[1].BelowAverage)
}

func TestSchoolExport(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/schools/export.csv?wilayah=Kota+Cimahi", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "data_sekolah.csv")

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SMKN 1 CIMAHI", rows[1][0])
}

func TestSchoolMap(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/schools/map?level=16", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var markers []mapcluster.Marker
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &markers))
	require.Len(t, markers, 2, "the school without coordinates is not placed")
	for _, m := range markers {
		assert.Equal(t, 1, m.Count)
		assert.NotEmpty(t, m.Name)
	}

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/schools/map?level=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCharts(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/dashboard/charts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Komposisi Status")
}
