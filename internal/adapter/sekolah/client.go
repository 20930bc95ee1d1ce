// Package sekolah scrapes the government school search API, one (region,
// level) pair at a time.
package sekolah

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/school-report-service/internal/domain"
	"github.com/couchcryptid/school-report-service/internal/observability"
)

// DefaultInterval is the minimum spacing between two page requests.
const DefaultInterval = 200 * time.Millisecond

// Regions and Levels are the search dimensions scraped by default.
var (
	Regions = []string{"Kota Bandung", "Kota Cimahi", "Kab. Bandung", "Kab. Sumedang", "Kab. Bandung Barat"}
	Levels  = []string{"SMA", "SMK", "SMAK", "MA"}
)

// Client pages through the school search endpoint.
type Client struct {
	url        string
	httpClient *http.Client
	pageSize   int
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a search client. All goroutines share one limiter, so
// interval bounds the overall request rate.
func NewClient(url string, pageSize int, timeout, interval time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		pageSize:   pageSize,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		metrics:    metrics,
		logger:     logger,
	}
}

type searchRequest struct {
	Page    int    `json:"page"`
	Size    int    `json:"size"`
	Keyword string `json:"keyword"`
	Region  string `json:"kabupaten_kota"`
	Level   string `json:"bentuk_pendidikan"`
	Status  string `json:"status_sekolah"`
}

type searchResponse struct {
	Data []searchRecord `json:"data"`
}

type searchRecord struct {
	Name          domain.Loose `json:"nama"`
	NPSN          domain.Loose `json:"npsn"`
	Status        domain.Loose `json:"status_sekolah"`
	Accreditation domain.Loose `json:"akreditasi"`
	Lat           domain.Loose `json:"lintang"`
	Lon           domain.Loose `json:"bujur"`
	Address       domain.Loose `json:"alamat_jalan"`
}

// errStatus is returned for non-200 responses.
type errStatus struct {
	code int
	body string
}

func (e *errStatus) Error() string {
	return fmt.Sprintf("search API error: status %d: %s", e.code, e.body)
}

// Page fetches one page of schools for a region and level. The region and
// level are stamped onto every record.
func (c *Client) Page(ctx context.Context, region, level string, page int) ([]domain.School, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	body, err := json.Marshal(searchRequest{Page: page, Size: c.pageSize, Region: region, Level: level})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ScrapeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ScrapeRequests.WithLabelValues("error").Inc()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &errStatus{code: resp.StatusCode, body: string(msg)}
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		c.metrics.ScrapeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(sr.Data) == 0 {
		c.metrics.ScrapeRequests.WithLabelValues("empty").Inc()
		return nil, nil
	}
	c.metrics.ScrapeRequests.WithLabelValues("success").Inc()

	out := make([]domain.School, len(sr.Data))
	for i, r := range sr.Data {
		out[i] = domain.NormalizeSchool(domain.RawSchoolRecord{
			NPSN:          r.NPSN,
			Name:          r.Name,
			Status:        r.Status,
			Accreditation: r.Accreditation,
			Lat:           r.Lat,
			Lon:           r.Lon,
			Address:       r.Address,
			Region:        domain.Loose(region),
			Level:         domain.Loose(level),
		})
	}
	return out, nil
}

// Fetch pages through one region and level until an empty page. A failed
// page ends the pair with what was collected so far; only cancellation is
// returned as an error.
func (c *Client) Fetch(ctx context.Context, region, level string) ([]domain.School, error) {
	var all []domain.School
	for page := 0; ; page++ {
		schools, err := c.Page(ctx, region, level, page)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			var se *errStatus
			if errors.As(err, &se) {
				c.logger.Warn("search API refused page, stopping", "region", region, "level", level, "page", page, "status", se.code)
			} else {
				c.logger.Warn("search page failed, stopping", "region", region, "level", level, "page", page, "error", err)
			}
			return all, nil
		}
		if len(schools) == 0 {
			c.logger.Info("scraped region", "region", region, "level", level, "count", len(all))
			return all, nil
		}
		all = append(all, schools...)
	}
}

// Scrape fetches every (region, level) pair, running one goroutine per region.
// Results keep region-then-level order regardless of completion order.
func (c *Client) Scrape(ctx context.Context, regions, levels []string) ([]domain.School, error) {
	results := make([][]domain.School, len(regions)*len(levels))

	g, ctx := errgroup.WithContext(ctx)
	for ri, region := range regions {
		g.Go(func() error {
			for li, level := range levels {
				schools, err := c.Fetch(ctx, region, level)
				if err != nil {
					return err
				}
				results[ri*len(levels)+li] = schools
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.School
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}
