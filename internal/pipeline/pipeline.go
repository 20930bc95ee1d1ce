// Package pipeline builds the school dataset offline: scrape the search API,
// clean the records, fill in missing coordinates, and write the JSON file the
// server loads.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/school-report-service/internal/catalog"
	"github.com/couchcryptid/school-report-service/internal/domain"
)

// Extractor produces raw school records.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.School, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context) ([]domain.School, error)

func (f ExtractorFunc) Extract(ctx context.Context) ([]domain.School, error) { return f(ctx) }

// Transformer enriches one cleaned record.
type Transformer interface {
	Transform(ctx context.Context, school domain.School) domain.School
}

// Loader writes the final dataset.
type Loader interface {
	Load(ctx context.Context, schools []domain.School) error
}

// Stats summarises one run.
type Stats struct {
	Scraped       int
	Cleaned       int
	Geocoded      int
	GeocodeFailed int
	Duration      time.Duration
}

const (
	extractAttempts   = 3
	initialBackoff    = 200 * time.Millisecond
	maxExtractBackoff = 5 * time.Second
)

// Pipeline orchestrates extract, clean, transform, and load.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      Loader
	logger      *slog.Logger
}

// New creates a Pipeline with the given stages.
func New(e Extractor, t Transformer, l Loader, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
	}
}

// Run executes one full pass. Nothing is written unless every stage before the
// load succeeded.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	var stats Stats

	raw, err := p.extract(ctx)
	if err != nil {
		return stats, err
	}
	stats.Scraped = len(raw)

	cleaned := catalog.Clean(raw)
	stats.Cleaned = len(cleaned)
	p.logger.Info("schools cleaned", "scraped", stats.Scraped, "kept", stats.Cleaned)

	enriched, geocoded, failed, err := Enrich(ctx, cleaned, p.transformer)
	if err != nil {
		return stats, err
	}
	stats.Geocoded, stats.GeocodeFailed = geocoded, failed

	if err := p.loader.Load(ctx, enriched); err != nil {
		return stats, fmt.Errorf("load schools: %w", err)
	}

	stats.Duration = time.Since(start)
	p.logger.Info("pipeline finished",
		"schools", len(enriched),
		"geocoded", stats.Geocoded,
		"geocode_failed", stats.GeocodeFailed,
		"duration", stats.Duration,
	)
	return stats, nil
}

// extract retries transient failures with exponential backoff.
func (p *Pipeline) extract(ctx context.Context) ([]domain.School, error) {
	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= extractAttempts; attempt++ {
		raw, err := p.extractor.Extract(ctx)
		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		p.logger.Warn("extract failed", "attempt", attempt, "error", err)

		if attempt == extractAttempts || !sleepWithContext(ctx, backoff) {
			break
		}
		backoff = nextBackoff(backoff, maxExtractBackoff)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, fmt.Errorf("extract schools after %d attempts: %w", extractAttempts, lastErr)
}

// Enrich runs t over every school that lacks coordinates and counts the
// outcomes. It stops early only when ctx is cancelled.
func Enrich(ctx context.Context, schools []domain.School, t Transformer) (out []domain.School, geocoded, failed int, err error) {
	out = make([]domain.School, len(schools))
	for i, s := range schools {
		if err := ctx.Err(); err != nil {
			return nil, geocoded, failed, err
		}
		needed := !s.HasCoordinates()
		out[i] = t.Transform(ctx, s)
		if !needed {
			continue
		}
		if out[i].HasCoordinates() {
			geocoded++
		} else {
			failed++
		}
	}
	return out, geocoded, failed, nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
