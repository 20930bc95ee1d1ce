package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/school-report-service/internal/catalog"
	"github.com/couchcryptid/school-report-service/internal/domain"
)

// GeocodeTransformer implements Transformer by forward-geocoding schools that
// have no coordinates.
type GeocodeTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates a GeocodeTransformer. Pass a nil geocoder to disable
// geocoding enrichment.
func NewTransformer(geocoder domain.Geocoder, logger *slog.Logger) *GeocodeTransformer {
	return &GeocodeTransformer{
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *GeocodeTransformer) Transform(ctx context.Context, school domain.School) domain.School {
	return domain.EnrichWithGeocoding(ctx, school, t.geocoder, t.logger)
}

// FileLoader implements Loader by writing the dataset as JSON.
type FileLoader struct {
	Path string
}

func (l FileLoader) Load(_ context.Context, schools []domain.School) error {
	return catalog.Save(l.Path, schools)
}
