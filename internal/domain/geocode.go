package domain

import (
	"context"
	"log/slog"
	"strings"
)

// EnrichWithGeocoding fills in coordinates for a school that has none, using
// "name, address" within the school's region as the query. Schools that
// already have coordinates are returned untouched apart from GeoSource. A nil
// geocoder or a failed lookup leaves the coordinates at 0 (graceful
// degradation).
func EnrichWithGeocoding(ctx context.Context, school School, geocoder Geocoder, logger *slog.Logger) School {
	if school.HasCoordinates() {
		if school.GeoSource == "" {
			school.GeoSource = "api"
		}
		return school
	}
	if geocoder == nil {
		return school
	}

	result, err := geocoder.ForwardGeocode(ctx, geocodeQuery(school), school.Region)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"npsn", school.NPSN,
			"school", school.Name,
			"region", school.Region,
			"error", err,
		)
		school.GeoSource = "failed"
		return school
	}
	if result.Lat == 0 && result.Lon == 0 {
		school.GeoSource = "failed"
		return school
	}

	school.Lat = result.Lat
	school.Lon = result.Lon
	school.GeoSource = "forward"
	return school
}

func geocodeQuery(s School) string {
	parts := []string{strings.TrimSpace(s.Name)}
	if addr := strings.TrimSpace(s.Address); addr != "" && addr != "-" {
		parts = append(parts, addr)
	}
	return strings.Join(parts, ", ")
}
