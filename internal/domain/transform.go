package domain

import (
	"strconv"
	"strings"
)

// NormalizeSchool applies the coercions the dashboard expects of every record:
// unparseable coordinates become 0, status is upper-cased and trimmed, missing
// accreditation and address get placeholders, and quote characters are
// stripped from the name.
func NormalizeSchool(rec RawSchoolRecord) School {
	accreditation := strings.TrimSpace(string(rec.Accreditation))
	if accreditation == "" {
		accreditation = UnknownAccreditation
	}
	address := string(rec.Address)
	if strings.TrimSpace(address) == "" {
		address = "-"
	}

	return School{
		NPSN:          strings.TrimSpace(string(rec.NPSN)),
		Name:          stripQuotes(string(rec.Name)),
		Status:        strings.ToUpper(strings.TrimSpace(string(rec.Status))),
		Accreditation: accreditation,
		Lat:           parseFloatOrZero(string(rec.Lat)),
		Lon:           parseFloatOrZero(string(rec.Lon)),
		Address:       address,
		Region:        string(rec.Region),
		Level:         string(rec.Level),
		GeoSource:     string(rec.GeoSource),
	}
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func stripQuotes(s string) string {
	return strings.NewReplacer(`"`, "", "'", "").Replace(s)
}
