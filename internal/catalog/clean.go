package catalog

import (
	"strings"

	"github.com/couchcryptid/school-report-service/internal/domain"
)

// Clean prepares freshly scraped records for the dashboard: placeholder
// accreditation values become domain.UnknownAccreditation, names are
// upper-cased and trimmed, and duplicate NPSNs are dropped keeping the first
// occurrence. Records without an NPSN are never treated as duplicates.
func Clean(schools []domain.School) []domain.School {
	out := make([]domain.School, 0, len(schools))
	seen := make(map[string]struct{}, len(schools))

	for _, s := range schools {
		if s.NPSN != "" {
			if _, dup := seen[s.NPSN]; dup {
				continue
			}
			seen[s.NPSN] = struct{}{}
		}

		switch strings.TrimSpace(s.Accreditation) {
		case "", "-":
			s.Accreditation = domain.UnknownAccreditation
		}
		s.Name = strings.ToUpper(strings.TrimSpace(s.Name))
		out = append(out, s)
	}
	return out
}
