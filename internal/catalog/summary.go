package catalog

import (
	"sort"

	"github.com/couchcryptid/school-report-service/internal/domain"
)

// RegionCount is the number of schools in one region. Regions below the mean
// count are flagged as candidates for new construction.
type RegionCount struct {
	Region       string `json:"wilayah"`
	Count        int    `json:"jumlah"`
	BelowAverage bool   `json:"below_average"`
}

// Summary holds the headline numbers of a school selection.
type Summary struct {
	Total      int           `json:"total"`
	Public     int           `json:"negeri"`
	Private    int           `json:"swasta"`
	TopRegion  string        `json:"top_wilayah"`
	RegionMean float64       `json:"region_mean"`
	Regions    []RegionCount `json:"regions"`
}

// Summarize computes totals, the most common region (ties go to the
// alphabetically first), and per-region counts ordered by count descending
// then name.
func Summarize(schools []domain.School) Summary {
	sum := Summary{Total: len(schools), TopRegion: "-", Regions: []RegionCount{}}
	if len(schools) == 0 {
		return sum
	}

	counts := make(map[string]int)
	for _, s := range schools {
		switch s.Status {
		case domain.SchoolPublic:
			sum.Public++
		case domain.SchoolPrivate:
			sum.Private++
		}
		counts[s.Region]++
	}

	for region, n := range counts {
		sum.Regions = append(sum.Regions, RegionCount{Region: region, Count: n})
	}
	sort.Slice(sum.Regions, func(i, j int) bool {
		a, b := sum.Regions[i], sum.Regions[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Region < b.Region
	})

	sum.TopRegion = sum.Regions[0].Region
	sum.RegionMean = float64(len(schools)) / float64(len(sum.Regions))
	for i := range sum.Regions {
		sum.Regions[i].BelowAverage = float64(sum.Regions[i].Count) < sum.RegionMean
	}
	return sum
}

// CountBy tallies schools by an arbitrary key, e.g. status or accreditation.
func CountBy(schools []domain.School, key func(domain.School) string) map[string]int {
	out := make(map[string]int)
	for _, s := range schools {
		out[key(s)]++
	}
	return out
}
