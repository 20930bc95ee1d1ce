package catalog

import (
	"slices"
	"sort"

	"github.com/couchcryptid/school-report-service/internal/domain"
)

// Filter selects schools by membership in each dimension. An empty dimension
// selects everything.
type Filter struct {
	Regions        []string
	Levels         []string
	Statuses       []string
	Accreditations []string
}

// Match reports whether s passes every non-empty dimension.
func (f Filter) Match(s domain.School) bool {
	return within(f.Regions, s.Region) &&
		within(f.Levels, s.Level) &&
		within(f.Statuses, s.Status) &&
		within(f.Accreditations, s.Accreditation)
}

func within(set []string, v string) bool {
	return len(set) == 0 || slices.Contains(set, v)
}

// Filter returns the schools matching f, in load order.
func (c *Catalog) Filter(f Filter) []domain.School {
	out := make([]domain.School, 0, len(c.schools))
	for _, s := range c.schools {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// FilterOptions lists the selectable values of each filter dimension.
type FilterOptions struct {
	Regions        []string `json:"wilayah"`
	Levels         []string `json:"bentuk_pendidikan"`
	Statuses       []string `json:"status"`
	Accreditations []string `json:"akreditasi"`
}

// Options returns the sorted distinct values of each dimension.
func (c *Catalog) Options() FilterOptions {
	return FilterOptions{
		Regions:        distinct(c.schools, func(s domain.School) string { return s.Region }),
		Levels:         distinct(c.schools, func(s domain.School) string { return s.Level }),
		Statuses:       distinct(c.schools, func(s domain.School) string { return s.Status }),
		Accreditations: distinct(c.schools, func(s domain.School) string { return s.Accreditation }),
	}
}

func distinct(schools []domain.School, key func(domain.School) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, s := range schools {
		k := key(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
