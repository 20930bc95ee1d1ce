// Package catalog holds the read-only table of school records behind the
// dashboard and the report form's school list.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"

	"github.com/couchcryptid/school-report-service/internal/atomicfile"
	"github.com/couchcryptid/school-report-service/internal/domain"
)

// Catalog is an immutable, in-memory set of schools. It is safe for concurrent
// use.
type Catalog struct {
	schools []domain.School
	names   []string
	known   map[string]struct{}
}

var _ domain.SchoolCatalog = (*Catalog)(nil)

// New builds a catalog over schools. The slice is copied.
func New(schools []domain.School) *Catalog {
	c := &Catalog{
		schools: slices.Clone(schools),
		known:   make(map[string]struct{}, len(schools)),
	}
	for _, s := range c.schools {
		if _, ok := c.known[s.Name]; ok {
			continue
		}
		c.known[s.Name] = struct{}{}
		c.names = append(c.names, s.Name)
	}
	sort.Strings(c.names)
	return c
}

// Load reads a cleaned school JSON array from path and normalizes every record.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open school data: %w", err)
	}
	defer f.Close()

	schools, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return New(schools), nil
}

// Decode parses a JSON array of school records and normalizes them.
func Decode(r io.Reader) ([]domain.School, error) {
	var raw []domain.RawSchoolRecord
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	schools := make([]domain.School, len(raw))
	for i, rec := range raw {
		schools[i] = domain.NormalizeSchool(rec)
	}
	return schools, nil
}

// Encode writes schools as an indented JSON array, the format Load reads.
func Encode(w io.Writer, schools []domain.School) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(schools)
}

// Save writes schools to path in the format Load reads, replacing any
// existing file only once the new content is fully written.
func Save(path string, schools []domain.School) error {
	if err := atomicfile.Write(path, func(w io.Writer) error {
		return Encode(w, schools)
	}); err != nil {
		return fmt.Errorf("save schools: %w", err)
	}
	return nil
}

// Schools returns a copy of every record in load order.
func (c *Catalog) Schools() []domain.School {
	return slices.Clone(c.schools)
}

// Len returns the number of records.
func (c *Catalog) Len() int { return len(c.schools) }

// ListDistinctSchoolNames returns the unique school names, sorted.
func (c *Catalog) ListDistinctSchoolNames() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// HasSchool reports whether name exactly matches a school in the catalog.
func (c *Catalog) HasSchool(name string) bool {
	_, ok := c.known[name]
	return ok
}

// CheckReadiness returns an error when the catalog holds no schools.
func (c *Catalog) CheckReadiness(_ context.Context) error {
	if len(c.schools) == 0 {
		return fmt.Errorf("school catalog is empty")
	}
	return nil
}
