package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Accreditation placeholder used when the source has no grade.
const UnknownAccreditation = "Tidak Terdata"

// School status values as published upstream.
const (
	SchoolPublic  = "NEGERI"
	SchoolPrivate = "SWASTA"
)

// School is a cleaned school record.
type School struct {
	NPSN          string  `json:"npsn"`
	Name          string  `json:"nama_sekolah"`
	Status        string  `json:"status"`
	Accreditation string  `json:"akreditasi"`
	Lat           float64 `json:"latitude"`
	Lon           float64 `json:"longitude"`
	Address       string  `json:"alamat"`
	Region        string  `json:"wilayah"`
	Level         string  `json:"bentuk_pendidikan"`

	GeoSource string `json:"geo_source,omitempty"` // "api", "forward", "failed"
}

// HasCoordinates reports whether the school has a non-zero position.
func (s School) HasCoordinates() bool {
	return s.Lat != 0 || s.Lon != 0
}

// SchoolCatalog is the read-only view of school records the report workflow
// depends on.
type SchoolCatalog interface {
	ListDistinctSchoolNames() []string
	HasSchool(name string) bool
}

// RawSchoolRecord is a school as stored in data_sekolah_clean.json, before the
// dashboard coercions are applied.
type RawSchoolRecord struct {
	NPSN          Loose `json:"npsn"`
	Name          Loose `json:"nama_sekolah"`
	Status        Loose `json:"status"`
	Accreditation Loose `json:"akreditasi"`
	Lat           Loose `json:"latitude"`
	Lon           Loose `json:"longitude"`
	Address       Loose `json:"alamat"`
	Region        Loose `json:"wilayah"`
	Level         Loose `json:"bentuk_pendidikan"`
	GeoSource     Loose `json:"geo_source"`
}

// Loose decodes a JSON string, number, boolean or null into its text form.
// Null decodes to the empty string.
type Loose string

func (l *Loose) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Loose(s)
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("unexpected JSON %s for scalar field", data[:1])
	default:
		*l = Loose(data)
	}
	return nil
}
