package catalog

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/couchcryptid/school-report-service/internal/domain"
)

var exportHeader = []string{
	"nama_sekolah", "npsn", "status", "akreditasi", "latitude", "longitude",
	"alamat", "wilayah", "bentuk_pendidikan",
}

// WriteCSV writes schools in the column order of the scraped dataset.
func WriteCSV(w io.Writer, schools []domain.School) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, s := range schools {
		row := []string{
			s.Name,
			s.NPSN,
			s.Status,
			s.Accreditation,
			strconv.FormatFloat(s.Lat, 'f', -1, 64),
			strconv.FormatFloat(s.Lon, 'f', -1, 64),
			s.Address,
			s.Region,
			s.Level,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
