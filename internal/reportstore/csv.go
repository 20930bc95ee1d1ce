package reportstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/school-report-service/internal/domain"
)

// Column names of the durable report file, in write order.
const (
	colReporter    = "Pelapor"
	colSchool      = "Sekolah"
	colDescription = "Ket"
	colStatus      = "Status"
)

var header = []string{colReporter, colSchool, colDescription, colStatus}

// utf8BOM is tolerated at the start of files saved by spreadsheet tools.
const utf8BOM = "\ufeff"

// decodeReports parses a report file. Columns are located by header name, so
// reordered columns still load; Pelapor, Sekolah and Ket are required. A row
// may omit trailing columns, which decode as empty strings. An input with no
// header at all (zero bytes) is an empty store.
func decodeReports(r io.Reader) ([]domain.Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx, err := columnIndex(head)
	if err != nil {
		return nil, err
	}

	var reports []domain.Report
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(row) > len(head) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %d fields, header has %d", line, len(row), len(head))
		}
		reports = append(reports, domain.Report{
			ReporterName: field(row, idx[colReporter]),
			SchoolName:   field(row, idx[colSchool]),
			Description:  field(row, idx[colDescription]),
			Status:       domain.Status(field(row, idx[colStatus])),
		})
	}
	return reports, nil
}

func columnIndex(head []string) (map[string]int, error) {
	idx := make(map[string]int, len(head))
	for i, name := range head {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)
		if _, dup := idx[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		idx[name] = i
	}
	for _, required := range []string{colReporter, colSchool, colDescription} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	if _, ok := idx[colStatus]; !ok {
		idx[colStatus] = -1
	}
	return idx, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// encodeReports writes the header followed by one row per report.
func encodeReports(w io.Writer, reports []domain.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range reports {
		if err := cw.Write([]string{r.ReporterName, r.SchoolName, r.Description, string(r.Status)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
