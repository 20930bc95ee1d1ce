package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/school-report-service/internal/domain"
	"github.com/couchcryptid/school-report-service/internal/reportstore"
)

const descriptionWidth = 48

func newReportsCommand(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Print the citizen report file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				file = a.cfg.ReportsFile
			}
			store := reportstore.New(file, a.logger, a.metrics)
			if err := store.Load(); err != nil {
				return err
			}

			var size int64
			var modified time.Time
			if fi, err := os.Stat(file); err == nil {
				size, modified = fi.Size(), fi.ModTime()
			}
			renderReports(cmd.OutOrStdout(), store.List(), size, modified)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "report CSV file (default REPORTS_FILE)")
	return cmd
}

// renderReports prints reports as a table. size and modified describe the
// file; a zero modified time means the file does not exist yet.
func renderReports(w io.Writer, reports []domain.Report, size int64, modified time.Time) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: descriptionWidth, WidthMaxEnforcer: text.WrapSoft},
	})

	tbl.AppendHeader(table.Row{"#", "Pelapor", "Sekolah", "Ket", "Status"})
	for i, r := range reports {
		tbl.AppendRow(table.Row{i + 1, r.ReporterName, r.SchoolName, r.Description, string(r.Status)})
	}

	footer := fmt.Sprintf("Total: %s reports", humanize.Comma(int64(len(reports))))
	if !modified.IsZero() {
		footer += fmt.Sprintf(", %s, updated %s", humanize.Bytes(uint64(size)), humanize.Time(modified))
	}
	tbl.AppendFooter(table.Row{footer})
	tbl.Render()
}
