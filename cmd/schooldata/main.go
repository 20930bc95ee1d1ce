// Command schooldata builds and inspects the data files the server reads: it
// scrapes the school search API, cleans and geocodes the result, and prints
// the citizen report file.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/school-report-service/internal/config"
	"github.com/couchcryptid/school-report-service/internal/observability"
)

// app carries what every subcommand needs, built once before the command runs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "schooldata",
		Short: "Build and inspect the school dataset and report file",
		Long: `schooldata prepares the files served by the school report service.

Commands:
  scrape    Fetch schools from the search API
  clean     Normalise and de-duplicate a scraped file
  geocode   Fill in missing coordinates through Mapbox
  run       scrape, clean and geocode in one pass
  reports   Print the citizen report file`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = observability.NewLoggerTo(cmd.ErrOrStderr(), cfg)
			a.metrics = observability.NewStandaloneMetrics()
			return nil
		},
	}

	root.AddCommand(
		newScrapeCommand(a),
		newCleanCommand(a),
		newGeocodeCommand(a),
		newRunCommand(a),
		newReportsCommand(a),
	)
	return root
}
