package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/school-report-service/internal/adapter/mapbox"
	"github.com/couchcryptid/school-report-service/internal/adapter/sekolah"
	"github.com/couchcryptid/school-report-service/internal/catalog"
	"github.com/couchcryptid/school-report-service/internal/domain"
	"github.com/couchcryptid/school-report-service/internal/pipeline"
)

const (
	rawFile       = "data/data_sekolah.json"
	scrapeTimeout = 30 * time.Second
)

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

func (a *app) scraper() *sekolah.Client {
	return sekolah.NewClient(a.cfg.SekolahAPIURL, a.cfg.ScrapePageSize, scrapeTimeout, sekolah.DefaultInterval, a.metrics, a.logger)
}

// geocoder returns nil when Mapbox is not configured.
func (a *app) geocoder() domain.Geocoder {
	if !a.cfg.MapboxEnabled {
		return nil
	}
	client := mapbox.NewClient(a.cfg.MapboxToken, a.cfg.MapboxTimeout, mapbox.DefaultInterval, a.metrics, a.logger)
	return mapbox.NewCachedGeocoder(client, a.cfg.MapboxCacheSize, a.metrics)
}

func newScrapeCommand(a *app) *cobra.Command {
	var (
		out     string
		regions []string
		levels  []string
	)
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch schools from the search API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			schools, err := a.scraper().Scrape(ctx, regions, levels)
			if err != nil {
				return fmt.Errorf("scrape: %w", err)
			}
			if err := catalog.Save(out, schools); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schools written to %s\n", humanize.Comma(int64(len(schools))), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", rawFile, "output JSON file")
	cmd.Flags().StringSliceVar(&regions, "region", sekolah.Regions, "regions (kabupaten/kota) to scrape")
	cmd.Flags().StringSliceVar(&levels, "level", sekolah.Levels, "school levels (bentuk pendidikan) to scrape")
	return cmd
}

func newCleanCommand(a *app) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Normalise and de-duplicate a scraped file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				out = a.cfg.SchoolsFile
			}
			raw, err := catalog.Load(in)
			if err != nil {
				return err
			}
			cleaned := catalog.Clean(raw.Schools())
			if err := catalog.Save(out, cleaned); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s of %s schools kept, written to %s\n",
				humanize.Comma(int64(len(cleaned))), humanize.Comma(int64(raw.Len())), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", rawFile, "scraped JSON file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "cleaned JSON file (default SCHOOLS_FILE)")
	return cmd
}

func newGeocodeCommand(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "geocode",
		Short: "Fill in missing coordinates through Mapbox",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				file = a.cfg.SchoolsFile
			}
			geocoder := a.geocoder()
			if geocoder == nil {
				return errors.New("geocoding needs MAPBOX_TOKEN")
			}

			ctx, stop := signalContext(cmd)
			defer stop()

			c, err := catalog.Load(file)
			if err != nil {
				return err
			}
			start := time.Now()
			enriched, geocoded, failed, err := pipeline.Enrich(ctx, c.Schools(), pipeline.NewTransformer(geocoder, a.logger))
			if err != nil {
				return err
			}
			if err := catalog.Save(file, enriched); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d geocoded, %d still missing, took %s\n",
				geocoded, failed, time.Since(start).Round(time.Second))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "cleaned JSON file, updated in place (default SCHOOLS_FILE)")
	return cmd
}

func newRunCommand(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape, clean and geocode in one pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				out = a.cfg.SchoolsFile
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			scraper := a.scraper()
			extract := pipeline.ExtractorFunc(func(ctx context.Context) ([]domain.School, error) {
				return scraper.Scrape(ctx, sekolah.Regions, sekolah.Levels)
			})
			p := pipeline.New(extract, pipeline.NewTransformer(a.geocoder(), a.logger), pipeline.FileLoader{Path: out}, a.logger)

			stats, err := p.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scraped %s, kept %s, geocoded %d, missing %d, took %s\n",
				humanize.Comma(int64(stats.Scraped)), humanize.Comma(int64(stats.Cleaned)),
				stats.Geocoded, stats.GeocodeFailed, stats.Duration.Round(time.Second))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output JSON file (default SCHOOLS_FILE)")
	return cmd
}
