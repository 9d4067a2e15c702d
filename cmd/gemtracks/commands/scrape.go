package commands

import (
	"context"
	"fmt"
	"gemtracks/internal/cache"
	"gemtracks/internal/components/chrono"
	"gemtracks/internal/components/telemetry"
	"gemtracks/internal/fetcher"
	"gemtracks/internal/loader"
	"gemtracks/internal/pipeline"
	"gemtracks/internal/scrapers/geology"
	"gemtracks/internal/scrapers/itunes"
	"gemtracks/lib/restyutil"
	"log/slog"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:          "scrape",
	Short:        "Scrapes every gemstone, searches for songs named after them and rebuilds the database.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := runScrape(cmd.Context())
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	},
}

// runScrape returns every failure instead of exiting so the deferred
// telemetry flush and db close always run.
func runScrape(ctx context.Context) (pipeline.Report, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return pipeline.Report{}, fmt.Errorf("read config: %w", err)
	}

	providers, err := telemetry.Setup(ctx, "gemtracks", cfg.Telemetry)
	if err != nil {
		return pipeline.Report{}, fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		// flush even when the run was cancelled
		err := providers.Shutdown(context.WithoutCancel(ctx))
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	}()

	tel := telemetry.SlogAPI{}

	store := cache.Open(cfg.Cache.File, tel)
	slog.Info("opened cache", "path", store.Path(), "entries", store.Len())

	f := fetcher.New(store, cfg.FetcherOptions(), tel)
	if verbose {
		out, err := restyutil.NewFilesystemOutput(".dev/resty/fetcher")
		if err != nil {
			return pipeline.Report{}, fmt.Errorf("create resty output directory: %w", err)
		}
		f.SetInstrumentOutput(out)
	}

	geologyClient, err := geology.NewClient(cfg.Geology.DirectoryUrl, f, tel)
	if err != nil {
		return pipeline.Report{}, fmt.Errorf("create geology client: %w", err)
	}
	itunesClient := itunes.NewClient(cfg.ItunesOptions(), f, tel)

	sqlite, err := cfg.Database.OpenDB()
	if err != nil {
		return pipeline.Report{}, fmt.Errorf("open db: %w", err)
	}
	defer sqlite.Close()

	p, err := pipeline.New(
		geologyClient,
		itunesClient,
		loader.New(sqlite, tel),
		f,
		chrono.NewStandardImpl(),
		tel,
	)
	if err != nil {
		return pipeline.Report{}, fmt.Errorf("create pipeline: %w", err)
	}

	report, err := p.Run(ctx)
	if err != nil {
		return report, fmt.Errorf("scrape: %w", err)
	}
	return report, nil
}

func printReport(report pipeline.Report) {
	t := newTable()
	t.SetTitle("run %s", report.RunID)
	t.AppendHeader(table.Row{"Stage", "Count"})
	t.AppendRows([]table.Row{
		{"indexed", report.Indexed},
		{"extracted", report.Extracted},
		{"extract skipped", len(report.ExtractSkipped)},
		{"enriched", report.Enriched},
		{"enrich failed", len(report.EnrichFailed)},
		{"non-song results", report.Discarded},
		{"tracks", report.Tracks},
		{"gems loaded", report.Gems.Inserted},
		{"gems skipped", len(report.Gems.Skipped)},
		{"songs loaded", report.Songs.Inserted},
		{"songs skipped", len(report.Songs.Skipped)},
		{"songs without gem", len(report.Songs.Unresolved)},
		{"cache hits", report.CacheHits},
		{"cache misses", report.CacheMisses},
	})
	t.AppendFooter(table.Row{"elapsed", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)})
	t.Render()

	var skipped []table.Row
	for _, name := range report.ExtractSkipped {
		skipped = append(skipped, table.Row{pipeline.StageExtract, name, ""})
	}
	for _, name := range report.EnrichFailed {
		skipped = append(skipped, table.Row{pipeline.StageEnrich, name, ""})
	}
	for _, s := range report.Gems.Skipped {
		skipped = append(skipped, table.Row{pipeline.StageLoadGems, s.Name, s.Err.Error()})
	}
	for _, s := range report.Songs.Skipped {
		skipped = append(skipped, table.Row{pipeline.StageLoadSongs, s.Name, s.Err.Error()})
	}
	for _, u := range report.Songs.Unresolved {
		hint := ""
		if u.Closest != "" {
			hint = fmt.Sprintf("closest gemstone: %s", u.Closest)
		}
		skipped = append(skipped, table.Row{"unresolved", strings.Join([]string{u.Track, u.Gemstone}, " / "), hint})
	}
	if len(skipped) == 0 {
		return
	}

	t = newTable()
	t.SetTitle("skipped")
	t.AppendHeader(table.Row{"Stage", "Name", "Reason"})
	t.AppendRows(skipped)
	t.Render()
}
