package pipeline

import (
	"context"
	"errors"
	"fmt"
	"gemtracks/internal/components/assert"
	"gemtracks/internal/components/chrono"
	"gemtracks/internal/components/telemetry"
	"gemtracks/internal/fetcher"
	"gemtracks/internal/loader"
	"gemtracks/internal/scrapers/geology"
	"gemtracks/internal/scrapers/itunes"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("internal/pipeline")
	meter  = otel.Meter("internal/pipeline")
)

const (
	report_pipeline_run     = "pipeline.run"
	report_pipeline_skipped = "pipeline.skipped"
)

const (
	StageExtract   = "extract"
	StageEnrich    = "enrich"
	StageLoadGems  = "load_gems"
	StageLoadSongs = "load_songs"
)

// Report summarizes a single run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Indexed        int
	Extracted      int
	ExtractSkipped []string

	Enriched     int
	EnrichFailed []string
	// Discarded counts search results that were not songs.
	Discarded int
	Tracks    int

	Gems  loader.LoadResult
	Songs loader.LoadResult

	// CacheHits and CacheMisses only count lookups made during this run.
	CacheHits   int64
	CacheMisses int64
}

type StatsSource interface {
	Stats() fetcher.Stats
}

type Pipeline struct {
	geology geology.Client
	itunes  itunes.Client
	loader  loader.Loader
	stats   StatsSource
	clock   chrono.API
	tel     telemetry.API

	skipped metric.Int64Counter
}

func New(
	gc geology.Client,
	ic itunes.Client,
	l loader.Loader,
	stats StatsSource,
	clock chrono.API,
	tel telemetry.API,
) (Pipeline, error) {
	assert.NotNil(stats, "stats")
	assert.NotNil(clock, "clock")
	assert.NotNil(tel, "tel")

	skipped, err := meter.Int64Counter(
		"gemtracks.pipeline.skipped",
		metric.WithDescription("Records skipped by the pipeline, by stage."),
	)
	if err != nil {
		return Pipeline{}, err
	}

	return Pipeline{
		geology: gc,
		itunes:  ic,
		loader:  l,
		stats:   stats,
		clock:   clock,
		tel:     telemetry.NewScopedAPI("pipeline", tel),
		skipped: skipped,
	}, nil
}

func (p Pipeline) skip(ctx context.Context, stage, name string, err error) {
	p.tel.ReportWarning(report_pipeline_skipped, stage, name, err)
	p.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// Run rebuilds the relational store from scratch: it indexes the directory,
// extracts every gemstone in directory order, enriches each gemstone with
// songs and then replaces the Gems and Songs tables.
//
// Per record failures are recorded in the report and never stop the run,
// the returned error is only non-nil for failures that leave nothing to
// load (index, transport, cancellation) or that break the store.
func (p Pipeline) Run(ctx context.Context) (Report, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	report := Report{
		RunID:     uuid.NewString(),
		StartedAt: p.clock.Now(),
	}
	span.SetAttributes(attribute.String("custom.run_id", report.RunID))
	before := p.stats.Stats()

	fail := func(err error) (Report, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.tel.ReportBroken(report_pipeline_run, report.RunID, err)
		report.FinishedAt = p.clock.Now()
		return report, err
	}

	index, err := p.geology.BuildIndex(ctx)
	if err != nil {
		return fail(fmt.Errorf("index: %w", err))
	}
	report.Indexed = len(index)

	var gems []geology.Gemstone
	for _, entry := range index {
		props, err := p.geology.Extract(ctx, entry.Href)
		if errors.Is(err, geology.ErrTransport) || ctx.Err() != nil {
			return fail(fmt.Errorf("extract %s: %w", entry.Name, errors.Join(err, ctx.Err())))
		}
		if err != nil {
			report.ExtractSkipped = append(report.ExtractSkipped, entry.Name)
			p.skip(ctx, StageExtract, entry.Name, err)
			continue
		}
		gems = append(gems, geology.Gemstone{Name: entry.Name, Properties: props})
	}
	report.Extracted = len(gems)

	var tracks []itunes.Track
	for _, gem := range gems {
		res, err := p.itunes.Enrich(ctx, gem.Name)
		if ctx.Err() != nil {
			return fail(fmt.Errorf("enrich %s: %w", gem.Name, ctx.Err()))
		}
		if err != nil {
			report.EnrichFailed = append(report.EnrichFailed, gem.Name)
			p.skip(ctx, StageEnrich, gem.Name, err)
			continue
		}
		report.Enriched++
		report.Discarded += res.Discarded
		tracks = append(tracks, res.Tracks...)
	}
	report.Tracks = len(tracks)

	err = p.loader.ResetSchema(ctx)
	if err != nil {
		return fail(err)
	}
	report.Gems, err = p.loader.LoadGemstones(ctx, gems)
	if err != nil {
		return fail(fmt.Errorf("load gemstones: %w", err))
	}
	for _, s := range report.Gems.Skipped {
		p.skip(ctx, StageLoadGems, s.Name, s.Err)
	}
	report.Songs, err = p.loader.LoadTracks(ctx, tracks)
	if err != nil {
		return fail(fmt.Errorf("load tracks: %w", err))
	}
	for _, s := range report.Songs.Skipped {
		p.skip(ctx, StageLoadSongs, s.Name, s.Err)
	}

	after := p.stats.Stats()
	report.CacheHits = after.Hits - before.Hits
	report.CacheMisses = after.Misses - before.Misses
	report.FinishedAt = p.clock.Now()

	span.SetAttributes(
		attribute.Int("custom.indexed", report.Indexed),
		attribute.Int("custom.gems", report.Gems.Inserted),
		attribute.Int("custom.songs", report.Songs.Inserted),
	)
	p.tel.ReportDebug(
		"run finished", report.RunID,
		"gems", report.Gems.Inserted,
		"songs", report.Songs.Inserted,
		"elapsed", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}
