package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"gemtracks/internal/components/assert"
	"gemtracks/internal/components/telemetry"
	"gemtracks/internal/db"
	"gemtracks/internal/scrapers/geology"
	"gemtracks/internal/scrapers/itunes"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("internal/loader")

const (
	report_loader_reset      = "loader.reset"
	report_loader_gems       = "loader.load-gemstones"
	report_loader_tracks     = "loader.load-tracks"
	report_loader_unresolved = "loader.unresolved-owner"
)

// Skip is a record that was left out of a load.
type Skip struct {
	Name string
	Err  error
}

// Unresolved is a track whose owning gemstone was not loaded, Closest is
// the most similar loaded gemstone name and is only ever used as a hint.
type Unresolved struct {
	Track    string
	Gemstone string
	Closest  string
}

type LoadResult struct {
	Inserted   int
	Skipped    []Skip
	Unresolved []Unresolved
}

type Loader struct {
	makeTx db.MakeTx
	tel    telemetry.API
}

func New(sqlite *sql.DB, tel telemetry.API) Loader {
	assert.NotNil(sqlite, "sqlite")
	assert.NotNil(tel, "tel")

	return Loader{
		makeTx: db.NewMakeTx(sqlite),
		tel:    telemetry.NewScopedAPI("loader", tel),
	}
}

// ResetSchema destroys every Gems and Songs row by dropping and recreating
// both tables.
func (l Loader) ResetSchema(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "ResetSchema")
	defer span.End()

	tx, discard, commit, err := l.makeTx(ctx)
	if err != nil {
		l.fail(span, report_loader_reset, err)
		return err
	}
	defer discard()

	err = tx.ResetSchema(ctx)
	if err != nil {
		l.fail(span, report_loader_reset, err)
		return fmt.Errorf("reset schema: %w", err)
	}
	err = commit()
	if err != nil {
		l.fail(span, report_loader_reset, err)
		return err
	}
	return nil
}

// LoadGemstones inserts every gemstone in a single transaction, gemstones
// that fail normalization or insertion are skipped.
func (l Loader) LoadGemstones(ctx context.Context, gems []geology.Gemstone) (LoadResult, error) {
	ctx, span := tracer.Start(ctx, "LoadGemstones")
	defer span.End()

	tx, discard, commit, err := l.makeTx(ctx)
	if err != nil {
		l.fail(span, report_loader_gems, err)
		return LoadResult{}, err
	}
	defer discard()

	var result LoadResult
	for _, gem := range gems {
		row, err := gem.Normalize()
		if err != nil {
			l.tel.ReportWarning(report_loader_gems, gem.Name, err)
			result.Skipped = append(result.Skipped, Skip{Name: gem.Name, Err: err})
			continue
		}
		_, err = tx.InsertGem(ctx, db.InsertGemParams{
			Classification: row.Classification,
			Color:          row.Color,
			Streak:         row.Streak,
			Luster:         row.Luster,
			Diaphaneity:    row.Diaphaneity,
			Cleavage:       row.Cleavage,
			Mohs:           row.Hardness,
			Gravity:        row.Gravity,
			Properties:     row.Diagnostic,
			Composition:    row.Composition,
			Crystal:        row.CrystalSystem,
			Uses:           row.Uses,
			Name:           row.Name,
		})
		if err != nil {
			l.tel.ReportWarning(report_loader_gems, gem.Name, err)
			result.Skipped = append(result.Skipped, Skip{Name: gem.Name, Err: err})
			continue
		}
		result.Inserted++
	}

	err = commit()
	if err != nil {
		l.fail(span, report_loader_gems, err)
		return LoadResult{}, err
	}
	span.SetAttributes(
		attribute.Int("custom.inserted", result.Inserted),
		attribute.Int("custom.skipped", len(result.Skipped)),
	)
	l.tel.ReportCount(report_loader_gems, int64(result.Inserted))
	return result, nil
}

// LoadTracks inserts every track in a single transaction. A track's owner
// is the first gemstone row whose name equals the track's search term, when
// there is none the track is still inserted with a null owner.
func (l Loader) LoadTracks(ctx context.Context, tracks []itunes.Track) (LoadResult, error) {
	ctx, span := tracer.Start(ctx, "LoadTracks")
	defer span.End()

	tx, discard, commit, err := l.makeTx(ctx)
	if err != nil {
		l.fail(span, report_loader_tracks, err)
		return LoadResult{}, err
	}
	defer discard()

	loaded, err := tx.ListGemNames(ctx)
	if err != nil {
		l.fail(span, report_loader_tracks, err)
		return LoadResult{}, fmt.Errorf("list gemstones: %w", err)
	}

	var result LoadResult
	for _, track := range tracks {
		name := fmt.Sprintf("%s (%s)", track.Title, track.Gemstone)

		var owner sql.NullInt64
		id, err := tx.GetGemIdByName(ctx, track.Gemstone)
		switch {
		case err == nil:
			owner = sql.NullInt64{Int64: id, Valid: true}
		case errors.Is(err, sql.ErrNoRows):
			closest := closestName(track.Gemstone, loaded)
			l.tel.ReportDebug(report_loader_unresolved, track.Gemstone, closest)
			result.Unresolved = append(result.Unresolved, Unresolved{
				Track:    track.Title,
				Gemstone: track.Gemstone,
				Closest:  closest,
			})
		default:
			l.tel.ReportWarning(report_loader_tracks, name, err)
			result.Skipped = append(result.Skipped, Skip{Name: name, Err: err})
			continue
		}

		_, err = tx.InsertSong(ctx, db.InsertSongParams{
			SongName: track.Title,
			Artist:   track.Artist,
			Year:     int64(track.Year),
			Genre:    track.Genre,
			GemName:  track.Gemstone,
			GemID:    owner,
		})
		if err != nil {
			l.tel.ReportWarning(report_loader_tracks, name, err)
			result.Skipped = append(result.Skipped, Skip{Name: name, Err: err})
			continue
		}
		result.Inserted++
	}

	err = commit()
	if err != nil {
		l.fail(span, report_loader_tracks, err)
		return LoadResult{}, err
	}
	span.SetAttributes(
		attribute.Int("custom.inserted", result.Inserted),
		attribute.Int("custom.skipped", len(result.Skipped)),
		attribute.Int("custom.unresolved", len(result.Unresolved)),
	)
	l.tel.ReportCount(report_loader_tracks, int64(result.Inserted))
	return result, nil
}

func (l Loader) fail(span trace.Span, id string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	l.tel.ReportBroken(id, err)
}

// closestName returns the candidate most similar to target, or an empty
// string if there are no candidates.
func closestName(target string, candidates []string) string {
	var closest string
	var highest float64
	for _, candidate := range candidates {
		similarity := matchr.JaroWinkler(target, candidate, false)
		if similarity > highest {
			highest = similarity
			closest = candidate
		}
	}
	return closest
}
