package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setup(t testing.TB) (*sql.DB, *Queries) {
	sqlite, err := OpenSqlite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlite.Close() })

	qry := New(sqlite)
	err = qry.ResetSchema(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return sqlite, qry
}

func gemParams(name string, mohs float64) InsertGemParams {
	return InsertGemParams{
		Classification: "quartz",
		Color:          "purple",
		Streak:         "white",
		Luster:         "vitreous",
		Diaphaneity:    "transparent",
		Cleavage:       "none",
		Mohs:           mohs,
		Gravity:        "2.65",
		Properties:     "color",
		Composition:    "SiO2",
		Crystal:        "hexagonal",
		Uses:           "jewelry",
		Name:           name,
	}
}

func TestStatements(t *testing.T) {
	stmts := Statements("create table a (x int);\n\n  ;drop table b;  ")
	require.Equal(t, []string{"create table a (x int)", "drop table b"}, stmts)

	require.Len(t, Statements(Schema), 6)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	_, qry := setup(t)

	id, err := qry.InsertGem(ctx, gemParams("amethyst", 7))
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	_, err = qry.InsertGem(ctx, gemParams("diamond", 10))
	require.NoError(t, err)
	_, err = qry.InsertGem(ctx, gemParams("apatite", 5))
	require.NoError(t, err)

	gemId, err := qry.GetGemIdByName(ctx, "diamond")
	require.NoError(t, err)
	require.Equal(t, int64(2), gemId)

	_, err = qry.GetGemIdByName(ctx, "unobtainium")
	require.ErrorIs(t, err, sql.ErrNoRows)

	gem, err := qry.GetGemByName(ctx, "amethyst")
	require.NoError(t, err)
	require.Equal(t, 7.0, gem.Mohs)
	require.Equal(t, "SiO2", gem.Composition)

	hardness, err := qry.ListHardness(ctx)
	require.NoError(t, err)
	require.Equal(t, []ListHardnessRow{
		{Name: "apatite", Mohs: 5},
		{Name: "amethyst", Mohs: 7},
		{Name: "diamond", Mohs: 10},
	}, hardness)

	names, err := qry.ListGemNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"amethyst", "diamond", "apatite"}, names)

	_, err = qry.InsertSong(ctx, InsertSongParams{
		SongName: "Amethyst",
		Artist:   "Someone",
		Year:     2001,
		Genre:    "Rock",
		GemName:  "amethyst",
		GemID:    sql.NullInt64{Int64: 1, Valid: true},
	})
	require.NoError(t, err)
	_, err = qry.InsertSong(ctx, InsertSongParams{
		SongName: "Shine",
		Artist:   "Nobody",
		Year:     1999,
		Genre:    "Pop",
		GemName:  "unobtainium",
	})
	require.NoError(t, err)

	songs, err := qry.GetSongsByGemName(ctx, "amethyst")
	require.NoError(t, err)
	require.Len(t, songs, 1)
	require.Equal(t, "Amethyst", songs[0].SongName)
	require.Equal(t, int64(2001), songs[0].Year)

	count, err := qry.CountSongs(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
	unresolved, err := qry.CountUnresolvedSongs(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), unresolved)

	// the foreign key only accepts ids that exist
	_, err = qry.InsertSong(ctx, InsertSongParams{
		SongName: "Ghost",
		GemName:  "ghost",
		GemID:    sql.NullInt64{Int64: 99, Valid: true},
	})
	require.Error(t, err)
}

func TestResetSchemaIsDestructive(t *testing.T) {
	ctx := context.Background()
	_, qry := setup(t)

	_, err := qry.InsertGem(ctx, gemParams("amethyst", 7))
	require.NoError(t, err)

	require.NoError(t, qry.ResetSchema(ctx))

	count, err := qry.CountGems(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	id, err := qry.InsertGem(ctx, gemParams("amethyst", 7))
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
}

func TestMakeTx(t *testing.T) {
	ctx := context.Background()
	sqlite, qry := setup(t)
	makeTx := NewMakeTx(sqlite)

	tx, discard, _, err := makeTx(ctx)
	require.NoError(t, err)
	_, err = tx.InsertGem(ctx, gemParams("amethyst", 7))
	require.NoError(t, err)
	require.NoError(t, discard())

	count, err := qry.CountGems(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	tx, _, commit, err := makeTx(ctx)
	require.NoError(t, err)
	_, err = tx.InsertGem(ctx, gemParams("amethyst", 7))
	require.NoError(t, err)
	require.NoError(t, commit())

	count, err = qry.CountGems(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestOpenDBFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gems.db")
	sqlite, err := Config{File: path}.OpenDB()
	require.NoError(t, err)
	defer sqlite.Close()

	require.NoError(t, New(sqlite).ResetSchema(context.Background()))
	require.FileExists(t, path)

	_, err = Config{}.OpenDB()
	require.Error(t, err)
}
