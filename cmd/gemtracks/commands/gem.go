package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"gemtracks/internal/db"
	"gemtracks/internal/scrapers/geology"
	"gemtracks/lib/serviceutil"
	"gemtracks/lib/textutil"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(gemCmd)
}

var gemCmd = &cobra.Command{
	Use:   "gem <name>",
	Short: "Prints a gemstone's properties and the songs named after it.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		name := textutil.NormalizeName(args[0])

		cfg, err := LoadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		sqlite, err := cfg.Database.OpenDB()
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer sqlite.Close()
		qry := db.New(sqlite)

		gem, err := qry.GetGemByName(ctx, name)
		if errors.Is(err, sql.ErrNoRows) {
			fmt.Fprintf(os.Stderr, "no gemstone named %q\n", name)
			os.Exit(1)
		}
		if err != nil {
			serviceutil.Fatal("failed to get gemstone", err)
		}

		t := newTable()
		t.SetTitle(gem.Name)
		t.AppendRows([]table.Row{
			{geology.PropertyClassification, gem.Classification},
			{geology.PropertyColor, gem.Color},
			{geology.PropertyStreak, gem.Streak},
			{geology.PropertyLuster, gem.Luster},
			{geology.PropertyDiaphaneity, gem.Diaphaneity},
			{geology.PropertyCleavage, gem.Cleavage},
			{geology.PropertyHardness, gem.Mohs},
			{geology.PropertyGravity, gem.Gravity},
			{geology.PropertyDiagnostic, gem.Properties},
			{geology.PropertyComposition, gem.Composition},
			{geology.PropertyCrystalSystem, gem.Crystal},
			{geology.PropertyUses, gem.Uses},
		})
		t.Render()

		songs, err := qry.GetSongsByGemName(ctx, name)
		if err != nil {
			serviceutil.Fatal("failed to get songs", err)
		}

		t = newTable()
		t.SetTitle("songs")
		t.AppendHeader(table.Row{"Song", "Artist", "Year", "Genre"})
		for _, s := range songs {
			t.AppendRow(table.Row{s.SongName, s.Artist, s.Year, s.Genre})
		}
		t.Render()
	},
}
