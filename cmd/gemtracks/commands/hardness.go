package commands

import (
	"gemtracks/internal/db"
	"gemtracks/lib/serviceutil"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(hardnessCmd)
}

// hardnessBar renders a Mohs hardness (0-10) as a bar two cells per unit.
func hardnessBar(mohs float64) string {
	width := int(math.Round(math.Max(0, math.Min(mohs, 10)) * 2))
	return strings.Repeat("█", width)
}

var hardnessCmd = &cobra.Command{
	Use:   "hardness",
	Short: "Charts every loaded gemstone by Mohs hardness.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		sqlite, err := cfg.Database.OpenDB()
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer sqlite.Close()

		rows, err := db.New(sqlite).ListHardness(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list hardness", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Gemstone", "Mohs", ""})
		for _, r := range rows {
			t.AppendRow(table.Row{r.Name, r.Mohs, hardnessBar(r.Mohs)})
		}
		t.Render()
	},
}
