package cmd

import (
	"fmt"
	"os"
	"resonance/config"
	"resonance/types"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func StatsCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:         "stats",
		Short:       "Show library totals",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *boa.NoParams, cmd *cobra.Command, args []string) {
			if err := runStats(); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "stats: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runStats() error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tracks := a.library.Tracks()
	stats := a.library.Stats()
	settings := a.library.Settings()

	artists := lo.Uniq(lo.Map(tracks, func(t types.Track, _ int) string { return t.Artist }))
	albums := lo.Uniq(lo.Map(tracks, func(t types.Track, _ int) string { return t.Artist + "\x00" + t.Album }))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Songs", stats.TrackCount},
		{"Artists", len(artists)},
		{"Albums", len(albums)},
		{"Total time", stats.TotalDuration},
		{"Playlists", len(a.library.Playlists())},
		{"Folders", len(settings.Folders)},
		{"Data directory", config.GetDataDir()},
		{"Store", config.GetStoreBackend()},
	})
	t.Render()
	return nil
}
