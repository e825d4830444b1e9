package cmd

import (
	"fmt"
	"os"
	"resonance/services"
	"resonance/types"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type ListParams struct {
	Query string `short:"q" help:"Only list songs whose title, artist or album contains this text." optional:"true"`
	Sort  string `short:"s" help:"Sort by name, artist, album, year, duration or dateAdded. Defaults to the saved preference." optional:"true"`
	Limit int    `short:"n" help:"Show at most this many songs (0 for all)." default:"0"`
}

func ListCmd() *cobra.Command {
	return boa.CmdT[ListParams]{
		Use:         "list",
		Short:       "List the songs in the library",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *ListParams, cmd *cobra.Command, args []string) {
			if err := runList(params); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "list: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runList(params *ListParams) error {
	sort := types.SortKey(params.Sort)
	if sort != "" && !services.ValidSortKey(sort) {
		return fmt.Errorf("unknown sort %q", params.Sort)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tracks := a.library.View(params.Query, sort)
	if len(tracks) == 0 {
		if params.Query != "" {
			fmt.Println("No songs match your search")
		} else {
			fmt.Println("Your library is empty. Add a folder with 'resonance scan'.")
		}
		return nil
	}

	shown := tracks
	if params.Limit > 0 && params.Limit < len(shown) {
		shown = shown[:params.Limit]
	}

	renderTracks(shown)
	if len(shown) < len(tracks) {
		fmt.Printf("... and %d more\n", len(tracks)-len(shown))
	}
	return nil
}

func renderTracks(tracks []types.Track) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Title", "Artist", "Album", "Year", "Time", "Format"})

	for i, track := range tracks {
		year := ""
		if track.Year != nil {
			year = fmt.Sprint(*track.Year)
		}
		t.AppendRow(table.Row{
			i + 1,
			track.Name,
			track.Artist,
			track.Album,
			year,
			services.FormatTime(track.Duration),
			track.Format,
		})
	}

	t.Render()
}
