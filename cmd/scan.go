package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"resonance/config"
	"resonance/services"
	"resonance/types"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type ScanParams struct {
	Dir   string `pos:"true" optional:"true" help:"Folder to add to the library. Defaults to RESONANCE_MUSIC_DIR or ~/Music."`
	Quiet bool   `short:"q" help:"Do not show a progress bar." default:"false"`
}

func ScanCmd() *cobra.Command {
	return boa.CmdT[ScanParams]{
		Use:         "scan",
		Short:       "Scan a folder and add its songs to the library",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *ScanParams, cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := runScan(ctx, params); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "scan: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runScan(ctx context.Context, params *ScanParams) error {
	dir := params.Dir
	if dir == "" {
		dir = config.GetMusicDir()
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var bar *progressbar.ProgressBar
	onProgress := func(processed, total int, currentFile string) {
		if params.Quiet {
			return
		}
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Reading tags"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(processed)
	}

	result, err := a.library.AddFolder(ctx, dir, onProgress)
	if bar != nil {
		_ = bar.Finish()
	}

	var persistErr *services.PersistenceError
	switch {
	case err == nil:
	case errors.As(err, &persistErr):
		// the scan worked; report it and still fail the command
		printScanResult(result)
		return err
	default:
		return err
	}

	printScanResult(result)
	return nil
}

func printScanResult(result types.ScanResult) {
	fmt.Println(services.ScanSummary(result))
	if result.Scanned > 0 {
		fmt.Printf("%s: %d audio files, %d new\n", result.Root, result.Scanned, result.Added)
	}
}
