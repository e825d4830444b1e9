package main

import (
	"resonance/cmd"
	"resonance/handlers"
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"
)

func main() {
	version := appVersion()
	handlers.Version = version

	boa.CmdT[boa.NoParams]{
		Use:     "resonance",
		Short:   "Music library scanner, player and API",
		Version: version,
		SubCmds: []*cobra.Command{
			cmd.ServeCmd(),
			cmd.ScanCmd(),
			cmd.ListCmd(),
			cmd.StatsCmd(),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuildInfo := debug.ReadBuildInfo()
	if !hasBuildInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
