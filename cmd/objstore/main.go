package main

import (
	"os"

	"github.com/arthur-debert/objstore/internal/cli"
	"github.com/arthur-debert/objstore/pkg/ui"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, perr := ui.ParseFormat(format)
		if perr != nil {
			f = ui.FormatAuto
		}
		ui.NewRenderer(os.Stderr, f.Resolve(os.Stderr)).Error(err)
		os.Exit(1)
	}
}
