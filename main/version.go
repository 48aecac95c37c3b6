package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOut {
				_ = printJSON(map[string]string{"version": version, "go": runtime.Version()})
				return
			}
			printInfo("inplace %s (%s)\n", version, runtime.Version())
		},
	})
}
