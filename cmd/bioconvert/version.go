package main

import (
	"fmt"

	"github.com/ShayCichocki/bioconvert/internal/version"
	"github.com/spf13/cobra"
)

// Version returns the current version
func Version() string {
	return version.Get()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bioconvert version %s\n", version.Long())
	},
}

func init() {
	rootCmd.Version = Version()
}
