package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devbump/bumpall/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bumpall version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bumpall %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
