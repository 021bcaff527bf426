package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devbump/bumpall/internal/constants"
	"github.com/devbump/bumpall/pkg/upgrade"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade to the latest version of the CLI",
	Run: func(cmd *cobra.Command, args []string) {
		if err := upgrade.Upgrade(constants.RepoOwner, constants.RepoName); err != nil {
			fmt.Printf("❌ Upgrade failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(upgradeCmd)
}
