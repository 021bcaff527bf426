package main

import (
	"fmt"
	"os"

	"github.com/devbump/bumpall/cmd"
	"github.com/devbump/bumpall/internal/constants"
	"github.com/devbump/bumpall/internal/styles"
	"github.com/devbump/bumpall/pkg/upgrade"
)

func main() {
	go func() {
		if newVersion := upgrade.GetNewVersion(constants.RepoOwner, constants.RepoName); newVersion != "" {
			notice := fmt.Sprintf("New version available: %s\nRun `bumpall upgrade`", newVersion)
			fmt.Printf("\n%s\n\n", styles.WarnStyle.Render(notice))
		}
	}()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
