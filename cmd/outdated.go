package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/devbump/bumpall/internal/constants"
	"github.com/devbump/bumpall/internal/logger"
	"github.com/devbump/bumpall/internal/outdated"
	"github.com/devbump/bumpall/internal/packagejson"
	"github.com/devbump/bumpall/internal/packagemanager"
	"github.com/devbump/bumpall/internal/styles"
	"github.com/devbump/bumpall/internal/ui"
)

var outdatedCmd = &cobra.Command{
	Use:   "outdated [dir]",
	Short: "Report outdated packages via the package manager's own query",
	Long: "outdated asks the package manager which dependencies have newer versions\n" +
		"and reports them. With --update the listed upgrades are installed.",
	Args: cobra.MaximumNArgs(1),
	RunE: runOutdated,
}

func init() {
	outdatedCmd.Flags().BoolVarP(&flags.UseLatest, "latest", "l", false, "Target the latest column instead of the wanted one")
	outdatedCmd.Flags().BoolVarP(&flags.Patch, "patch", "p", false, "Restrict wanted versions to patch upgrades")
	outdatedCmd.Flags().BoolVarP(&flags.Update, "update", "u", false, "Install the reported upgrades")
	outdatedCmd.Flags().BoolVar(&flags.LegacyPeerDeps, "legacyPeerDeps", false, "Pass --legacy-peer-deps to the install")

	rootCmd.AddCommand(outdatedCmd)
}

func runOutdated(cmd *cobra.Command, args []string) error {
	dir := flags.BaseDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		dir = "."
	}

	pm := resolvePackageManager(dir)

	var output string
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		output, err = queryOutdated(pm, dir)
	}()
	ui.RunSpinner(fmt.Sprintf("Asking %s for outdated packages...", pm.Name), done)

	if err != nil {
		fmt.Println(styles.ErrorStyle.Render(err.Error()))
		os.Exit(constants.ExitSoftware)
	}

	entries := outdated.Parse(output)

	currentDirName := workingDirName(dir)

	var report []*outdated.Entry
	for _, entry := range entries {
		if entry.Skip(currentDirName, flags.UseLatest) {
			continue
		}
		report = append(report, entry)
	}

	if len(report) == 0 {
		fmt.Println(styles.SuccessStyle.Render("No outdated packages found 🎉"))
		return nil
	}

	printReport(report)

	if !flags.Update {
		return nil
	}

	specs := make([]string, 0, len(report))
	for _, entry := range report {
		specs = append(specs, entry.InstallSpec(flags.UseLatest))
	}

	if flags.DryRun {
		fmt.Printf("Would install: %v\n", specs)
		return nil
	}

	var extraArgs []string
	if flags.LegacyPeerDeps {
		extraArgs = append(extraArgs, "--legacy-peer-deps")
	}

	if err := pm.InstallPackages(dir, specs, extraArgs, flags.Verbose); err != nil {
		fmt.Println(styles.ErrorStyle.Render(err.Error()))
		os.Exit(constants.ExitSoftware)
	}

	fmt.Println(styles.SuccessStyle.Render("🎉 All dependencies updated successfully!"))

	return nil
}

func resolvePackageManager(dir string) *packagemanager.PackageManager {
	if flags.PackageManager != "" {
		if pm := packagemanager.FromName(flags.PackageManager); pm != nil {
			return pm
		}
	}
	return packagemanager.Detect(dir, "")
}

// queryOutdated runs the outdated query. With --patch the manifest's ranges
// are narrowed to tilde form for the duration of the query so the wanted
// column only reports patch upgrades; the original manifest is restored no
// matter how the query ends.
func queryOutdated(pm *packagemanager.PackageManager, dir string) (string, error) {
	if !flags.Patch {
		return pm.Outdated(dir)
	}

	guard, err := packagejson.ApplyPatchGuard(dir)
	if err != nil {
		return "", err
	}

	output, queryErr := pm.Outdated(dir)

	if err := guard.Restore(); err != nil {
		logger.L().Errorw("could not restore package.json", "error", err)
		if queryErr == nil {
			return "", err
		}
	}

	return output, queryErr
}

// workingDirName resolves the directory name used to filter out workspace
// entries depended on by other members.
func workingDirName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	return filepath.Base(abs)
}

func printReport(entries []*outdated.Entry) {
	for _, entry := range entries {
		level := entry.Level(flags.UseLatest)
		line := fmt.Sprintf("%s  %s → %s (%s)",
			entry.Name,
			entry.CurrentVersion,
			entry.TargetVersion(flags.UseLatest),
			level,
		)

		if entry.Type(flags.UseLatest) == outdated.Major {
			line += "  breaking"
		}

		fmt.Println(styles.LevelStyle(level).Render(line))
	}
}
