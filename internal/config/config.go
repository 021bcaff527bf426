// Package config layers an optional project config file under the CLI flags.
// Values from the file only apply where the user did not set the flag on the
// command line, so explicit flags always win.
package config

import (
	"errors"

	"github.com/devbump/bumpall/internal/cli"
	"github.com/devbump/bumpall/internal/logger"
	"github.com/spf13/viper"
)

const configName = ".bumpallrc"

// Load reads the config file (either the explicit --config path or a
// .bumpallrc.{yaml,json,toml} found in the project dir or home) and fills in
// flags the user left untouched. changed reports whether a flag was set on
// the command line; a nil changed treats every flag as unset. A missing file
// is not an error.
func Load(flags *cli.Flags, changed func(name string) bool) error {
	if changed == nil {
		changed = func(string) bool { return false }
	}

	v := viper.New()

	if flags.ConfigFile != "" {
		v.SetConfigFile(flags.ConfigFile)
	} else {
		v.SetConfigName(configName)
		if flags.BaseDir != "" {
			v.AddConfigPath(flags.BaseDir)
		}
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && flags.ConfigFile == "" {
			return nil
		}
		return err
	}

	logger.L().Debugw("loaded config file", "path", v.ConfigFileUsed())

	apply(v, flags, changed)

	return nil
}

func apply(v *viper.Viper, flags *cli.Flags, changed func(name string) bool) {
	if !changed("registry") && v.IsSet("registry") {
		flags.Registry = v.GetString("registry")
	}
	if !changed("packageManager") && v.IsSet("packageManager") {
		flags.PackageManager = v.GetString("packageManager")
	}
	if !changed("timeout") && v.IsSet("timeout") {
		flags.Timeout = v.GetInt("timeout")
	}
	if !changed("cpus") && v.IsSet("cpus") {
		flags.CPUs = v.GetInt("cpus")
	}
	if !changed("include") && v.IsSet("include") {
		flags.Include = v.GetStringSlice("include")
	}
	if !changed("exclude") && v.IsSet("exclude") {
		flags.Exclude = v.GetStringSlice("exclude")
	}
	if !changed("legacyPeerDeps") && v.IsSet("legacyPeerDeps") {
		flags.LegacyPeerDeps = v.GetBool("legacyPeerDeps")
	}
	if !changed("noInstall") && v.IsSet("noInstall") {
		flags.NoInstall = v.GetBool("noInstall")
	}
}
