// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inkpress-dev/inkpress/internal/config"
	inkerr "github.com/inkpress-dev/inkpress/pkg/errors"
)

// NewRootCmd creates the root inkpress command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "inkpress",
		Short:         "Inkpress — blog engine plugin core",
		Long:          "Inkpress plugin tooling: inspect the hook catalog, manage plugins, and dispatch hooks by hand.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	// Global flags — these map to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("plugins-dir", "", "path to plugins directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newHooksCmd(),
		newPluginCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return inkerr.Wrapf(err, inkerr.CodeConfigLoadReadFailure, "reading config file")
		}
	} else {
		// Auto-discover inkpress.yaml from standard locations. No config
		// file is fine — defaults and env vars still apply; parse or
		// permission errors must surface.
		v.SetConfigName("inkpress")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/inkpress")
		v.AddConfigPath("/etc/inkpress")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return inkerr.Wrapf(err, inkerr.CodeConfigLoadReadFailure, "reading config")
			}
		}
	}

	if err := v.BindPFlag("plugins.dir", cmd.Root().PersistentFlags().Lookup("plugins-dir")); err != nil {
		return inkerr.Wrapf(err, inkerr.CodeCLIInputInvalid, "binding plugins-dir flag")
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	return nil
}
