// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPluginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage plugins",
		Long:  "List discovered plugins and flip their enablement.",
	}

	cmd.AddCommand(
		newPluginListCmd(),
		newPluginEnableCmd(),
		newPluginDisableCmd(),
	)

	return cmd
}

func newPluginListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered plugins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := buildCore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			plugins := c.manager.List()
			if len(plugins) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No plugins discovered")
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVERSION\tENABLED\tHOOKS\tWARNINGS")
			for _, p := range plugins {
				fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%d\n",
					p.Manifest.ID, p.Manifest.Version, p.Enabled,
					len(p.Manifest.BackendHooks)+len(p.Manifest.FrontendHooks),
					len(p.Warnings))
			}
			return w.Flush()
		},
	}
}

func newPluginEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable [plugin-id]",
		Short: "Enable a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setPluginEnabled(cmd, args[0], true)
		},
	}
}

func newPluginDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable [plugin-id]",
		Short: "Disable a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setPluginEnabled(cmd, args[0], false)
		},
	}
}

func setPluginEnabled(cmd *cobra.Command, pluginID string, enabled bool) error {
	c, err := buildCore(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.manager.SetEnabled(cmd.Context(), pluginID, enabled); err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Plugin %q %s\n", pluginID, state)
	return err
}
