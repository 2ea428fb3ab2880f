// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	inkerr "github.com/inkpress-dev/inkpress/pkg/errors"
	"github.com/inkpress-dev/inkpress/pkg/hook"
)

func newHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Inspect and dispatch hooks",
	}

	cmd.AddCommand(
		newHooksListCmd(),
		newHooksDocsCmd(),
		newHooksFireCmd(),
	)

	return cmd
}

func newHooksListCmd() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the hook catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := buildRegistry()
			if err != nil {
				return err
			}

			defs := registry.All()
			if scope != "" {
				defs = registry.ByScope(hook.Scope(scope))
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tSCOPE\tSINCE")
			for _, def := range defs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					def.Name, def.HookType, def.Scope, def.AvailableSince)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "filter by scope (backend, frontend)")

	return cmd
}

// newHooksDocsCmd renders the full catalog as markdown, grouped by
// category. This is the offline documentation generator; it never touches
// the dispatch path.
func newHooksDocsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "Render the hook catalog as markdown",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := buildRegistry()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# Inkpress hook catalog (v%s)\n", registry.Version())

			byCategory := registry.ByCategory()
			for _, category := range registry.Categories() {
				fmt.Fprintf(out, "\n## %s\n\n", category)
				for _, def := range byCategory[category] {
					fmt.Fprintf(out, "### `%s`\n\n", def.Name)
					fmt.Fprintf(out, "%s\n\n", def.Description)
					fmt.Fprintf(out, "- Type: %s\n", def.HookType)
					fmt.Fprintf(out, "- Scope: %s\n", def.Scope)
					fmt.Fprintf(out, "- Fires at: %s\n", def.TriggerPoint)
					fmt.Fprintf(out, "- Available since: %s\n\n", def.AvailableSince)
				}
			}

			return nil
		},
	}
}

// newHooksFireCmd dispatches one hook by hand — an operator tool for
// testing plugin behavior outside a live request.
func newHooksFireCmd() *cobra.Command {
	var (
		payload     string
		payloadFile string
	)

	cmd := &cobra.Command{
		Use:   "fire [hook-name]",
		Short: "Dispatch a hook manually and print the resulting payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := []byte(payload)
			if payloadFile != "" {
				data, err := os.ReadFile(payloadFile)
				if err != nil {
					return inkerr.Wrapf(err, inkerr.CodeCLIInputInvalid,
						"reading payload file")
				}
				body = data
			}
			if !json.Valid(body) {
				return inkerr.New(inkerr.CodeCLIInputInvalid, "payload is not valid JSON")
			}

			c, err := buildCore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			result := c.dispatcher.Trigger(cmd.Context(), args[0], body)

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(result))
			return err
		},
	}

	cmd.Flags().StringVar(&payload, "payload", "{}", "inline JSON payload")
	cmd.Flags().StringVar(&payloadFile, "payload-file", "", "read the JSON payload from a file")

	return cmd
}
