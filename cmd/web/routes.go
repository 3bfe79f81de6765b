package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"near.org/web/internal/platform/config"
	"near.org/web/internal/routing"
)

func newRoutesCmd(envFile *string) *cobra.Command {
	var file string

	load := func() (routing.Table, error) {
		if file != "" {
			return routing.LoadTable(file)
		}
		cfg, err := config.Load(config.WithEnvFile(*envFile))
		if err != nil {
			return routing.Table{}, err
		}
		return loadTable(cfg)
	}

	routes := &cobra.Command{
		Use:   "routes",
		Short: "Print the effective routing table as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := load()
			if err != nil {
				return err
			}
			if _, err := routing.Compile(table); err != nil {
				return err
			}
			out, err := routing.EncodeTable(table)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	routes.PersistentFlags().StringVar(&file, "file", "", "routing table YAML to use instead of the configured one")

	var strict bool
	lint := &cobra.Command{
		Use:   "lint",
		Short: "Check the routing table for shadowed rules, chains and loops",
		Long: `Check the routing table offline. Errors cover invalid patterns and
destinations, rules that can never fire because an earlier rule matches
first, and redirect loops. Warnings cover redirect chains and redirects
that hide a rewrite. The command exits non-zero on errors, or on warnings
with --strict.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := load()
			if err != nil {
				return err
			}
			findings := routing.Lint(table)
			out := cmd.OutOrStdout()
			for _, f := range findings {
				fmt.Fprintln(out, f.String())
			}
			switch {
			case routing.HasErrors(findings):
				return fmt.Errorf("routing table has errors")
			case strict && len(findings) > 0:
				return fmt.Errorf("routing table has warnings")
			}
			fmt.Fprintf(out, "ok: %d redirects, %d rewrites, %d header rules\n",
				len(table.Redirects), len(table.Rewrites), len(table.Headers))
			return nil
		},
	}
	lint.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")

	routes.AddCommand(lint)
	return routes
}
