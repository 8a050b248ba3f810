package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/toolshell/internal/config"
)

func newStatusCmd(flags *rootFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether the tools can be launched",
		Long: `Check every path setting: the interpreter must run with -v, both game
folders must be directories and both tool scripts must be files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "language: %s\n", cfg.ResolveLanguage())
			fmt.Fprintf(out, "viewer: %s\n", cfg.ViewerURL())

			report := config.Check(cmd.Context(), cfg, config.WithCheckTimeout(timeout))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SETTING\tSTATE\tPATH\tDETAIL")
			for _, res := range report.Results {
				path := res.Path
				if path == "" {
					path = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", res.Key, res.State, path, res.Detail)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if report.OK() {
				fmt.Fprintln(out, "ready")
			} else {
				fmt.Fprintf(out, "%d setting(s) need attention\n", len(report.Problems()))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", config.DefaultCheckTimeout, "How long the interpreter may take to report its version")
	return cmd
}

// formatCheck renders one check result on a single line.
func formatCheck(res config.CheckResult) string {
	s := string(res.State)
	if res.Path != "" {
		s += " " + res.Path
	}
	if res.Detail != "" {
		s += " (" + res.Detail + ")"
	}
	return s
}
