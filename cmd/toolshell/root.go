package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/toolshell/internal/app"
	"github.com/dshills/toolshell/internal/config"
)

type rootFlags struct {
	configPath  string
	logFilePath string
	logLevel    string
}

// resolvedConfigPath returns --config or the per-user default.
func (f *rootFlags) resolvedConfigPath() (string, error) {
	if f.configPath != "" {
		return f.configPath, nil
	}
	return config.DefaultPath()
}

func (f *rootFlags) appOptions() (app.Options, error) {
	path, err := f.resolvedConfigPath()
	if err != nil {
		return app.Options{}, err
	}
	return app.Options{
		ConfigPath: path,
		LogPath:    f.logFilePath,
		LogLevel:   f.logLevel,
	}, nil
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "toolshell",
		Short: "toolshell - run and supervise helper tools",
		Long:  "toolshell launches the configured parser and viewer scripts, relays their output, and manages their settings.",
		Example: `  toolshell run
  toolshell run parser viewer
  toolshell config set parser_tool_path ~/tools/parser.php`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to the settings file (.yaml or .toml)")
	cmd.PersistentFlags().StringVar(&flags.logFilePath, "log-file", "", "Path to the debug log file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))
	cmd.AddCommand(newSysinfoCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// execute runs the CLI with the process's standard streams.
func execute(ctx context.Context, args []string) error {
	return executeWith(ctx, os.Stdin, os.Stdout, os.Stderr, args...)
}

func executeWith(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	rootCmd := newRootCmd()
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
