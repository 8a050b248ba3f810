package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/toolshell/internal/app"
	"github.com/dshills/toolshell/internal/config"
	"github.com/dshills/toolshell/internal/event"
	"github.com/dshills/toolshell/internal/process"
)

// exitPollInterval is how often run checks whether its tools are still alive.
const exitPollInterval = 250 * time.Millisecond

var (
	errAllExited = errors.New("all tools exited")
	errQuit      = errors.New("quit requested")
)

type runFlags struct {
	noColor     bool
	interactive bool
	watch       bool
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "run [tool...]",
		Short: "Launch tools and stream their output",
		Long: `Launch the named tools (default: parser) and print every output line as
"[tool] message". Lines written to stderr are highlighted.

run exits when every tool has exited or on interrupt. With --interactive it
keeps running and reads commands from stdin:

  start <tool>   launch or relaunch a tool
  stop <tool>    stop a tool
  status         show which tools are running
  check          verify the interpreter, folders and scripts
  logs <tool>    print the buffered output of a tool
  clear <tool>   drop the buffered output of a tool
  quit           stop everything and exit`,
		Example: `  toolshell run
  toolshell run parser viewer
  toolshell run --interactive viewer`,
		ValidArgs: app.Tools,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTools(cmd, flags, rf, args)
		},
	}

	cmd.Flags().BoolVar(&rf.noColor, "no-color", false, "Disable coloured output")
	cmd.Flags().BoolVarP(&rf.interactive, "interactive", "i", false, "Read commands from stdin")
	cmd.Flags().BoolVarP(&rf.watch, "watch", "w", false, "Reload settings when the file changes")

	return cmd
}

func runTools(cmd *cobra.Command, flags *rootFlags, rf runFlags, tools []string) error {
	if len(tools) == 0 {
		tools = []string{config.ToolParser}
	}

	opts, err := flags.appOptions()
	if err != nil {
		return err
	}
	a, err := app.New(opts)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	out := cmd.OutOrStdout()
	p := newPrinter(out, useColor(out, rf.noColor))

	if err := subscribeOutput(a, p); err != nil {
		return err
	}
	if rf.watch {
		if err := a.WatchConfig(); err != nil {
			return err
		}
	}

	for _, tool := range tools {
		if err := a.StartTool(tool); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watchExits(gctx, a, p, exitPollInterval, !rf.interactive)
	})
	if rf.interactive {
		lines := scanLines(gctx, cmd.InOrStdin())
		g.Go(func() error {
			return commandLoop(gctx, a, p, lines)
		})
	}

	err = g.Wait()
	if errors.Is(err, errAllExited) || errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// subscribeOutput prints relay output and lifecycle events.
func subscribeOutput(a *app.App, p *printer) error {
	bus := a.Bus()

	if _, err := bus.Subscribe(event.TopicProcessOutput, func(ev event.Event) {
		if out, ok := ev.Payload.(process.OutputEvent); ok {
			p.output(out)
		}
	}); err != nil {
		return err
	}

	if _, err := bus.Subscribe("tool.*", func(ev event.Event) {
		st, ok := ev.Payload.(event.ToolStatus)
		if !ok {
			return
		}
		switch ev.Topic {
		case event.TopicToolStarted:
			p.notice(st.Tool, "started")
		case event.TopicToolFailed:
			p.notice(st.Tool, "failed: "+st.Error)
		}
	}); err != nil {
		return err
	}

	_, err := bus.Subscribe(event.TopicConfigChanged, func(event.Event) {
		p.notice("config", "reloaded")
	})
	return err
}

// watchExits polls the tools and reports each one that stops running. If
// stopWhenIdle is set it returns errAllExited once none are left.
func watchExits(ctx context.Context, a *app.App, p *printer, interval time.Duration, stopWhenIdle bool) error {
	running := make(map[string]bool, len(app.Tools))
	for _, tool := range app.Tools {
		running[tool] = a.ToolRunning(tool)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		anyRunning := false
		for _, tool := range app.Tools {
			now := a.ToolRunning(tool)
			if running[tool] && !now {
				p.notice(tool, "exited")
			}
			running[tool] = now
			anyRunning = anyRunning || now
		}
		if stopWhenIdle && !anyRunning {
			return errAllExited
		}
	}
}

// scanLines reads r line by line on its own goroutine. The channel is
// closed at end of input or once ctx is done.
func scanLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func commandLoop(ctx context.Context, a *app.App, p *printer, lines <-chan string) error {
	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return errQuit
			}
			line = l
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := runCommand(a, p, fields[0], fields[1:]); err != nil {
			if errors.Is(err, errQuit) {
				return err
			}
			p.notice("error", err.Error())
		}
	}
}

func runCommand(a *app.App, p *printer, name string, args []string) error {
	needTool := func() (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("usage: %s <tool>", name)
		}
		return args[0], nil
	}

	switch name {
	case "start", "restart":
		tool, err := needTool()
		if err != nil {
			return err
		}
		return a.StartTool(tool)

	case "stop":
		tool, err := needTool()
		if err != nil {
			return err
		}
		if err := a.StopTool(tool); err != nil {
			return err
		}
		p.notice(tool, "stopped")
		return nil

	case "status":
		for _, tool := range app.Tools {
			p.notice(tool, string(a.Status(tool)))
		}
		return nil

	case "logs":
		tool, err := needTool()
		if err != nil {
			return err
		}
		for _, ev := range a.LogEntries(tool) {
			p.output(ev)
		}
		return nil

	case "check":
		report := a.CheckConfig(context.Background())
		for _, res := range report.Results {
			p.notice(res.Key, formatCheck(res))
		}
		return nil

	case "clear":
		tool, err := needTool()
		if err != nil {
			return err
		}
		a.ClearLogs(tool)
		return nil

	case "quit", "exit":
		return errQuit

	default:
		return fmt.Errorf("unknown command %q", name)
	}
}
