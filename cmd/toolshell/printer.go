package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/dshills/toolshell/internal/process"
)

// printer writes tool output lines. It is safe for concurrent use.
type printer struct {
	mu sync.Mutex
	w  io.Writer

	tag    *color.Color
	stderr *color.Color
	faint  *color.Color
}

func newPrinter(w io.Writer, colored bool) *printer {
	p := &printer{
		w:      w,
		tag:    color.New(color.FgCyan, color.Bold),
		stderr: color.New(color.FgRed),
		faint:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.tag, p.stderr, p.faint} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// useColor reports whether w is a terminal that should get colour.
func useColor(w io.Writer, disabled bool) bool {
	if disabled || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) output(ev process.OutputEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tag.Fprintf(p.w, "[%s]", ev.Tool)
	fmt.Fprint(p.w, " ")
	if ev.Stream == process.StreamStderr {
		p.stderr.Fprintln(p.w, ev.Message)
		return
	}
	fmt.Fprintln(p.w, ev.Message)
}

func (p *printer) notice(subject, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.faint.Fprintf(p.w, "-- %s: %s\n", subject, msg)
}
