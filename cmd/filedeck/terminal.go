package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/CageChen/filedeck/internal/actions"
	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

var (
	infoColor    = color.New(color.FgHiGreen)
	warningColor = color.New(color.FgHiYellow)
	errorColor   = color.New(color.FgHiRed)
)

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// terminalNotifier prints notices in colour on stderr.
type terminalNotifier struct {
	w io.Writer
}

func (n terminalNotifier) Notify(notice actions.Notice) {
	c := infoColor
	switch notice.Level {
	case actions.LevelWarning:
		c = warningColor
	case actions.LevelError:
		c = errorColor
	}
	c.Fprintln(n.w, notice.Message)
}

// promptConfirmer asks on the terminal; without a terminal it declines.
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
	yes bool
}

func (p promptConfirmer) Confirm(_ context.Context, prompt string) bool {
	if p.yes {
		return true
	}
	if f, ok := p.in.(*os.File); ok && !isTerminal(f) {
		fmt.Fprintln(p.out, warningColor.Sprint("not a terminal, use --yes to confirm"))
		return false
	}
	fmt.Fprintf(p.out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// startSpinner shows a spinner on a terminal until the returned func is called.
func startSpinner(suffix string) func() {
	if !isTerminal(os.Stderr) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}

// progressWriter returns a byte progress bar when stdout is a terminal,
// io.Discard otherwise.
func progressWriter(size int64, description string) io.Writer {
	if !isTerminal(os.Stdout) {
		return io.Discard
	}
	return progressbar.DefaultBytes(size, description)
}
