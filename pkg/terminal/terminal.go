// Package terminal is for terminal outputting
package terminal

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	breverrors "github.com/brevdev/fleet/pkg/errors"
)

type Terminal struct {
	out     io.Writer
	verbose io.Writer
	err     io.Writer

	Green  func(format string, a ...interface{}) string
	Yellow func(format string, a ...interface{}) string
	Red    func(format string, a ...interface{}) string
	Blue   func(format string, a ...interface{}) string
}

func New() (t *Terminal) {
	return NewWithWriters(os.Stdout, os.Stdout, os.Stderr)
}

func NewWithWriters(out, verbose, err io.Writer) *Terminal {
	return &Terminal{
		out:     out,
		verbose: verbose,
		err:     err,
		Green:   color.New(color.FgGreen).SprintfFunc(),
		Yellow:  color.New(color.FgYellow).SprintfFunc(),
		Red:     color.New(color.FgRed).SprintfFunc(),
		Blue:    color.New(color.FgBlue).SprintfFunc(),
	}
}

// NewTestTerminal returns a Terminal whose three streams land in the returned buffers.
func NewTestTerminal() (*Terminal, *bytes.Buffer, *bytes.Buffer, *bytes.Buffer) {
	out, verbose, errOut := &bytes.Buffer{}, &bytes.Buffer{}, &bytes.Buffer{}
	return NewWithWriters(out, verbose, errOut), out, verbose, errOut
}

// Out is the writer for primary output such as tables.
func (t *Terminal) Out() io.Writer {
	return t.verbose
}

func (t *Terminal) SetVerbose(verbose bool) {
	if verbose {
		t.out = t.verbose
	} else {
		t.out = silentWriter{}
	}
}

func (t *Terminal) Print(a string) {
	fmt.Fprintln(t.out, a)
}

func (t *Terminal) Printf(format string, a ...interface{}) {
	fmt.Fprintf(t.out, format, a...)
}

func (t *Terminal) Vprint(a string) {
	fmt.Fprintln(t.verbose, a)
}

func (t *Terminal) Vprintf(format string, a ...interface{}) {
	fmt.Fprintf(t.verbose, format, a...)
}

func (t *Terminal) Eprint(a string) {
	fmt.Fprintln(t.err, a)
}

func (t *Terminal) Eprintf(format string, a ...interface{}) {
	fmt.Fprintf(t.err, format, a...)
}

func (t *Terminal) Errprint(err error, a string) {
	t.Eprint(t.Red("Error: " + err.Error()))
	if a != "" {
		t.Eprint(t.Red(a))
	}
	var fleetErr breverrors.FleetError
	if breverrors.As(err, &fleetErr) {
		t.Eprint(t.Yellow(fleetErr.Directive()))
	}
}

type silentWriter struct{}

func (w silentWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}
