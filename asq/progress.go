package asq

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// Progress is a terminal-only activity indicator. It carries no data and
// must not influence the outcome of a run.
type Progress interface {
	Start()
	Stop()
}

type noopProgress struct{}

func (noopProgress) Start() {}
func (noopProgress) Stop()  {}

// NewProgress returns a spinner writing to w when w is a terminal, and a
// no-op otherwise. Stop only clears the spinner line; no final status line
// is printed.
func NewProgress(w io.Writer) Progress {
	f, ok := terminalFile(w)
	if !ok {
		return noopProgress{}
	}
	return newSpinner(f)
}

// newSpinner binds the spinner to f for both output and its own terminal
// check; spinner.WithWriter would leave the check on os.Stdout.
func newSpinner(f *os.File) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(f))
	s.Suffix = " waiting for the model..."
	return s
}

func terminalFile(w io.Writer) (*os.File, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil, false
	}
	return f, true
}

func isTerminal(w io.Writer) bool {
	_, ok := terminalFile(w)
	return ok
}
