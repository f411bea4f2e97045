// Package prompt asks the operator questions, with huh forms on a terminal
// and plain line-oriented I/O otherwise.
package prompt

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Prompter is the question-asking surface used during installation.
type Prompter interface {
	// Confirm asks a yes/no question. Empty input selects defaultYes.
	Confirm(ctx context.Context, question string, defaultYes bool) (bool, error)
	// Input asks for a single line of text.
	Input(ctx context.Context, title, placeholder string) (string, error)
}

// IsTerminal reports whether f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// New returns a Huh prompter when both in and out are terminals, and a
// Line prompter reading in and writing out otherwise.
func New(in *os.File, out *os.File) Prompter {
	if IsTerminal(in) && IsTerminal(out) {
		return &Huh{}
	}
	var r io.Reader = strings.NewReader("")
	if in != nil {
		r = in
	}
	var w io.Writer = io.Discard
	if out != nil {
		w = out
	}
	return NewLine(r, w)
}

var _ Prompter = (*Line)(nil)
var _ Prompter = (*Huh)(nil)

// writerOrDiscard keeps Line usable with a nil writer.
func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
