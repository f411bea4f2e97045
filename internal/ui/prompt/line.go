package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Line reads answers one line at a time. It is used when stdin is piped
// and in tests, where the reader is a scripted buffer.
type Line struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLine creates a line prompter.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewReader(in), out: writerOrDiscard(out)}
}

// Confirm accepts y/yes and n/no in any case and re-asks on anything else.
func (l *Line) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	for {
		_, _ = fmt.Fprintf(l.out, "%s %s ", question, hint)
		answer, err := l.readLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		_, _ = fmt.Fprintln(l.out, "Please answer yes or no.")
	}
}

// Input returns the trimmed line. The placeholder is shown as an example.
func (l *Line) Input(ctx context.Context, title, placeholder string) (string, error) {
	if placeholder != "" {
		_, _ = fmt.Fprintf(l.out, "%s (e.g. %s): ", title, placeholder)
	} else {
		_, _ = fmt.Fprintf(l.out, "%s: ", title)
	}
	return l.readLine(ctx)
}

// readLine blocks on the reader. The context is only checked up front
// since a pending read cannot be interrupted.
func (l *Line) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := l.in.ReadString('\n')
	if err != nil {
		// A final line without a newline still counts.
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
