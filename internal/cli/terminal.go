// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for chatdesk commands.
//
// USABILITY: interactive terminals get colors, live status lines and hidden
// password prompts. Pipes and NO_COLOR get plain text.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the narrowest width used for layout
	MinTerminalWidth = 40
)

// IOStreams are the standard streams a command reads and writes.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// DefaultStreams returns the process streams.
func DefaultStreams() IOStreams {
	return IOStreams{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr}
}

// =============================================================================
// TTY DETECTION
// =============================================================================

// isTerminal reports whether v is an *os.File attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or DefaultTerminalWidth.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// colorProfile picks the termenv profile for w. NO_COLOR and non-terminals
// get Ascii.
func colorProfile(w io.Writer, noColor bool) termenv.Profile {
	if noColor || os.Getenv("NO_COLOR") != "" || !isTerminal(w) {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// =============================================================================
// PROMPTS
// =============================================================================

// lineReader reads answers from a non-terminal stdin. One is kept per App
// so buffered input is not lost between prompts.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(in io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(in)}
}

// ReadLine returns the next line without its terminator.
func (l *lineReader) ReadLine() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptLine writes prompt to w and reads one line.
func (a *App) promptLine(prompt string) (string, error) {
	fmt.Fprint(a.streams.ErrOut, prompt)
	return a.input.ReadLine()
}

// promptPassword reads a password without echo when stdin is a terminal.
// SECURITY: the password never reaches the terminal or the history file.
func (a *App) promptPassword(prompt string) (string, error) {
	fmt.Fprint(a.streams.ErrOut, prompt)
	if f, ok := a.streams.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.streams.ErrOut)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(data), nil
	}
	return a.input.ReadLine()
}
