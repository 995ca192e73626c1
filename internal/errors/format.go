package errors

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ANSI escape sequences used by Format.
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiGray   = "\033[90m"
	ansiBold   = "\033[1m"
)

// painter wraps text in escape sequences when enabled.
type painter bool

func (p painter) paint(seq, text string) string {
	if !p {
		return text
	}
	return seq + text + ansiReset
}

// UseColor reports whether output written to w should carry ANSI colors:
// only terminals get them, and NO_COLOR turns them off everywhere.
func UseColor(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Fprint writes the formatted error to w, colored if w is a terminal.
func (e *Error) Fprint(w io.Writer) error {
	_, err := io.WriteString(w, e.Format(UseColor(w)))
	return err
}

// Format renders the error as a block of terminal text: the headline, the
// indented detail, the wrapped cause and the hint.
func (e *Error) Format(color bool) string {
	p := painter(color)
	var b strings.Builder

	headline := "ERROR"
	if e.Code != "" {
		headline += " " + e.Code
	}
	b.WriteString("\n")
	b.WriteString(p.paint(ansiBold+ansiRed, headline+":"))
	b.WriteString(" ")
	b.WriteString(p.paint(ansiBold, e.Message))
	b.WriteString("\n")

	if e.Detail != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(e.Detail, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	if e.Wrapped != nil {
		b.WriteString("\n  " + p.paint(ansiGray, "Caused by: "+e.Wrapped.Error()) + "\n")
	}
	if e.Suggestion != "" {
		b.WriteString("\n  " + p.paint(ansiYellow, "Hint:") + " " + e.Suggestion + "\n")
	}
	return b.String()
}
