package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusOK statusKind = iota
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	label string
	color string
}{
	statusOK:    {label: "OK", color: "\x1b[32m"},
	statusWarn:  {label: "WARN", color: "\x1b[33m"},
	statusError: {label: "ERROR", color: "\x1b[31m"},
}

const (
	ansiReset       = "\x1b[0m"
	ansiHeader      = "\x1b[34m"
	statusLabelCols = 24
)

// statusPrinter writes the section headers and check lines shared by config
// show and preflight. Color is only used on terminals.
type statusPrinter struct {
	out      io.Writer
	colorize bool
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, colorize: isTerminal(out)}
}

func (p *statusPrinter) header(title string) {
	line := "== " + strings.TrimSpace(title) + " =="
	p.paint(ansiHeader, line)
	p.paint(ansiHeader, strings.Repeat("-", len(line)))
}

// check prints "  <label>: [KIND] detail" with the label column padded.
func (p *statusPrinter) check(label string, kind statusKind, detail string) {
	style := statusStyles[kind]
	line := fmt.Sprintf("  %-*s [%s]", statusLabelCols, label+":", style.label)
	if detail != "" {
		line += " " + detail
	}
	p.paint(style.color, line)
}

func (p *statusPrinter) paint(color, line string) {
	if p.colorize {
		line = color + line + ansiReset
	}
	fmt.Fprintln(p.out, line)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
