package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"FAIL", "\x1b[31m"},
}

const ansiReset = "\x1b[0m"

// statusCell renders a status label, coloured when writing to a terminal.
func statusCell(kind statusKind, colorize bool) string {
	style := statusStyles[kind]
	if !colorize {
		return style.label
	}
	return style.color + style.label + ansiReset
}

func renderSectionHeader(title string, colorize bool) string {
	line := "== " + title + " =="
	if !colorize {
		return line
	}
	return statusStyles[statusInfo].color + line + ansiReset
}

// shouldColorize reports whether w is an interactive terminal.
func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
