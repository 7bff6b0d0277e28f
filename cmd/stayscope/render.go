package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

type tone int

const (
	toneInfo tone = iota
	toneOK
	toneError
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiBlue  = "\x1b[34m"
)

const (
	statusLabelWidth = 24
	statusIndent     = "  "
)

var statusStyles = map[tone]struct {
	label string
	color string
}{
	toneInfo:  {label: "INFO", color: ansiBlue},
	toneOK:    {label: "OK", color: ansiGreen},
	toneError: {label: "ERROR", color: ansiRed},
}

// statusLine formats one aligned check line, colorized when the
// output is a terminal.
func statusLine(label string, kind tone, message string, colorize bool) string {
	style := statusStyles[kind]
	status := "[" + style.label + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", status)
	if colorize && style.color != "" {
		line = style.color + line + ansiReset
	}
	return line
}

func sectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	lines := []string{heading, strings.Repeat("-", len(heading))}
	if colorize {
		for i, line := range lines {
			lines[i] = ansiBlue + line + ansiReset
		}
	}
	return lines
}

func useColor(writer io.Writer) bool {
	if file, ok := writer.(*os.File); ok {
		return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
	}
	return false
}

func displayTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

func displayTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return displayTime(*t)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}
