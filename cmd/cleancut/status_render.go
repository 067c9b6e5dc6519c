package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

type statusStyle struct {
	label  string
	colors text.Colors
}

var statusStyles = map[statusKind]statusStyle{
	statusInfo:  {label: "INFO", colors: text.Colors{text.FgBlue}},
	statusOK:    {label: "OK", colors: text.Colors{text.FgGreen}},
	statusWarn:  {label: "WARN", colors: text.Colors{text.FgYellow}},
	statusError: {label: "ERROR", colors: text.Colors{text.FgRed}},
}

const statusLabelWidth = 22

// renderStatusLine formats "  Label:  [KIND] message".
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	line := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, label+":", style.label)
	if message != "" {
		line += " " + message
	}
	if colorize {
		return style.colors.Sprint(line)
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	line := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(line))
	if colorize {
		header := text.Colors{text.FgBlue, text.Bold}
		return []string{header.Sprint(line), header.Sprint(rule)}
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
