package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.New(color.FgGreen).Sprint("✓ "+fmt.Sprintf(format, args...)))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.New(color.FgRed).Sprint("✗ "+fmt.Sprintf(format, args...)))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.New(color.FgYellow).Sprint("! "+fmt.Sprintf(format, args...)))
}

func printStatus(w io.Writer, label string, format string, args ...any) {
	fmt.Fprintf(w, "  %s %s\n", color.New(color.FgCyan).Sprint(label), fmt.Sprintf(format, args...))
}
