// Package ui styles the driver's terminal summary output. Never imported by
// the core (pkg/weft and below) — generation results are carried as plain
// data (pkg/diag.Diagnostic) up to this layer, which is the only place that
// decides how they look on a terminal.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	generatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	skippedStyle   = lipgloss.NewStyle().Faint(true)
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// GeneratedLine reports one feature file that was (re)generated.
func GeneratedLine(w io.Writer, path string) {
	fmt.Fprintln(w, generatedStyle.Render("gen")+"  "+path)
}

// SkippedLine reports one feature file left untouched because its content
// hash matched the run cache.
func SkippedLine(w io.Writer, path string) {
	fmt.Fprintln(w, skippedStyle.Render("skip")+" "+path)
}

// WarningLine reports one diagnostic at diag.Warning level.
func WarningLine(w io.Writer, message string) {
	fmt.Fprintln(w, warningStyle.Render("warn")+" "+message)
}

// ErrorLine reports one diagnostic at diag.Error level.
func ErrorLine(w io.Writer, message string) {
	fmt.Fprintln(w, errorStyle.Render("error")+" "+message)
}

// SummaryLine reports the overall run totals.
func SummaryLine(w io.Writer, generated, skipped, failed int) {
	fmt.Fprintf(w, "%d generated, %d skipped, %d failed\n", generated, skipped, failed)
}

// RunHeader prints the per-invocation correlation id a run's diagnostics can
// be grepped by, so warnings/errors from concurrent or logged invocations
// aren't ambiguous.
func RunHeader(w io.Writer, runID string) {
	fmt.Fprintln(w, skippedStyle.Render("run")+"  "+runID)
}
