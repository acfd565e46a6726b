package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	noColor bool

	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr

	renderer = lipgloss.NewRenderer(os.Stdout)
)

type styles struct {
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	info    lipgloss.Style
	bold    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		success: r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		err:     r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		info:    r.NewStyle().Foreground(lipgloss.Color("12")),
		bold:    r.NewStyle().Bold(true),
	}
}

var style = newStyles(renderer)

// colorProfile picks the color profile for a writer that may receive color.
var colorProfile = func(w io.Writer) termenv.Profile {
	if !isTerminal(w) {
		return termenv.Ascii
	}
	return termenv.NewOutput(w).EnvColorProfile()
}

// setupOutput points the printers at the given writers and decides whether
// to emit color: never with --no-color, NO_COLOR, or a non-terminal stdout.
func setupOutput(stdout, stderr io.Writer) {
	out, errOut = stdout, stderr
	renderer = lipgloss.NewRenderer(stdout)
	cp := termenv.Ascii
	if !noColor && os.Getenv("NO_COLOR") == "" {
		cp = colorProfile(stdout)
	}
	renderer.SetColorProfile(cp)
	style = newStyles(renderer)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(out, style.success.Render("✓")+" "+msg)
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(errOut, style.err.Render("✗")+" "+msg)
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(errOut, style.warning.Render("⚠")+" "+msg)
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	fmt.Fprintf(out, "  %s %s\n", style.bold.Render(label+":"), val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(errOut, style.info.Render("→")+" "+msg)
}
