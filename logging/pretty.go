package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/forgetools/forge/pkg/theme"
)

// PrettyLogger writes user-facing console output, as opposed to the
// structured logs handled by NewLogger. CLI commands use it for results
// and status lines.
type PrettyLogger struct {
	writer io.Writer
	theme  theme.Theme
}

// NewPrettyLogger creates a pretty logger writing to stderr.
func NewPrettyLogger() *PrettyLogger {
	return &PrettyLogger{
		writer: os.Stderr,
		theme:  theme.DefaultTheme,
	}
}

// WithWriter sets a custom writer for pretty output.
func (p *PrettyLogger) WithWriter(w io.Writer) *PrettyLogger {
	p.writer = w
	return p
}

// Success logs a success message with a checkmark.
func (p *PrettyLogger) Success(message string) {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.theme.Success.Render("✓"),
		p.theme.Success.Render(message))
}

// Info logs an informational message.
func (p *PrettyLogger) Info(message string) {
	fmt.Fprintf(p.writer, "%s\n", p.theme.Accent.Render(message))
}

// Warn logs a warning message.
func (p *PrettyLogger) Warn(message string) {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.theme.Warning.Render("⚠"),
		p.theme.Warning.Render(message))
}

// Error logs an error, appending the cause when present.
func (p *PrettyLogger) Error(message string, err error) {
	fmt.Fprintf(p.writer, "%s %s",
		p.theme.Error.Render("✗"),
		p.theme.Error.Render(message))
	if err != nil {
		fmt.Fprintf(p.writer, ": %s", p.theme.Error.Render(err.Error()))
	}
	fmt.Fprintln(p.writer)
}

// Field logs a key-value pair.
func (p *PrettyLogger) Field(key string, value interface{}) {
	fmt.Fprintf(p.writer, "%s: %s\n",
		p.theme.Muted.Render(key),
		p.theme.Accent.Render(fmt.Sprint(value)))
}

// Path logs a labeled file path.
func (p *PrettyLogger) Path(label string, path string) {
	fmt.Fprintf(p.writer, "%s: %s\n",
		p.theme.Muted.Render(label),
		p.theme.Muted.Italic(true).Render(path))
}

// Divider prints a visual divider.
func (p *PrettyLogger) Divider() {
	fmt.Fprintln(p.writer, p.theme.Muted.Render(strings.Repeat("─", 60)))
}

// Blank prints a blank line.
func (p *PrettyLogger) Blank() {
	fmt.Fprintln(p.writer)
}
