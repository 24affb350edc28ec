// Package diag formats and prints compiler diagnostics to stderr.
package diag

import (
	"fmt"
	"os"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// Mode controls whether diagnostic output is colorized
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeAlways Mode = "always"
	ModeNever  Mode = "never"
)

var mode = ModeAuto

// SetMode sets the color mode for all subsequent diagnostic output
func SetMode(m Mode) {
	mode = m
	color.NoColor = !Enabled()
}

// Enabled reports whether color output is active. An explicit mode wins,
// then the NO_COLOR and FORCE_COLOR environment flags, then whether stderr
// is a terminal.
func Enabled() bool {
	switch mode {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	}

	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	return term.IsTerminal(int(os.Stderr.Fd()))
}

// PrintErrors writes formatted compiler errors to stderr
func PrintErrors(messages []api.Message) {
	emit(messages, api.ErrorMessage)
}

// PrintWarnings writes formatted compiler warnings to stderr
func PrintWarnings(messages []api.Message) {
	emit(messages, api.WarningMessage)
}

func emit(messages []api.Message, kind api.MessageKind) {
	if len(messages) == 0 {
		return
	}

	formatted := api.FormatMessages(messages, api.FormatMessagesOptions{
		Kind:          kind,
		Color:         Enabled(),
		TerminalWidth: width(),
	})

	fmt.Fprint(os.Stderr, strings.Join(formatted, ""))
}

func width() int {
	if w, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil && w > 0 {
		return w
	}

	return 80
}
