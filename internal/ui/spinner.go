package ui

import "time"

// Spinner holds spinner animation frames.
type Spinner struct {
	Frames   []string
	Interval time.Duration
}

var (
	dotsSpinner = Spinner{
		Frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		Interval: 80 * time.Millisecond,
	}
	lineSpinner = Spinner{
		Frames:   []string{"-", "\\", "|", "/"},
		Interval: 100 * time.Millisecond,
	}
)

// DefaultSpinner returns braille dots on Unicode terminals and -\|/ otherwise.
func DefaultSpinner() Spinner {
	if UnicodeTerminal() {
		return dotsSpinner
	}
	return lineSpinner
}
