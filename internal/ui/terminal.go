package ui

import (
	"io"
	"os"
	"runtime"
	"sync"

	"golang.org/x/term"
)

var (
	unicodeOnce sync.Once
	unicodeOK   bool
)

// UnicodeTerminal reports whether stderr can render braille spinners and
// check marks. False when piped, when TERM is "dumb", or on legacy Windows
// consoles.
func UnicodeTerminal() bool {
	unicodeOnce.Do(func() {
		if os.Getenv("TERM") == "dumb" {
			return
		}
		if !term.IsTerminal(int(os.Stderr.Fd())) {
			return
		}
		if runtime.GOOS == "windows" {
			unicodeOK = os.Getenv("WT_SESSION") != ""
			return
		}
		unicodeOK = true
	})
	return unicodeOK
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// Icon returns unicode when the terminal supports it, ascii otherwise.
func Icon(unicode, ascii string) string {
	if UnicodeTerminal() {
		return unicode
	}
	return ascii
}
