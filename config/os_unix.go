//go:build !windows

package config

import (
	"os"

	"golang.org/x/term"
)

// EnableColorOutput reports whether ANSI colors could be used on stream, both
// by log encoder and by story output in terminal. NO_COLOR and dumb terminals
// turn colors off.
func EnableColorOutput(stream *os.File) bool {
	if colorsDisabled() || os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(stream.Fd()))
}
