//go:build windows

package config

import (
	"os"

	"golang.org/x/sys/windows"
	"golang.org/x/term"
)

// enableVirtualTerminalProcessing is ENABLE_VIRTUAL_TERMINAL_PROCESSING
// console mode flag.
const enableVirtualTerminalProcessing uint32 = 0x4

// EnableColorOutput reports whether ANSI colors could be used on stream and
// switches console into VT100 mode. Consoles before Windows 10 do not
// understand escape sequences.
func EnableColorOutput(stream *os.File) bool {
	if colorsDisabled() || windows.RtlGetVersion().MajorVersion < 10 {
		return false
	}
	fd := stream.Fd()
	if !term.IsTerminal(int(fd)) {
		return false
	}
	var mode uint32
	if err := windows.GetConsoleMode(windows.Handle(fd), &mode); err != nil {
		return false
	}
	if mode&enableVirtualTerminalProcessing != 0 {
		return true
	}
	return windows.SetConsoleMode(windows.Handle(fd), mode|enableVirtualTerminalProcessing) == nil
}
