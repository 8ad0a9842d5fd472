// Package ui holds small console rendering helpers for the CLI.
package ui

import (
	"fmt"
	"os"
	"runtime"
	"sync"
)

// ANSI codes.
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
)

var (
	colorMu      sync.RWMutex
	colorEnabled = supportsColor()
)

// SetColorEnabled overrides color detection, e.g. for --no-color.
func SetColorEnabled(enabled bool) {
	colorMu.Lock()
	colorEnabled = enabled
	colorMu.Unlock()
}

// IsColorEnabled reports whether output gets ANSI codes.
func IsColorEnabled() bool {
	colorMu.RLock()
	defer colorMu.RUnlock()
	return colorEnabled
}

// Colorize wraps text in a color code when colors are enabled.
func Colorize(color, text string) string {
	if !IsColorEnabled() {
		return text
	}
	return color + text + Reset
}

// Successf formats a green message.
func Successf(format string, args ...any) string {
	return Colorize(Green, fmt.Sprintf(format, args...))
}

// Errorf formats a red message.
func Errorf(format string, args ...any) string {
	return Colorize(Red, fmt.Sprintf(format, args...))
}

// Warnf formats a yellow message.
func Warnf(format string, args ...any) string {
	return Colorize(Yellow, fmt.Sprintf(format, args...))
}

func supportsColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if runtime.GOOS == "windows" {
		return os.Getenv("WT_SESSION") != "" || os.Getenv("ANSICON") != ""
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}
