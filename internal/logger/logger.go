// Package logger provides verbose logging for the keeva CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help users understand the retrieval pipeline.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var state = struct {
	sync.RWMutex
	verbose bool
	out     io.Writer
}{out: os.Stderr}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	state.Lock()
	state.verbose = v
	state.Unlock()
}

// IsVerbose reports whether verbose mode is enabled.
func IsVerbose() bool {
	state.RLock()
	defer state.RUnlock()
	return state.verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	state.Lock()
	state.out = w
	state.Unlock()
}

func emit(prefix, format string, args ...any) {
	state.RLock()
	defer state.RUnlock()
	if !state.verbose {
		return
	}
	fmt.Fprintf(state.out, prefix+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	emit("[DEBUG] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	emit("\n=== ", "%s ===", name)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	emit("[INFO] ", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	emit("[WARN] ", format, args...)
}
