package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/standardbeagle/cppdeps/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// debugOutput is the writer for debug output (defaults to nil, meaning no output)
var debugOutput io.Writer

// debugMutex protects access to debug output
var debugMutex sync.Mutex

// SetDebugOutput sets a custom writer for debug output.
// Pass nil to disable debug output entirely.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// IsDebugEnabled returns true if debug mode is enabled
func IsDebugEnabled() bool {
	if EnableDebug == "true" {
		return true
	}

	// Allow runtime override via environment variable
	if os.Getenv("DEBUG") == "1" || os.Getenv("DEBUG") == "true" {
		return true
	}

	return false
}

// LogAnalysis writes a debug line for the analysis pipeline. No-op
// unless debug mode is enabled and a writer is set (stderr fallback).
func LogAnalysis(format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}

	debugMutex.Lock()
	w := debugOutput
	debugMutex.Unlock()
	if w == nil {
		w = os.Stderr
	}

	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(w, "[%s] "+format+"\n", append([]interface{}{ts}, args...)...)
}
