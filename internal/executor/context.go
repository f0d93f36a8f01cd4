package executor

import "sync"

// The process-wide execution context. Sinks share it so a program with many
// handles still runs one timer; tests cycle it with Shutdown.
var (
	defaultMu   sync.Mutex
	defaultExec *Executor
)

// Default returns the shared Executor, creating it on first use.
func Default() *Executor {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultExec == nil {
		defaultExec = New()
	}
	return defaultExec
}

// Shutdown stops the shared Executor and discards it. A later Default call
// builds a fresh one.
func Shutdown() {
	defaultMu.Lock()
	e := defaultExec
	defaultExec = nil
	defaultMu.Unlock()
	if e != nil {
		e.Stop()
	}
}
