package imageops

import (
	"fmt"
	"sync"

	"github.com/pixelforge/pixelforge/logging"
)

// Forwarder receives warning-level diagnostic messages emitted by the
// imaging engine, one call per message, text unmodified.
type Forwarder func(message string)

// forwarderRegistry is the process-wide sink for engine warnings. It is an
// explicit singleton with a "set once at startup" contract: install before
// concurrent use begins. Replacing the forwarder later is allowed but not
// expected.
type forwarderRegistry struct {
	mu sync.RWMutex
	fn Forwarder
}

var registry forwarderRegistry

// InstallLogForwarder registers fn as the destination for engine warnings
// for the lifetime of the process, replacing the default sink (the process
// logger at warn level). Passing nil restores the default.
func InstallLogForwarder(fn Forwarder) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.fn = fn
}

// Warn forwards an engine warning to the installed forwarder. Engines call
// this for every warning-level diagnostic; no filtering, batching or
// rate-limiting is applied.
func Warn(message string) {
	registry.mu.RLock()
	fn := registry.fn
	registry.mu.RUnlock()

	if fn != nil {
		fn(message)
		return
	}
	logging.Global().Warn(message)
}

// Warnf forwards a formatted engine warning.
func Warnf(format string, args ...any) {
	Warn(fmt.Sprintf(format, args...))
}
