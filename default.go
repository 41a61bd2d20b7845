// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package asyncin

import "sync"

// defaultCtx is the process-default Context the package-level
// convenience wrappers operate on: callers may take a Context handle
// explicitly, or use these wrappers against a shared process default.
// It is built lazily with Config's zero value on first use.
var (
	defaultMu  sync.Mutex
	defaultCtx *Context
)

func defaultContext() *Context {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCtx == nil {
		defaultCtx = NewContext(Config{})
	}
	return defaultCtx
}

// Init starts the process-default Context's acquisition task. See
// Context.Init.
func Init(flags int) error { return defaultContext().Init(flags) }

// Shutdown stops the process-default Context. See Context.Shutdown.
func Shutdown() error { return defaultContext().Shutdown() }

// SetDeviceFilter installs filter on the process-default Context. See
// Context.SetDeviceFilter.
func SetDeviceFilter(filter Filter) error { return defaultContext().SetDeviceFilter(filter) }

// DeviceCount reports the process-default Context's registry size.
func DeviceCount() (int, error) { return defaultContext().DeviceCount() }

// RegisterCallback installs the raw-event sink on the process-default
// Context. See Context.RegisterCallback.
func RegisterCallback(cb func(Event)) error { return defaultContext().RegisterCallback(cb) }

// Poll drains the process-default Context's event ring. See
// Context.Poll.
func Poll(buf []Event) (int, error) { return defaultContext().Poll(buf) }

// RegisterKeyCallback installs the key-event sink on the process-default
// Context. See Context.RegisterKeyCallback.
func RegisterKeyCallback(cb func(KeyEvent)) error {
	return defaultContext().RegisterKeyCallback(cb)
}

// PollKeyEvents drains the process-default Context's key-event ring.
func PollKeyEvents(buf []KeyEvent) (int, error) { return defaultContext().PollKeyEvents(buf) }

// EnableXKB toggles the keymap layer on the process-default Context.
func EnableXKB(enable bool, names KeymapConfig) error {
	return defaultContext().EnableXKB(enable, names)
}

// SetXKBNames reconfigures the process-default Context's keymap layer.
func SetXKBNames(names KeymapConfig) error { return defaultContext().SetXKBNames(names) }

// EnableMice toggles the legacy aggregated pointer reader on the
// process-default Context.
func EnableMice(enable bool) error { return defaultContext().EnableMice(enable) }

// AllowMouseDuplication opts the process-default Context into running
// the legacy aggregated pointer reader alongside per-endpoint tracking.
func AllowMouseDuplication(allow bool) { defaultContext().AllowMouseDuplication(allow) }

// ProcessStats returns the process-default Context's running counters.
func ProcessStats() (Stats, error) { return defaultContext().Stats() }
