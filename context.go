// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package asyncin is a cross-platform asynchronous input-capture
// library: it delivers keyboard and pointing-device events from the
// operating system to an application with microsecond-scale latency,
// decoupled from any windowing system or main-loop architecture. Two
// consumption models are offered over the same event stream — a
// worker-thread callback and a bounded non-blocking poll queue — along
// with an optional layout-aware keymap layer.
//
// A typical consumer either registers a callback:
//
//	ctx := asyncin.NewContext(asyncin.Config{})
//	ctx.Init(0)
//	defer ctx.Shutdown()
//	ctx.RegisterCallback(func(ev asyncin.Event) { ... })
//
// or polls:
//
//	buf := make([]asyncin.Event, 256)
//	n, _ := ctx.Poll(buf)
package asyncin

import (
	"sync"

	"github.com/galvanized/asyncin/internal/keymap"
	"github.com/galvanized/asyncin/internal/registry"
	"github.com/galvanized/asyncin/internal/ring"
	"github.com/galvanized/asyncin/internal/types"
	"github.com/galvanized/asyncin/internal/worker"
)

// Stats is a snapshot of the running delivered/dropped counters.
type Stats = worker.Stats

type lifecycle int

const (
	uninit lifecycle = iota
	running
)

// Context owns one acquisition task and its registry: exactly one
// acquisition task runs per Context, and it owns every resource that
// task needs. The zero value is not usable; build one with NewContext.
type Context struct {
	cfg Config

	mu    sync.Mutex
	state lifecycle

	reg       *registry.Registry
	eventRing *ring.Ring[types.Event]
	keyRing   *ring.Ring[types.KeyEvent]
	eng       platformEngine

	legacy     legacyReader
	legacyStop chan struct{}
	legacyWG   sync.WaitGroup
	miceOn     bool
	allowDup   bool
}

// NewContext builds a Context from cfg. It does not open any devices or
// start the acquisition task — call Init for that.
func NewContext(cfg Config) *Context {
	return &Context{
		cfg:       cfg,
		reg:       registry.New(0),
		eventRing: ring.New[types.Event](cfg.ringCapacity()),
		keyRing:   ring.New[types.KeyEvent](cfg.keyRingCapacity()),
	}
}

// Init starts the acquisition task. flags is reserved and must be 0.
// Init is idempotent: calling it while already running succeeds
// without restarting the task.
func (c *Context) Init(flags int) error {
	if flags != 0 {
		return newErr("asyncin: Init", InvalidArgument, nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == running {
		return nil
	}
	eng, err := newPlatformEngine(c.reg, c.eventRing, c.keyRing)
	if err != nil {
		return err
	}
	c.eng = eng
	c.state = running
	go c.eng.Run()
	return nil
}

// Shutdown stops the acquisition task, the legacy mouse task if
// running, and tears down all owned resources. Shutdown is idempotent.
func (c *Context) Shutdown() error {
	c.mu.Lock()
	if c.state != running {
		c.mu.Unlock()
		return nil
	}
	var stop chan struct{}
	var legacy legacyReader
	if c.miceOn {
		stop, legacy = c.legacyStop, c.legacy
		c.legacy = nil
		c.miceOn = false
	}
	eng := c.eng
	c.eng = nil
	c.state = uninit
	c.mu.Unlock()

	if stop != nil {
		c.stopLegacy(stop, legacy)
	}
	eng.Stop()
	return nil
}

func (c *Context) requireRunning(op string) error {
	if c.state != running {
		return newErr(op, NotInitialized, nil)
	}
	return nil
}

// SetDeviceFilter installs filter as the active device predicate and
// triggers a full rescan: endpoints the new filter rejects are
// removed, and previously-rejected candidate nodes are re-evaluated.
// A nil filter accepts every endpoint. On Windows the filter is stored
// but has no effect: Raw Input has no per-endpoint registry to rescan.
func (c *Context) SetDeviceFilter(filter Filter) error {
	c.mu.Lock()
	if err := c.requireRunning("asyncin: SetDeviceFilter"); err != nil {
		c.mu.Unlock()
		return err
	}
	if filter == nil {
		c.reg.SetFilter(nil)
	} else {
		c.reg.SetFilter(registry.Filter(filter))
	}
	eng := c.eng
	c.mu.Unlock()
	eng.TriggerRescan()
	return nil
}

// DeviceCount returns the registry's current size.
func (c *Context) DeviceCount() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireRunning("asyncin: DeviceCount"); err != nil {
		return 0, err
	}
	return c.eng.DeviceCount(), nil
}

// RegisterCallback installs the raw-event sink. While set, the event
// ring is bypassed. Pass nil to unregister and resume ring-based
// delivery.
func (c *Context) RegisterCallback(cb func(Event)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireRunning("asyncin: RegisterCallback"); err != nil {
		return err
	}
	c.eng.SetCallback(cb)
	return nil
}

// Poll drains up to len(buf) events from the ring into buf and returns
// the count. Safe to call even if a callback is registered, but the
// ring never receives events while it is (so Poll returns only events
// buffered before the callback was installed).
func (c *Context) Poll(buf []Event) (int, error) {
	if len(buf) == 0 {
		return 0, newErr("asyncin: Poll", InvalidArgument, nil)
	}
	c.mu.Lock()
	r := c.eventRing
	err := c.requireRunning("asyncin: Poll")
	c.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return r.PopMany(buf), nil
}

// RegisterKeyCallback installs the high-level KeyEvent sink, same
// bypass-the-ring contract as RegisterCallback.
func (c *Context) RegisterKeyCallback(cb func(KeyEvent)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireRunning("asyncin: RegisterKeyCallback"); err != nil {
		return err
	}
	c.eng.SetKeyCallback(cb)
	return nil
}

// PollKeyEvents drains up to len(buf) KeyEvents from the key ring.
func (c *Context) PollKeyEvents(buf []KeyEvent) (int, error) {
	if len(buf) == 0 {
		return 0, newErr("asyncin: PollKeyEvents", InvalidArgument, nil)
	}
	c.mu.Lock()
	r := c.keyRing
	err := c.requireRunning("asyncin: PollKeyEvents")
	c.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return r.PopMany(buf), nil
}

// EnableXKB toggles the keymap layer. Disabling closes the active
// provider. On a platform or build with no provider, enabling fails
// with Unsupported.
func (c *Context) EnableXKB(enable bool, names KeymapConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireRunning("asyncin: EnableXKB"); err != nil {
		return err
	}
	if !enable {
		c.eng.SetKeymap(nil)
		return nil
	}
	k, err := newPlatformKeymap(names)
	if err != nil {
		return newErr("asyncin: EnableXKB", Unsupported, err)
	}
	c.eng.SetKeymap(k)
	return nil
}

// SetXKBNames reconfigures the keymap layer with a new
// (rules, model, layout, variant, options) tuple, replacing any active
// provider. Equivalent to EnableXKB(true, names) once the layer has
// already been enabled.
func (c *Context) SetXKBNames(names KeymapConfig) error {
	return c.EnableXKB(true, names)
}

// EnableMice toggles the optional legacy-aggregated pointing-device
// reader: a second task reading a single byte-stream endpoint and
// decoding 3-or-4-byte packets into REL/KEY events at device_id == -2.
// Enabling it while per-endpoint evdev mouse nodes are already tracked
// under their own device_ids would duplicate pointer events, so
// EnableMice refuses with InvalidArgument unless
// AllowMouseDuplication(true) has been called first.
func (c *Context) EnableMice(enable bool) error {
	c.mu.Lock()
	if err := c.requireRunning("asyncin: EnableMice"); err != nil {
		c.mu.Unlock()
		return err
	}
	if !enable {
		if !c.miceOn {
			c.mu.Unlock()
			return nil
		}
		stop, legacy := c.legacyStop, c.legacy
		c.legacy = nil
		c.miceOn = false
		c.mu.Unlock()
		c.stopLegacy(stop, legacy)
		return nil
	}
	if c.miceOn {
		c.mu.Unlock()
		return nil
	}
	if !c.allowDup && c.hasMouseEndpoints() {
		c.mu.Unlock()
		return newErr("asyncin: EnableMice", InvalidArgument, nil)
	}
	r, err := newPlatformLegacyReader(c.cfg.LegacyMouseNode, c.cfg.LegacyMouseWheel)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.legacy = r
	c.legacyStop = make(chan struct{})
	c.miceOn = true
	c.legacyWG.Add(1)
	go func(stop chan struct{}) {
		defer c.legacyWG.Done()
		r.Run(stop, c.publishLegacy)
	}(c.legacyStop)
	c.mu.Unlock()
	return nil
}

// AllowMouseDuplication opts into running the legacy aggregated pointer
// reader alongside per-endpoint mouse tracking. Duplication is gated
// behind this explicit call rather than silently allowed.
func (c *Context) AllowMouseDuplication(allow bool) {
	c.mu.Lock()
	c.allowDup = allow
	c.mu.Unlock()
}

// hasMouseEndpoints reports whether any per-endpoint device is already
// tracked. The registry does not classify endpoints by capability (that
// would need an EVIOCGBIT capability query this layer doesn't do), so
// this errs conservative: any tracked endpoint at all blocks the
// aggregated reader unless the caller opts in with
// AllowMouseDuplication.
func (c *Context) hasMouseEndpoints() bool {
	return c.reg.Count() > 0
}

func (c *Context) publishLegacy(ev Event) {
	c.mu.Lock()
	eng := c.eng
	c.mu.Unlock()
	if eng == nil {
		return
	}
	eng.Publish(ev)
}

// stopLegacy signals the legacy reader goroutine to exit and waits for
// it. Must be called without holding c.mu: the goroutine's own
// publishLegacy calls lock c.mu to read c.eng, so waiting on it while
// holding the lock would deadlock against an in-flight publish.
func (c *Context) stopLegacy(stop chan struct{}, legacy legacyReader) {
	close(stop)
	c.legacyWG.Wait()
	legacy.Close()
}

// Stats returns a snapshot of the acquisition task's running
// delivered/dropped counters.
func (c *Context) Stats() (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireRunning("asyncin: Stats"); err != nil {
		return Stats{}, err
	}
	return c.eng.Stats(), nil
}
