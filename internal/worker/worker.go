// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package worker is the acquisition worker: the single background task
// that drives a Platform's devices through a Multiplexer and Hotplug
// Monitor, normalizes raw records into core Events, and fans them out
// to a callback or ring, optionally dispatching KEY events through a
// keymap.Keymap into a second KeyEvent sink. It is written against the
// Multiplexer/Registry/Hotplug interfaces only, so the acquisition loop
// itself is platform-agnostic even though Linux is the reference
// platform it was built against (Windows is driven by internal/winraw
// instead — see that package's doc comment).
package worker

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/galvanized/asyncin/internal/hotplug"
	"github.com/galvanized/asyncin/internal/keymap"
	"github.com/galvanized/asyncin/internal/mux"
	"github.com/galvanized/asyncin/internal/registry"
	"github.com/galvanized/asyncin/internal/ring"
	"github.com/galvanized/asyncin/internal/types"
)

// ReadinessTimeout bounds both the multiplexer wait and the stop-signal
// response latency.
const ReadinessTimeout = 50 * time.Millisecond

// RescanWindow is how long a failed-open CREATE keeps the worker doing a
// full enumeration pass every iteration.
const RescanWindow = 3 * time.Second

// Platform opens, enumerates and reads one OS's native device nodes. The
// reference implementation is internal/linuxinput.
type Platform interface {
	// Enumerate lists every candidate device node path.
	Enumerate() ([]string, error)
	// IDFromPath derives the stable device_id the registry keys records
	// by, from a node path.
	IDFromPath(path string) (int, error)
	// Open opens path and queries its identity. The caller applies the
	// registry's Filter; Open itself does not.
	Open(path string) (handle uintptr, info registry.Info, err error)
	// Close releases an opened handle.
	Close(handle uintptr) error
	// ReadBatch decodes every record currently available on handle
	// without blocking: a tight inner loop until would-block.
	ReadBatch(handle uintptr, deviceID int) ([]types.Event, error)
}

// EventCallback is the raw-event sink. It runs synchronously on the
// worker task and must not block.
type EventCallback func(types.Event)

// KeyCallback is the high-level key sink.
type KeyCallback func(types.KeyEvent)

// Stats are the running delivered/dropped counters, grounded on the
// external sampling loop pattern benchmark tools in this space use,
// promoted here into the library itself.
type Stats struct {
	Delivered uint64
	Dropped   uint64
}

// Worker is the acquisition worker.
type Worker struct {
	reg      *registry.Registry
	mux      mux.Multiplexer
	hotplug  hotplug.Monitor
	platform Platform

	eventRing *ring.Ring[types.Event]
	keyRing   *ring.Ring[types.KeyEvent]

	callback    atomic.Pointer[EventCallback]
	keyCallback atomic.Pointer[KeyCallback]

	keymapMu sync.Mutex
	keymap   keymap.Keymap

	statsMu sync.Mutex
	stats   Stats

	rescanUntil time.Time
	rescanReq   chan chan struct{}

	stop chan struct{}
	done chan struct{}
}

// New builds a Worker. eventRing/keyRing are the ring sinks used when
// no callback is registered; either may be nil if that consumption
// model is never used.
func New(reg *registry.Registry, m mux.Multiplexer, hp hotplug.Monitor, platform Platform, eventRing *ring.Ring[types.Event], keyRing *ring.Ring[types.KeyEvent]) *Worker {
	return &Worker{
		reg: reg, mux: m, hotplug: hp, platform: platform,
		eventRing: eventRing, keyRing: keyRing,
		rescanReq: make(chan chan struct{}),
		stop:      make(chan struct{}), done: make(chan struct{}),
	}
}

// SetCallback installs (or, with nil, clears) the raw-event callback.
// Safe to call concurrently with Run: written by the API caller, read
// by the worker, atomic publish is sufficient.
func (w *Worker) SetCallback(cb EventCallback) {
	if cb == nil {
		w.callback.Store(nil)
		return
	}
	w.callback.Store(&cb)
}

// SetKeyCallback installs (or clears) the high-level key callback.
func (w *Worker) SetKeyCallback(cb KeyCallback) {
	if cb == nil {
		w.keyCallback.Store(nil)
		return
	}
	w.keyCallback.Store(&cb)
}

// SetKeymap installs (or, with nil, clears and closes) the keymap
// provider.
func (w *Worker) SetKeymap(k keymap.Keymap) {
	w.keymapMu.Lock()
	prev := w.keymap
	w.keymap = k
	w.keymapMu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

// Stats returns a snapshot of the running delivered/dropped counters.
func (w *Worker) Stats() Stats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.stats
}

// Stop signals the worker to exit and blocks until it has, within one
// ReadinessTimeout. On its way out the worker closes every tracked
// endpoint, the hotplug monitor and the multiplexer.
func (w *Worker) Stop() {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	<-w.done
}

// TriggerRescan synchronously re-evaluates every tracked record against
// the current filter and re-attempts every candidate path the platform
// enumerates: endpoints the filter now rejects are removed, and
// endpoints a now-permissive filter accepts are added. It blocks until
// the acquisition loop has applied the rescan, bounded by one
// ReadinessTimeout, so a caller observes the effect as soon as
// TriggerRescan returns. Safe to call concurrently with Run; a no-op if
// the worker has already stopped.
func (w *Worker) TriggerRescan() {
	done := make(chan struct{})
	select {
	case w.rescanReq <- done:
	case <-w.done:
		return
	}
	select {
	case <-done:
	case <-w.done:
	}
}

// Run is the acquisition loop. It returns only once Stop is called.
// Call in its own goroutine; exactly one per Context.
func (w *Worker) Run() {
	defer func() {
		for _, rec := range w.reg.Snapshot() {
			w.closeAndRemove(rec.ID)
		}
		if w.hotplug != nil {
			w.hotplug.Close()
		}
		w.mux.Close()
		close(w.done)
	}()

	if w.hotplug != nil {
		if err := w.mux.AttachHotplug(w.hotplug.Fd()); err != nil {
			log.Printf("asyncin/worker: attach hotplug: %v", err)
		}
	}
	w.rescan()

	for {
		select {
		case <-w.stop:
			return
		default:
		}

		select {
		case done := <-w.rescanReq:
			w.rescan()
			close(done)
		default:
		}

		if !w.rescanUntil.IsZero() {
			if time.Now().After(w.rescanUntil) {
				w.rescanUntil = time.Time{}
			} else {
				w.rescan()
			}
		}

		ready, err := w.mux.Wait(ReadinessTimeout)
		if err != nil {
			log.Printf("asyncin/worker: mux wait: %v", err)
			continue
		}
		for _, r := range ready {
			if r.Hotplug {
				w.drainHotplug()
				continue
			}
			tok, ok := r.Token.(registry.Token)
			if !ok {
				continue
			}
			rec, ok := w.reg.Resolve(tok)
			if !ok {
				continue // stale wake-up racing a Remove.
			}
			w.drain(rec)
		}
	}
}

// drain reads every record currently available on rec's handle and
// publishes it.
func (w *Worker) drain(rec *registry.Record) {
	events, err := w.platform.ReadBatch(rec.Handle, rec.ID)
	if err != nil {
		// Endpoint left registered; a subsequent hotplug DELETE is
		// authoritative.
		return
	}
	for _, ev := range events {
		w.publish(ev)
		if ev.Type == types.KEY {
			w.dispatchKey(ev)
		}
	}
}

// Publish feeds ev through the same callback-or-ring path the
// acquisition loop uses, without going through a KEY dispatch. Used to
// fold an independently-produced event stream (the legacy aggregated
// mouse reader) into the same sink the worker's own devices publish to.
func (w *Worker) Publish(ev types.Event) { w.publish(ev) }

func (w *Worker) publish(ev types.Event) {
	if cb := w.callback.Load(); cb != nil {
		(*cb)(ev)
		w.statsMu.Lock()
		w.stats.Delivered++
		w.statsMu.Unlock()
		return
	}
	if w.eventRing == nil {
		return
	}
	accepted := w.eventRing.Push(ev)
	w.statsMu.Lock()
	if accepted {
		w.stats.Delivered++
	} else {
		w.stats.Dropped++
	}
	w.statsMu.Unlock()
}

func (w *Worker) dispatchKey(ev types.Event) {
	w.keymapMu.Lock()
	k := w.keymap
	w.keymapMu.Unlock()
	if k == nil {
		return
	}
	out, ok, err := k.Dispatch(ev)
	if err != nil || !ok {
		return
	}
	if cb := w.keyCallback.Load(); cb != nil {
		(*cb)(out)
		return
	}
	if w.keyRing != nil {
		w.keyRing.Push(out)
	}
}

// drainHotplug applies every pending namespace change.
func (w *Worker) drainHotplug() {
	changes, err := w.hotplug.Drain()
	if err != nil {
		log.Printf("asyncin/worker: hotplug drain: %v", err)
		return
	}
	for _, c := range changes {
		switch c.Transition {
		case hotplug.Create:
			if w.tryAdd(c.Path) {
				w.rescanUntil = time.Now().Add(RescanWindow)
			}
		case hotplug.Delete:
			w.tryRemove(c.Path)
		}
	}
}

// rescan performs a full enumeration pass, adding any candidate endpoint
// not yet tracked. Also used as the full rescan a filter change
// triggers.
func (w *Worker) rescan() {
	paths, err := w.platform.Enumerate()
	if err != nil {
		return
	}
	for _, p := range paths {
		w.tryAdd(p)
	}
	// Re-evaluate already-tracked records against the current filter, so
	// a filter change also removes now-rejected endpoints.
	for _, rec := range w.reg.Snapshot() {
		if !w.reg.Accepts(rec.Info) {
			w.closeAndRemove(rec.ID)
		}
	}
}

// tryAdd opens path (if not already tracked) and, on success, registers
// and attaches it. It reports whether the open itself failed, so a
// hotplug CREATE can arm the rescan window.
func (w *Worker) tryAdd(path string) (openFailed bool) {
	id, err := w.platform.IDFromPath(path)
	if err != nil || w.reg.Has(id) {
		return
	}
	handle, info, err := w.platform.Open(path)
	if err != nil {
		return true
	}
	if !w.reg.Accepts(info) {
		w.platform.Close(handle)
		return
	}
	rec, err := w.reg.Add(id, handle, path, info)
	if err != nil {
		w.platform.Close(handle)
		return
	}
	if err := w.mux.Attach(int(rec.Handle), rec.Token); err != nil {
		log.Printf("asyncin/worker: attach %s: %v", path, err)
		w.reg.Remove(id)
		w.platform.Close(handle)
	}
	return false
}

// tryRemove resolves path to its device_id and removes/closes it.
func (w *Worker) tryRemove(path string) {
	id, err := w.platform.IDFromPath(path)
	if err != nil {
		return
	}
	w.closeAndRemove(id)
}

func (w *Worker) closeAndRemove(id int) {
	rec, ok := w.reg.Remove(id)
	if !ok {
		return
	}
	w.mux.Detach(int(rec.Handle))
	w.platform.Close(rec.Handle)
}
