// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/galvanized/asyncin/internal/hotplug"
	"github.com/galvanized/asyncin/internal/mux"
	"github.com/galvanized/asyncin/internal/registry"
	"github.com/galvanized/asyncin/internal/ring"
	"github.com/galvanized/asyncin/internal/types"
)

// fakePlatform is an in-memory stand-in for internal/linuxinput, letting
// the acquisition loop be exercised without a real device namespace.
type fakePlatform struct {
	mu      sync.Mutex
	paths   []string
	opened  map[string]bool
	failing map[string]bool
	batches map[uintptr][]types.Event
	closed  []uintptr
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		opened:  make(map[string]bool),
		failing: make(map[string]bool),
		batches: make(map[uintptr][]types.Event),
	}
}

func (p *fakePlatform) Enumerate() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.paths))
	copy(out, p.paths)
	return out, nil
}

func (p *fakePlatform) IDFromPath(path string) (int, error) {
	// "dev3" -> 3, matching linuxinput's eventN convention closely enough
	// for the loop to key on.
	var n int
	for _, c := range path {
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
		}
	}
	return n, nil
}

func (p *fakePlatform) Open(path string) (uintptr, registry.Info, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing[path] {
		return 0, registry.Info{}, errOpenFailed
	}
	p.opened[path] = true
	handle := uintptr(len(p.opened))
	return handle, registry.Info{Name: path}, nil
}

func (p *fakePlatform) Close(handle uintptr) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, handle)
	return nil
}

func (p *fakePlatform) ReadBatch(handle uintptr, deviceID int) ([]types.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	batch := p.batches[handle]
	delete(p.batches, handle)
	return batch, nil
}

type stubErr string

func (e stubErr) Error() string { return string(e) }

const errOpenFailed = stubErr("open failed")

// fakeMux is a Multiplexer whose Wait is driven entirely by an injected
// channel of Ready slices, so a test can sequence readiness without
// timing dependencies.
type fakeMux struct {
	mu        sync.Mutex
	attached  map[int]any
	hotplugFd int
	ready     chan []mux.Ready
}

func newFakeMux() *fakeMux {
	return &fakeMux{attached: make(map[int]any), hotplugFd: -1, ready: make(chan []mux.Ready, 16)}
}

func (m *fakeMux) Attach(fd int, token any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attached[fd] = token
	return nil
}
func (m *fakeMux) Detach(fd int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attached, fd)
	return nil
}
func (m *fakeMux) AttachHotplug(fd int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotplugFd = fd
	return nil
}
func (m *fakeMux) Wait(timeout time.Duration) ([]mux.Ready, error) {
	select {
	case r := <-m.ready:
		return r, nil
	case <-time.After(timeout):
		return nil, nil
	}
}
func (m *fakeMux) Close() error { return nil }

// fakeHotplug is a Monitor with no real descriptor; Drain returns
// whatever has been queued by the test via push.
type fakeHotplug struct {
	mu      sync.Mutex
	changes []hotplug.Change
}

func (h *fakeHotplug) Fd() int { return -1 }
func (h *fakeHotplug) Drain() ([]hotplug.Change, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.changes
	h.changes = nil
	return out, nil
}
func (h *fakeHotplug) Close() error { return nil }
func (h *fakeHotplug) push(c hotplug.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.changes = append(h.changes, c)
}

func newTestWorker() (*Worker, *fakePlatform, *fakeMux, *fakeHotplug, *registry.Registry) {
	reg := registry.New(0)
	m := newFakeMux()
	hp := &fakeHotplug{}
	p := newFakePlatform()
	eventRing := ring.New[types.Event](8)
	keyRing := ring.New[types.KeyEvent](8)
	w := New(reg, m, hp, p, eventRing, keyRing)
	return w, p, m, hp, reg
}

// TestCallbackBypassesRing checks property 7 (S-universal #7): once a
// callback is registered, published events reach it and never the ring.
func TestCallbackBypassesRing(t *testing.T) {
	w, p, m, _, reg := newTestWorker()
	p.mu.Lock()
	p.paths = []string{"dev0"}
	p.mu.Unlock()

	var got []types.Event
	var mu sync.Mutex
	w.SetCallback(func(ev types.Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})

	go w.Run()
	defer w.Stop()

	waitForCondition(t, func() bool { return reg.Count() == 1 })

	rec, ok := reg.Resolve(reg.Snapshot()[0].Token)
	if !ok {
		t.Fatal("expected token to resolve")
	}
	p.mu.Lock()
	p.batches[rec.Handle] = []types.Event{
		{DeviceID: rec.ID, Type: types.KEY, Code: 30, Value: 1},
	}
	p.mu.Unlock()
	m.ready <- []mux.Ready{{Token: rec.Token}}

	waitForCondition(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})

	if w.eventRing.Len() != 0 {
		t.Errorf("expected ring to stay empty while callback is registered, got %d", w.eventRing.Len())
	}
	stats := w.Stats()
	if stats.Delivered != 1 || stats.Dropped != 0 {
		t.Errorf("expected 1 delivered, 0 dropped, got %+v", stats)
	}
}

// TestRingReceivesWhenNoCallback exercises the other half of the S2-style
// scenario: no callback, events land in the ring and Poll drains them.
func TestRingReceivesWhenNoCallback(t *testing.T) {
	w, p, m, _, reg := newTestWorker()
	p.mu.Lock()
	p.paths = []string{"dev1"}
	p.mu.Unlock()

	go w.Run()
	defer w.Stop()

	waitForCondition(t, func() bool { return reg.Count() == 1 })
	rec, _ := reg.Resolve(reg.Snapshot()[0].Token)
	p.mu.Lock()
	p.batches[rec.Handle] = []types.Event{
		{DeviceID: rec.ID, Type: types.REL, Code: types.RelX, Value: 5},
	}
	p.mu.Unlock()
	m.ready <- []mux.Ready{{Token: rec.Token}}

	waitForCondition(t, func() bool { return w.eventRing.Len() == 1 })

	buf := make([]types.Event, 4)
	n := w.eventRing.PopMany(buf)
	if n != 1 || buf[0].Value != 5 {
		t.Errorf("expected one REL event with value 5, got n=%d buf=%v", n, buf[:n])
	}
}

// TestHotplugCreateThenDeleteAddsAndRemovesExactlyOnce checks property 6.
func TestHotplugCreateThenDeleteAddsAndRemovesExactlyOnce(t *testing.T) {
	w, p, m, hp, reg := newTestWorker()
	_ = p
	go w.Run()
	defer w.Stop()

	hp.push(hotplug.Change{Transition: hotplug.Create, Path: "dev7"})
	p.mu.Lock()
	p.paths = nil // Enumerate shouldn't be the source here: hotplug drives it.
	p.mu.Unlock()
	m.ready <- []mux.Ready{{Hotplug: true}}

	waitForCondition(t, func() bool { return reg.Count() == 1 })
	if !reg.Has(7) {
		t.Fatalf("expected device id 7 to be tracked")
	}

	hp.push(hotplug.Change{Transition: hotplug.Delete, Path: "dev7"})
	m.ready <- []mux.Ready{{Hotplug: true}}

	waitForCondition(t, func() bool { return reg.Count() == 0 })
}

// TestFailedOpenArmsRescanWindow checks that a CREATE whose open fails
// keeps retrying via the enumeration pass rather than giving up, per
// §4.4's rescan-window behavior: once the path becomes openable, it is
// picked up without a second hotplug notification.
func TestFailedOpenArmsRescanWindow(t *testing.T) {
	w, p, m, hp, reg := newTestWorker()
	p.mu.Lock()
	p.failing["dev9"] = true
	p.mu.Unlock()

	go w.Run()
	defer w.Stop()

	hp.push(hotplug.Change{Transition: hotplug.Create, Path: "dev9"})
	m.ready <- []mux.Ready{{Hotplug: true}}

	// Give the worker a few readiness-timeout cycles to observe the
	// failed open and settle into the rescan window before the path
	// becomes openable — this is what exercises the retry path rather
	// than a lucky first attempt.
	time.Sleep(3 * ReadinessTimeout)
	if reg.Count() != 0 {
		t.Fatalf("expected dev9 to still be unopenable, registry has %d records", reg.Count())
	}

	p.mu.Lock()
	p.failing["dev9"] = false
	p.paths = []string{"dev9"}
	p.mu.Unlock()

	waitForCondition(t, func() bool { return reg.Count() == 1 })
}

// TestTriggerRescanAppliesFilterSynchronously checks spec §4.7's
// testable property 5: once a filter change's rescan completes, every
// tracked record satisfies the new filter. It also exercises the S4
// scenario's shape — a newly-permissive filter picks up a path that
// previously failed Accepts without waiting for a hotplug event.
func TestTriggerRescanAppliesFilterSynchronously(t *testing.T) {
	w, p, _, _, reg := newTestWorker()
	p.mu.Lock()
	p.paths = []string{"dev3", "dev4"}
	p.mu.Unlock()

	go w.Run()
	defer w.Stop()

	waitForCondition(t, func() bool { return reg.Count() == 2 })

	reg.SetFilter(func(info registry.Info) bool { return info.Name != "dev3" })
	w.TriggerRescan()

	if reg.Count() != 1 || reg.Has(3) {
		t.Fatalf("expected dev3 removed by TriggerRescan, registry: count=%d has(3)=%v", reg.Count(), reg.Has(3))
	}
	if !reg.Has(4) {
		t.Fatalf("expected dev4 to remain tracked")
	}

	reg.SetFilter(nil)
	p.mu.Lock()
	p.paths = []string{"dev3", "dev4"}
	p.mu.Unlock()
	w.TriggerRescan()

	if reg.Count() != 2 || !reg.Has(3) {
		t.Fatalf("expected dev3 re-added once the filter allows it again, count=%d has(3)=%v", reg.Count(), reg.Has(3))
	}
}

// TestStopRespondsWithinReadinessTimeout checks the liveness bound §4.5
// documents: the worker must notice Stop within one multiplexer wait.
func TestStopRespondsWithinReadinessTimeout(t *testing.T) {
	w, _, _, _, _ := newTestWorker()
	go w.Run()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * ReadinessTimeout):
		t.Fatal("Stop did not return within a few readiness timeouts")
	}
}

// TestKeymapDispatchOnlyFiresForKeyEvents ensures non-KEY records never
// reach the keymap layer.
func TestKeymapDispatchOnlyFiresForKeyEvents(t *testing.T) {
	w, p, m, _, reg := newTestWorker()
	p.mu.Lock()
	p.paths = []string{"dev2"}
	p.mu.Unlock()

	var calls int32
	w.SetKeymap(fakeKeymap{onDispatch: func() { atomic.AddInt32(&calls, 1) }})

	go w.Run()
	defer w.Stop()

	waitForCondition(t, func() bool { return reg.Count() == 1 })
	rec, _ := reg.Resolve(reg.Snapshot()[0].Token)
	p.mu.Lock()
	p.batches[rec.Handle] = []types.Event{
		{DeviceID: rec.ID, Type: types.REL, Code: types.RelX, Value: 1},
		{DeviceID: rec.ID, Type: types.KEY, Code: 30, Value: 1},
	}
	p.mu.Unlock()
	m.ready <- []mux.Ready{{Token: rec.Token}}

	waitForCondition(t, func() bool { return atomic.LoadInt32(&calls) == 1 })
}

type fakeKeymap struct{ onDispatch func() }

func (f fakeKeymap) Dispatch(ev types.Event) (types.KeyEvent, bool, error) {
	f.onDispatch()
	return types.KeyEvent{DeviceID: ev.DeviceID, Down: ev.Value != 0}, true, nil
}
func (f fakeKeymap) Close() error { return nil }

func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
