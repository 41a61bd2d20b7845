// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package asyncin

import (
	"errors"
	"os"
	"testing"
)

// TestUninitOperationsFailWithoutInit exercises the "Uninit --anything
// else--> fails" transition from §4.7's state machine: each operation
// below must report NotInitialized before Init has run. (Shutdown is
// not among them: it is idempotent and returns nil when not running.)
func TestUninitOperationsFailWithoutInit(t *testing.T) {
	ctx := NewContext(Config{})

	if _, err := ctx.DeviceCount(); !isKind(err, NotInitialized) {
		t.Errorf("DeviceCount before Init: got %v, want NotInitialized", err)
	}
	if err := ctx.RegisterCallback(func(Event) {}); !isKind(err, NotInitialized) {
		t.Errorf("RegisterCallback before Init: got %v, want NotInitialized", err)
	}
	if _, err := ctx.Poll(make([]Event, 1)); !isKind(err, NotInitialized) {
		t.Errorf("Poll before Init: got %v, want NotInitialized", err)
	}
	if err := ctx.SetDeviceFilter(nil); !isKind(err, NotInitialized) {
		t.Errorf("SetDeviceFilter before Init: got %v, want NotInitialized", err)
	}
	if _, err := ctx.Stats(); !isKind(err, NotInitialized) {
		t.Errorf("Stats before Init: got %v, want NotInitialized", err)
	}
}

// TestInitRejectsReservedFlags covers §7's InvalidArgument: "reserved
// flags not zero".
func TestInitRejectsReservedFlags(t *testing.T) {
	ctx := NewContext(Config{})
	if err := ctx.Init(1); !isKind(err, InvalidArgument) {
		t.Errorf("Init(1): got %v, want InvalidArgument", err)
	}
}

// TestPollRejectsEmptyBuffer covers §7's InvalidArgument: "non-positive
// max" — expressed in Go as an empty destination slice.
func TestPollRejectsEmptyBuffer(t *testing.T) {
	ctx := NewContext(Config{})
	if _, err := ctx.Poll(nil); !isKind(err, InvalidArgument) {
		t.Errorf("Poll(nil): got %v, want InvalidArgument", err)
	}
	if _, err := ctx.PollKeyEvents(nil); !isKind(err, InvalidArgument) {
		t.Errorf("PollKeyEvents(nil): got %v, want InvalidArgument", err)
	}
}

// TestInitShutdownIdempotent is property 3 from §8: init; init ≡ init,
// and shutdown after shutdown ≡ shutdown. This needs a real device
// namespace to start the acquisition task, so it's skipped where one
// isn't present (e.g. a minimal container with no /dev/input).
func TestInitShutdownIdempotent(t *testing.T) {
	if _, err := os.Stat("/dev/input"); err != nil {
		t.Skipf("no /dev/input in this environment: %v", err)
	}

	ctx := NewContext(Config{})
	if err := ctx.Init(0); err != nil {
		t.Skipf("Init failed in this environment (likely sandboxed): %v", err)
	}
	defer ctx.Shutdown()

	if err := ctx.Init(0); err != nil {
		t.Errorf("second Init: got %v, want idempotent success", err)
	}
	if err := ctx.Shutdown(); err != nil {
		t.Errorf("first Shutdown: got %v, want success", err)
	}
	if err := ctx.Shutdown(); err != nil {
		t.Errorf("second Shutdown: got %v, want idempotent success", err)
	}
	if _, err := ctx.DeviceCount(); !isKind(err, NotInitialized) {
		t.Errorf("DeviceCount after Shutdown: got %v, want NotInitialized", err)
	}
}

func isKind(err error, k Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == k
}
