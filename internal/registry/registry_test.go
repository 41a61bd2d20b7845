// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package registry

import "testing"

func TestAddRejectsDuplicateID(t *testing.T) {
	r := New(0)
	if _, err := r.Add(1, 10, "/dev/input/event0", Info{}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := r.Add(1, 11, "/dev/input/event1", Info{}); err != ErrDuplicateID {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestAddRespectsCapacity(t *testing.T) {
	r := New(1)
	if _, err := r.Add(1, 10, "a", Info{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := r.Add(2, 11, "b", Info{}); err != ErrFull {
		t.Errorf("expected ErrFull, got %v", err)
	}
}

func TestRemoveCompactsOrderAndStalesToken(t *testing.T) {
	r := New(0)
	a, _ := r.Add(1, 10, "a", Info{})
	b, _ := r.Add(2, 11, "b", Info{})

	tok := a.Token
	if _, ok := r.Remove(1); !ok {
		t.Fatalf("expected remove to succeed")
	}
	if r.Count() != 1 || r.Snapshot()[0] != b {
		t.Errorf("expected only b to remain, got %d records", r.Count())
	}
	if _, ok := r.Resolve(tok); ok {
		t.Errorf("expected stale token to fail to resolve after removal")
	}
	if _, ok := r.Resolve(b.Token); !ok {
		t.Errorf("expected b's token to still resolve")
	}
}

func TestSlotReuseBumpsGeneration(t *testing.T) {
	r := New(0)
	a, _ := r.Add(1, 10, "a", Info{})
	oldTok := a.Token
	r.Remove(1)
	b, _ := r.Add(2, 11, "b", Info{})
	if b.Token.Slot != oldTok.Slot {
		t.Fatalf("expected slot reuse, got new slot %d vs old %d", b.Token.Slot, oldTok.Slot)
	}
	if b.Token.Gen == oldTok.Gen {
		t.Errorf("expected generation to change on reuse")
	}
	if _, ok := r.Resolve(oldTok); ok {
		t.Errorf("old token must not resolve to the new record")
	}
}

func TestFilterAccepts(t *testing.T) {
	r := New(0)
	if !r.Accepts(Info{Name: "anything"}) {
		t.Errorf("no filter installed: expected Accepts to default true")
	}
	r.SetFilter(func(i Info) bool { return i.Name == "keyboard" })
	if r.Accepts(Info{Name: "mouse"}) {
		t.Errorf("expected mouse to be rejected")
	}
	if !r.Accepts(Info{Name: "keyboard"}) {
		t.Errorf("expected keyboard to be accepted")
	}
}
