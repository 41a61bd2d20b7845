// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package asyncin

import "testing"

func TestConfigZeroValueDefaults(t *testing.T) {
	var c Config
	if got := c.ringCapacity(); got != 1024 {
		t.Errorf("ringCapacity() = %d, want 1024", got)
	}
	if got := c.keyRingCapacity(); got != 1024 {
		t.Errorf("keyRingCapacity() = %d, want ringCapacity's default 1024", got)
	}
}

func TestConfigExplicitCapacitiesOverrideDefaults(t *testing.T) {
	c := Config{RingCapacity: 256}
	if got := c.ringCapacity(); got != 256 {
		t.Errorf("ringCapacity() = %d, want 256", got)
	}
	if got := c.keyRingCapacity(); got != 256 {
		t.Errorf("keyRingCapacity() = %d, want to inherit RingCapacity 256 when unset", got)
	}

	c2 := Config{RingCapacity: 256, KeyRingCapacity: 64}
	if got := c2.keyRingCapacity(); got != 64 {
		t.Errorf("keyRingCapacity() = %d, want its own explicit 64", got)
	}
}
