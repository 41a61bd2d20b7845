// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package keymap is the optional layout-aware key layer: given a raw
// KEY event it maintains modifier state and produces a high-level
// KeyEvent with a resolved keysym, modifier snapshot, and UTF-8 text.
// Each platform supplies its own provider behind the same interface,
// one implementation per keymap_*.go build-tagged file.
package keymap

import (
	"errors"

	"github.com/galvanized/asyncin/internal/types"
)

// ErrUnsupported is returned by New, and by every Keymap method on a
// Keymap obtained from the Unsupported stub, on a platform or build
// with no keymap provider.
var ErrUnsupported = errors.New("keymap: unsupported")

// Config parameterizes the layout, mirroring xkb's classic
// (rules, model, layout, variant, options) tuple.
type Config struct {
	Rules, Model, Layout, Variant, Options string
}

// Keymap turns raw KEY events into layout-aware KeyEvents. It is not
// safe for concurrent use; the worker is its only caller.
type Keymap interface {
	// Dispatch updates internal modifier/key state from a raw KEY event
	// (ev.Code is the hardware scancode, ev.Value 1/0/2 for down/up/
	// repeat) and returns the resolved KeyEvent. ok is false when ev
	// should not produce a KeyEvent (e.g. autorepeat, if the provider
	// chooses to suppress it).
	Dispatch(ev types.Event) (out types.KeyEvent, ok bool, err error)

	// Close releases the provider's native resources.
	Close() error
}

// unsupported is the Keymap used on platforms/builds with no provider.
type unsupported struct{}

// NewUnsupported returns a Keymap whose every call fails with
// ErrUnsupported, used by platforms that have no native provider.
func NewUnsupported() Keymap { return unsupported{} }

func (unsupported) Dispatch(types.Event) (types.KeyEvent, bool, error) {
	return types.KeyEvent{}, false, ErrUnsupported
}
func (unsupported) Close() error { return ErrUnsupported }
