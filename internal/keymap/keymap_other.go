// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build !linux && !windows

package keymap

// New returns ErrUnsupported on every platform without a native keymap
// provider.
func New(cfg Config) (Keymap, error) { return nil, ErrUnsupported }
