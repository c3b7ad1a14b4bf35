// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import "github.com/ironforge-labs/physcore/math32"

// DebugRenderer is a debug-build-only visualization hook. The world
// coordinator calls it once per contact each sub-step; a host application
// wires in its own line/box/sphere renderer to see the broad-phase and
// contact state live. Production builds leave it at the default,
// NopDebugRenderer, which costs nothing beyond the interface call.
type DebugRenderer interface {
	AddLine(from, to math32.Vector3)
	AddBox(box math32.Box3)
	AddSphere(center math32.Vector3, radius float32)
	AddArrow(from, direction math32.Vector3)
}

// NopDebugRenderer discards everything. It is the default on every World.
type NopDebugRenderer struct{}

func (NopDebugRenderer) AddLine(from, to math32.Vector3)                {}
func (NopDebugRenderer) AddBox(box math32.Box3)                        {}
func (NopDebugRenderer) AddSphere(center math32.Vector3, radius float32) {}
func (NopDebugRenderer) AddArrow(from, direction math32.Vector3)        {}
