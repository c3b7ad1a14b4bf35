// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"sync"

	"github.com/ironforge-labs/physcore/math32"
)

// lutEntry is one slot of the world's public -> internal lookup table.
// index is the live position of the object inside its owning subsystem's
// packed slot arrays (MotionSystem's per-field slices, MotionSystem.statics,
// or the light slice).
// Material handles never go through this table -- the material database
// is append-only and its handle carries a permanent index into it.
type lutEntry struct {
	present bool
	objType ObjectType
	index   int
}

// BodySpec describes a kinematic or dynamic body at construction time.
type BodySpec struct {
	Kind            ObjectType // must be TypeKinematic or TypeDynamic
	Position        math32.Vector3
	Orientation     math32.Quaternion
	LinearVelocity  math32.Vector3
	AngularVelocity math32.Vector3
	InverseMass     float32
	InverseInertia  math32.Matrix3
	Drag            float32
	Scale           math32.Vector3
	Material        Handle
	Collider        Shape
	BroadPhaseLocal math32.Box3
}

// StaticSpec describes a never-moving body at construction time.
type StaticSpec struct {
	Transform       math32.Matrix4
	Material        Handle
	Collider        Shape
	BroadPhaseLocal math32.Box3
}

// World is the single public mutator of a physics simulation. It owns the
// material database, motion system, contact system, solver, and the
// public -> internal handle lookup table, and takes an exclusive lock for
// the duration of every mutating call and of Update.
type World struct {
	mu sync.Mutex

	cfg Config

	materials MaterialDB
	motion    *MotionSystem
	contacts  *ContactSystem
	solver    *Solver

	lookup       []lutEntry
	freeSlots    []uint16
	lights       []math32.Matrix4
	bodyMaterial map[Handle]Handle

	debug DebugRenderer
}

// RenderCallback is invoked once per handle returned by Frustumcast. The
// core only supplies the handle and its current world transform -- it has
// no notion of subpasses, materials, or the graphics backend drawing it.
type RenderCallback func(h Handle, transform math32.Matrix4)

// NewWorld constructs an empty world from cfg and an initial gravity vector.
func NewWorld(cfg Config, gravity math32.Vector3) *World {
	cfg = cfg.validate()
	return &World{
		cfg:          cfg,
		motion:       NewMotionSystem(gravity),
		contacts:     NewContactSystem(cfg.BVHCapacity, cfg.KinematicExpansion),
		solver:       NewSolver(cfg.BaumgarteBeta),
		bodyMaterial: make(map[Handle]Handle),
		debug:        NopDebugRenderer{},
	}
}

// SetDebugRenderer installs r as the target of every debug-visualization
// call made during Update. Passing nil restores NopDebugRenderer.
func (w *World) SetDebugRenderer(r DebugRenderer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if r == nil {
		r = NopDebugRenderer{}
	}
	w.debug = r
}

// Frustumcast collects the handle of every live body whose broad-phase box
// intersects frustum, then invokes cb once per handle with its current
// world transform. It returns nothing; the caller decides what, if
// anything, to draw.
func (w *World) Frustumcast(frustum *math32.Frustum, cb RenderCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var handles []Handle
	handles = w.contacts.tree.Frustumcast(frustum, handles)
	for _, h := range handles {
		if cb == nil {
			continue
		}
		if t, err := w.unsafeGetTransform(h); err == nil {
			cb(h, t)
		}
	}
}

// unsafeGetTransform is GetTransform's body without locking, for callers
// that already hold w.mu.
func (w *World) unsafeGetTransform(handle Handle) (math32.Matrix4, error) {
	entry, err := w.resolve(handle)
	if err != nil {
		return math32.Matrix4{}, err
	}
	switch entry.objType {
	case TypeStatic:
		return w.motion.GetStaticTransform(entry.index), nil
	case TypeKinematic, TypeDynamic:
		return w.motion.GetTransform(entry.index), nil
	case TypeLight:
		return w.lights[entry.index], nil
	default:
		return math32.Matrix4{}, &PhysicsError{Kind: HandleInvalid, Message: "handle does not carry a transform"}
	}
}

// allocSlot reserves a lookup slot, reusing a freed one when available.
func (w *World) allocSlot(objType ObjectType, index int) Handle {
	var slot uint16
	if n := len(w.freeSlots); n > 0 {
		slot = w.freeSlots[n-1]
		w.freeSlots = w.freeSlots[:n-1]
		w.lookup[slot] = lutEntry{present: true, objType: objType, index: index}
	} else {
		slot = uint16(len(w.lookup))
		w.lookup = append(w.lookup, lutEntry{present: true, objType: objType, index: index})
	}
	return NewHandle(objType, slot)
}

// resolve validates handle and returns its lookup entry.
func (w *World) resolve(handle Handle) (lutEntry, error) {
	if err := handle.Validate(); err != nil {
		return lutEntry{}, err
	}
	idx := int(handle.Index())
	if idx < 0 || idx >= len(w.lookup) || !w.lookup[idx].present {
		return lutEntry{}, &PhysicsError{Kind: HandleUnknown, Message: "handle not found in lookup table"}
	}
	entry := w.lookup[idx]
	if entry.objType != handle.Type() {
		return lutEntry{}, &PhysicsError{Kind: HandleInvalid, Message: "handle type tag does not match lookup entry"}
	}
	return entry, nil
}

// AddMaterial appends a material and returns its permanent handle.
func (w *World) AddMaterial(m Material) Handle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.materials.Add(m)
}

// AddStatic inserts a never-moving body and returns its handle.
func (w *World) AddStatic(spec StaticSpec) (Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if spec.Material.IsNull() {
		log.Fatal("static body added without a material")
	}

	idx := w.motion.AddStatic(HandleNull, spec.Transform)
	handle := w.allocSlot(TypeStatic, idx)
	w.motion.statics[idx].handle = handle
	w.bodyMaterial[handle] = spec.Material

	worldBox := spec.BroadPhaseLocal.Clone().ApplyMatrix4(&spec.Transform)
	w.contacts.AddItem(handle, TypeStatic, spec.BroadPhaseLocal, *worldBox, spec.Collider)

	return handle, nil
}

// AddKinematic inserts a kinematic or dynamic body and returns its handle.
func (w *World) AddKinematic(spec BodySpec) (Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if spec.Kind != TypeKinematic && spec.Kind != TypeDynamic {
		return HandleNull, &PhysicsError{Kind: HandleInvalid, Message: "BodySpec.Kind must be TypeKinematic or TypeDynamic"}
	}
	if spec.Material.IsNull() {
		log.Fatal("kinematic/dynamic body added without a material")
	}

	idx := w.motion.AddKinematic(HandleNull, spec.Position, spec.Orientation, spec.LinearVelocity, spec.AngularVelocity, spec.Drag, spec.InverseMass, spec.InverseInertia, spec.Scale)
	handle := w.allocSlot(spec.Kind, idx)
	w.motion.handles[idx] = handle
	w.bodyMaterial[handle] = spec.Material

	transform := w.motion.GetTransform(idx)
	worldBox := spec.BroadPhaseLocal.Clone().ApplyMatrix4(&transform)
	w.contacts.AddItem(handle, spec.Kind, spec.BroadPhaseLocal, *worldBox, spec.Collider)

	return handle, nil
}

// AddLight inserts a purely visual light source and returns its handle.
// Lights carry a transform but never participate in motion or contacts.
func (w *World) AddLight(transform math32.Matrix4) Handle {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := len(w.lights)
	w.lights = append(w.lights, transform)
	return w.allocSlot(TypeLight, idx)
}

// Destroy removes handle's object from every subsystem that knows about
// it and frees its lookup slot. Destroying an unknown handle is a no-op
// error, not a panic.
func (w *World) Destroy(handle Handle) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if handle.Type() == TypeMaterial {
		return &PhysicsError{Kind: HandleInvalid, Message: "materials cannot be destroyed"}
	}

	entry, err := w.resolve(handle)
	if err != nil {
		return err
	}

	switch entry.objType {
	case TypeStatic:
		w.contacts.RemoveItem(handle)
		w.motion.RemoveStatic(entry.index)
		w.shiftIndices(TypeStatic, entry.index)
	case TypeKinematic, TypeDynamic:
		w.contacts.RemoveItem(handle)
		w.motion.RemoveKinematic(entry.index)
		w.shiftIndices(entry.objType, entry.index)
	case TypeLight:
		w.lights = append(w.lights[:entry.index], w.lights[entry.index+1:]...)
		w.shiftIndices(TypeLight, entry.index)
	}

	delete(w.bodyMaterial, handle)
	slot := handle.Index()
	w.lookup[slot] = lutEntry{}
	w.freeSlots = append(w.freeSlots, slot)
	return nil
}

// shiftIndices decrements the stored index of every lookup entry of the
// same object type whose index was greater than removed, after a
// subsystem array compacts around a deletion at removed.
func (w *World) shiftIndices(objType ObjectType, removed int) {
	for i := range w.lookup {
		e := &w.lookup[i]
		if e.present && e.objType == objType && e.index > removed {
			e.index--
		}
	}
}

// SetGravity replaces the world's gravitational acceleration.
func (w *World) SetGravity(g math32.Vector3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.motion.SetGravity(g)
}

// SetSubsteps replaces the number of fixed sub-steps Update runs per call.
func (w *World) SetSubsteps(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n < 1 {
		n = 1
	}
	w.cfg.Substeps = n
}

// GetTransform returns handle's current world transform.
func (w *World) GetTransform(handle Handle) (math32.Matrix4, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unsafeGetTransform(handle)
}

// Update advances the simulation by dt, running cfg.Substeps fixed
// sub-steps of: refresh BVH entries that drifted, broad+narrow contact
// detection, gravity, drag, solve, sleep detection, integration.
func (w *World) Update(dt float32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	sub := dt / float32(w.cfg.Substeps)
	for s := 0; s < w.cfg.Substeps; s++ {
		w.substep(sub)
	}
}

func (w *World) substep(dt float32) {
	for _, idx := range w.motion.CheckDrift(w.cfg.KinematicExpansion / 2) {
		handle := w.motion.handles[idx]
		transform := w.motion.GetTransform(idx)
		localBox, ok := w.contacts.LocalBox(handle)
		if !ok {
			continue
		}
		worldBox := localBox.Clone().ApplyMatrix4(&transform)
		w.contacts.RefreshBox(handle, *worldBox)
	}

	stream := w.contacts.Check(w)
	for i := 0; i < stream.Len(); i++ {
		point := math32.Vector3{X: stream.Px[i], Y: stream.Py[i], Z: stream.Pz[i]}
		normal := math32.Vector3{X: stream.Nx[i], Y: stream.Ny[i], Z: stream.Nz[i]}
		w.debug.AddArrow(point, normal)
	}

	w.motion.ApplyGravity(dt)
	w.motion.ApplyDrag(dt)

	w.solver.Solve(stream, w, dt)

	w.motion.TrySleep(w.cfg.SleepEpsilon)
	w.motion.Integrate(dt)
}

// --- BodyQuery / SolverBodyQuery, mediating all cross-system reads ---

func (w *World) motionIndex(h Handle) (int, bool) {
	idx := int(h.Index())
	if idx < 0 || idx >= len(w.lookup) || !w.lookup[idx].present {
		return 0, false
	}
	entry := w.lookup[idx]
	if entry.objType != TypeKinematic && entry.objType != TypeDynamic {
		return 0, false
	}
	return entry.index, true
}

// Transform implements BodyQuery.
func (w *World) Transform(h Handle) math32.Matrix4 {
	if idx, ok := w.motionIndex(h); ok {
		return w.motion.GetTransform(idx)
	}
	if t, err := w.unsafeGetTransform(h); err == nil {
		return t
	}
	return *math32.NewMatrix4()
}

// Velocity implements BodyQuery. Static bodies report zero velocity.
func (w *World) Velocity(h Handle) (math32.Vector3, math32.Vector3) {
	idx, ok := w.motionIndex(h)
	if !ok {
		return math32.Vector3{}, math32.Vector3{}
	}
	return w.motion.GetVelocity(idx), w.motion.GetAngularVelocity(idx)
}

// IsSleeping implements BodyQuery. Static bodies are always "asleep" --
// they never initiate a broad-phase query.
func (w *World) IsSleeping(h Handle) bool {
	idx, ok := w.motionIndex(h)
	if !ok {
		return true
	}
	return w.motion.IsSleeping(idx)
}

// InverseMass implements SolverBodyQuery.
func (w *World) InverseMass(h Handle) float32 {
	idx, ok := w.motionIndex(h)
	if !ok {
		return 0
	}
	return w.motion.InverseMass(idx)
}

// InverseInertia implements SolverBodyQuery.
func (w *World) InverseInertia(h Handle) math32.Matrix3 {
	idx, ok := w.motionIndex(h)
	if !ok {
		return math32.Matrix3{}
	}
	return w.motion.InverseInertia(idx)
}

// MaterialOf implements SolverBodyQuery.
func (w *World) MaterialOf(h Handle) Material {
	matHandle, ok := w.bodyMaterial[h]
	if !ok {
		return Material{}
	}
	mat, err := w.materials.Get(matHandle)
	if err != nil {
		return Material{}
	}
	return mat
}

// ApplyImpulse implements SolverBodyQuery. Static bodies silently absorb
// the impulse -- they have zero inverse mass and inertia so the solver's
// own formula already contributes nothing from their side; this is just
// the write-back no-op for completeness.
func (w *World) ApplyImpulse(h Handle, linearDelta, angularDelta math32.Vector3) {
	idx, ok := w.motionIndex(h)
	if !ok {
		return
	}
	w.motion.addVelocity(idx, linearDelta)
	w.motion.addAngularVelocity(idx, angularDelta)
}
