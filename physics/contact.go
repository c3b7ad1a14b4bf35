// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import "github.com/ironforge-labs/physcore/math32"

// ContactStream is the struct-of-arrays output of one sub-step's contact
// detection pass, named after the source engine's SIMD field layout so the
// solver can read eight contacts per iteration without a gather step.
type ContactStream struct {
	First, Second []Handle
	Px, Py, Pz    []float32 // contact point
	Nx, Ny, Nz    []float32 // outward unit normal, first -> second
	Sd            []float32 // penetration depth (positive)
	Em            []float32 // effect multiplier
}

// Len returns the number of contacts currently in the stream.
func (s *ContactStream) Len() int {
	return len(s.First)
}

// reset clears the stream for a new sub-step without releasing the
// backing arrays.
func (s *ContactStream) reset() {
	s.First = s.First[:0]
	s.Second = s.Second[:0]
	s.Px, s.Py, s.Pz = s.Px[:0], s.Py[:0], s.Pz[:0]
	s.Nx, s.Ny, s.Nz = s.Nx[:0], s.Ny[:0], s.Nz[:0]
	s.Sd = s.Sd[:0]
	s.Em = s.Em[:0]
}

func (s *ContactStream) append(first, second Handle, m manifoldPoint, effectMultiplier float32) {
	s.First = append(s.First, first)
	s.Second = append(s.Second, second)
	s.Px, s.Py, s.Pz = append(s.Px, m.point.X), append(s.Py, m.point.Y), append(s.Pz, m.point.Z)
	s.Nx, s.Ny, s.Nz = append(s.Nx, m.normal.X), append(s.Ny, m.normal.Y), append(s.Nz, m.normal.Z)
	s.Sd = append(s.Sd, m.depth)
	s.Em = append(s.Em, effectMultiplier)
}

// colliderEntry is the contact system's per-body bookkeeping: its current
// narrow-phase shape, its object type, the local-frame broad-phase box
// supplied at AddItem (re-transformed on every drift refresh), the
// unexpanded world-space box last used, and that box's BVH node.
type colliderEntry struct {
	handle    Handle
	objType   ObjectType
	shape     Shape
	localAABB math32.Box3
	worldAABB math32.Box3
	bvhIndex  uint16
	inBVH     bool
}

// BodyQuery is the read-only view of body state the contact system needs
// from the motion system in order to place shapes in world space and
// filter separating contacts. The world coordinator is the only caller of
// Check and supplies an implementation backed by its own systems, keeping
// the contact system from reaching into motion's arrays directly.
type BodyQuery interface {
	Transform(h Handle) math32.Matrix4
	Velocity(h Handle) (linear, angular math32.Vector3)
	IsSleeping(h Handle) bool
}

// ContactSystem tracks every body's broad-phase box in a BVH and, on
// Check, runs the narrow-phase dispatch table over every overlapping pair
// driven by a non-sleeping kinematic/dynamic body.
type ContactSystem struct {
	tree               *BVH
	entries            map[Handle]*colliderEntry
	kinematicExpansion float32
	stream             ContactStream
}

// NewContactSystem creates an empty system backed by a BVH of the given
// node capacity.
func NewContactSystem(bvhCapacity uint16, kinematicExpansion float32) *ContactSystem {
	return &ContactSystem{
		tree:               NewBVH(bvhCapacity),
		entries:            make(map[Handle]*colliderEntry),
		kinematicExpansion: kinematicExpansion,
	}
}

// expandedBox inflates a world-space box by the kinematic expansion on
// every axis. Static bodies are never inflated -- they never move, so
// there's nothing to amortize.
func (c *ContactSystem) expandedBox(box math32.Box3, objType ObjectType) math32.Box3 {
	if objType == TypeStatic {
		return box
	}
	out := box
	out.ExpandByScalar(c.kinematicExpansion)
	return out
}

// AddItem registers handle's collider. localAABB is the body's
// broad-phase box in local space; worldAABB is that box already
// transformed to world space by the body's current transform.
func (c *ContactSystem) AddItem(handle Handle, objType ObjectType, localAABB, worldAABB math32.Box3, shape Shape) {
	entry := &colliderEntry{handle: handle, objType: objType, shape: shape, localAABB: localAABB, worldAABB: worldAABB}
	box := c.expandedBox(worldAABB, objType)
	entry.bvhIndex = c.tree.Insert(handle, box)
	entry.inBVH = true
	c.entries[handle] = entry
}

// LocalBox returns handle's broad-phase box in local space, used by the
// world coordinator to recompute a fresh world-space box after drift.
func (c *ContactSystem) LocalBox(handle Handle) (math32.Box3, bool) {
	entry, ok := c.entries[handle]
	if !ok {
		return math32.Box3{}, false
	}
	return entry.localAABB, true
}

// RemoveItem deletes handle's collider and its BVH entry.
func (c *ContactSystem) RemoveItem(handle Handle) {
	entry, ok := c.entries[handle]
	if !ok {
		return
	}
	if entry.inBVH {
		c.tree.Remove(handle)
	}
	delete(c.entries, handle)
}

// RefreshBox re-inserts handle's collider with a freshly expanded box
// around worldBox, called when the motion system reports the body has
// drifted past half the kinematic expansion from where it was last
// indexed.
func (c *ContactSystem) RefreshBox(handle Handle, worldBox math32.Box3) {
	entry, ok := c.entries[handle]
	if !ok {
		return
	}
	c.tree.Remove(handle)
	entry.worldAABB = worldBox
	box := c.expandedBox(worldBox, entry.objType)
	entry.bvhIndex = c.tree.Insert(handle, box)
}

func pairKey(a, b Handle) (Handle, Handle) {
	if a <= b {
		return a, b
	}
	return b, a
}

// Check runs broad+narrow phase for every non-sleeping kinematic/dynamic
// body and appends every surviving contact to the stream, then returns it.
// Duplicate pairs (in either order) and separating pairs (non-negative
// relative velocity along the normal) are suppressed.
func (c *ContactSystem) Check(query BodyQuery) *ContactStream {
	c.stream.reset()
	seen := make(map[[2]Handle]bool)

	var candidates []Handle
	for handle, entry := range c.entries {
		if entry.objType == TypeStatic || query.IsSleeping(handle) {
			continue
		}

		candidates = candidates[:0]
		candidates = c.tree.Boxcast(c.expandedBox(entry.worldAABB, entry.objType), candidates)

		for _, other := range candidates {
			if other == handle {
				continue
			}
			lo, hi := pairKey(handle, other)
			key := [2]Handle{lo, hi}
			if seen[key] {
				continue
			}

			otherEntry, ok := c.entries[other]
			if !ok {
				continue
			}

			first, second := handle, other
			firstEntry, secondEntry := entry, otherEntry
			if objectWeight(otherEntry.objType) > objectWeight(entry.objType) {
				first, second = other, handle
				firstEntry, secondEntry = otherEntry, entry
			}

			kernel, ok := narrowKernels[kernelKey{firstEntry.shape.Kind, secondEntry.shape.Kind}]
			if !ok {
				log.Warn("no narrow-phase kernel for shape pair (%s, %s)", firstEntry.shape.Kind, secondEntry.shape.Kind)
				seen[key] = true
				continue
			}

			m, hit := kernel(firstEntry.shape, query.Transform(first), secondEntry.shape, query.Transform(second))
			seen[key] = true
			if !hit {
				continue
			}

			if c.isSeparating(query, first, second, m) {
				continue
			}

			c.stream.append(first, second, m, 1.0)
		}
	}

	return &c.stream
}

// objectWeight orders the "first" handle of a contact: the heavier/static
// one when types differ, per the contact-ordering requirement.
func objectWeight(t ObjectType) int {
	switch t {
	case TypeStatic:
		return 3
	case TypeKinematic:
		return 2
	case TypeDynamic:
		return 1
	default:
		return 0
	}
}

// isSeparating reports whether the two bodies' relative velocity along
// the contact normal is non-negative -- i.e. they are moving apart or
// staying put, not approaching.
func (c *ContactSystem) isSeparating(query BodyQuery, first, second Handle, m manifoldPoint) bool {
	v1, w1 := query.Velocity(first)
	v2, w2 := query.Velocity(second)

	t1 := query.Transform(first)
	t2 := query.Transform(second)
	p1 := math32.Vector3{X: t1[12], Y: t1[13], Z: t1[14]}
	p2 := math32.Vector3{X: t2[12], Y: t2[13], Z: t2[14]}

	r1 := m.point.Clone().Sub(&p1)
	r2 := m.point.Clone().Sub(&p2)

	vp1 := v1.Clone().Add(w1.Clone().Cross(r1))
	vp2 := v2.Clone().Add(w2.Clone().Cross(r2))

	vrel := vp2.Clone().Sub(vp1)
	return vrel.Dot(&m.normal) >= 0
}
