// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import "github.com/ironforge-labs/physcore/math32"

// ShapeKind tags which variant a Shape value holds. None means the
// broad-phase AABB is itself the collider -- that variant is disallowed
// for kinematic and dynamic bodies, which always need a narrow-phase
// shape to generate contact normals from.
type ShapeKind uint8

const (
	ShapeNone ShapeKind = iota
	ShapeSphere
	ShapeOBB
	ShapeHeightMap
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeNone:
		return "None"
	case ShapeSphere:
		return "Sphere"
	case ShapeOBB:
		return "OBB"
	case ShapeHeightMap:
		return "HeightMap"
	default:
		return "Unknown"
	}
}

// Sphere is a narrow-phase sphere collider, in the body's local space.
type Sphere struct {
	Center math32.Vector3
	Radius float32
}

// OBB is an oriented bounding box narrow-phase collider: a center, the
// half-extents along each local axis, and an orientation.
type OBB struct {
	Center      math32.Vector3
	HalfExtents math32.Vector3
	Orientation math32.Quaternion
}

// axes returns the box's three local unit axes (columns of its rotation
// matrix) in world space, used by both the SAT kernel and point tests.
func (b *OBB) axes() [3]math32.Vector3 {
	m := math32.NewMatrix4().MakeRotationFromQuaternion(&b.Orientation)
	return [3]math32.Vector3{
		{X: m[0], Y: m[1], Z: m[2]},
		{X: m[4], Y: m[5], Z: m[6]},
		{X: m[8], Y: m[9], Z: m[10]},
	}
}

// HeightmapSampler is the interface the host implements to expose terrain
// height and normal data to the heightmap-vs-sphere narrow-phase kernel.
// NewHeightmapShape stores a copy obtained via Clone, so a Shape handed to
// the contact system's AddItem never holds a reference to caller-owned data.
type HeightmapSampler interface {
	// TrySample returns the terrain height and surface normal at the
	// given XZ world position. ok is false outside the sampler's bounds.
	TrySample(xz math32.Vector2) (height float32, normal math32.Vector3, ok bool)
	// Clone returns an independent copy safe for the contact system to
	// retain past the call to AddItem.
	Clone() HeightmapSampler
}

// Shape is a tagged union over the narrow-phase collider variants. Only
// one of Sphere, OBB, Heightmap, or Box (ShapeNone's local AABB) is
// meaningful, selected by Kind.
type Shape struct {
	Kind      ShapeKind
	Sphere    Sphere
	OBB       OBB
	Heightmap HeightmapSampler
	// Box is the local-space broad-phase AABB, used only when Kind is
	// ShapeNone -- the broad-phase box doubles as the narrow-phase
	// collider for bodies that don't need an exact shape.
	Box math32.Box3
}

// NewAABBShape builds a Shape whose broad-phase box is itself the
// narrow-phase collider.
func NewAABBShape(box math32.Box3) Shape {
	return Shape{Kind: ShapeNone, Box: box}
}

// NewSphereShape builds a Shape wrapping a sphere collider.
func NewSphereShape(s Sphere) Shape {
	return Shape{Kind: ShapeSphere, Sphere: s}
}

// NewOBBShape builds a Shape wrapping an oriented-box collider.
func NewOBBShape(o OBB) Shape {
	return Shape{Kind: ShapeOBB, OBB: o}
}

// NewHeightmapShape builds a Shape wrapping a heightmap collider, owning
// a clone of sampler so the caller may discard their copy afterward.
func NewHeightmapShape(sampler HeightmapSampler) Shape {
	return Shape{Kind: ShapeHeightMap, Heightmap: sampler.Clone()}
}
