// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import "github.com/ironforge-labs/physcore/math32"

// manifoldPoint is the result of a single narrow-phase kernel: an outward
// unit normal from the first shape to the second, a world-space contact
// point, and a positive penetration depth.
type manifoldPoint struct {
	normal math32.Vector3
	point  math32.Vector3
	depth  float32
}

// narrowKernel tests shape a (at transform ta) against shape b (at tb) and
// reports the contact, if any.
type narrowKernel func(a Shape, ta math32.Matrix4, b Shape, tb math32.Matrix4) (manifoldPoint, bool)

// kernelKey indexes the dispatch table by the ordered pair of shape kinds.
type kernelKey struct {
	a, b ShapeKind
}

var narrowKernels map[kernelKey]narrowKernel

func init() {
	narrowKernels = map[kernelKey]narrowKernel{
		{ShapeSphere, ShapeSphere}:    testSphereSphere,
		{ShapeNone, ShapeSphere}:      testAABBSphere,
		{ShapeOBB, ShapeSphere}:       testOBBSphere,
		{ShapeHeightMap, ShapeSphere}: testHeightmapSphere,
		{ShapeOBB, ShapeOBB}:          testOBBOBB,
	}
}

// worldSphere returns shape s placed at transform t, in world space.
func worldSphere(s Sphere, t math32.Matrix4) (math32.Vector3, float32) {
	c := s.Center
	c.ApplyMatrix4(&t)
	return c, s.Radius
}

func testSphereSphere(a Shape, ta math32.Matrix4, b Shape, tb math32.Matrix4) (manifoldPoint, bool) {
	c1, r1 := worldSphere(a.Sphere, ta)
	c2, r2 := worldSphere(b.Sphere, tb)

	delta := c2.Clone().Sub(&c1)
	dist := delta.Length()
	depth := r1 + r2 - dist
	if depth <= 0 {
		return manifoldPoint{}, false
	}

	normal := math32.Vector3{X: 0, Y: 1, Z: 0}
	if dist > 1e-6 {
		normal = *delta.Clone().DivideScalar(dist)
	}
	point := c1.Clone().Add(normal.Clone().MultiplyScalar(r1 - depth*0.5))
	return manifoldPoint{normal: normal, point: *point, depth: depth}, true
}

// testAABBSphere treats shape a's ShapeNone variant as the collider's own
// broad-phase box -- its local AABB transformed into world space by ta.
func testAABBSphere(a Shape, ta math32.Matrix4, b Shape, tb math32.Matrix4) (manifoldPoint, bool) {
	box := a.Box.Clone().ApplyMatrix4(&ta)
	c2, r2 := worldSphere(b.Sphere, tb)

	closest := box.ClampPoint(&c2, &math32.Vector3{})
	delta := c2.Clone().Sub(closest)
	dist := delta.Length()
	depth := r2 - dist
	if depth <= 0 {
		return manifoldPoint{}, false
	}

	normal := math32.Vector3{X: 0, Y: 1, Z: 0}
	if dist > 1e-6 {
		normal = *delta.Clone().DivideScalar(dist)
	}
	return manifoldPoint{normal: normal, point: *closest, depth: depth}, true
}

func testOBBSphere(a Shape, ta math32.Matrix4, b Shape, tb math32.Matrix4) (manifoldPoint, bool) {
	obb := a.OBB
	center := obb.Center
	center.ApplyMatrix4(&ta)
	axes := obb.axes()

	c2, r2 := worldSphere(b.Sphere, tb)
	rel := c2.Clone().Sub(&center)

	var local math32.Vector3
	local.X = clampf32(rel.Dot(&axes[0]), -obb.HalfExtents.X, obb.HalfExtents.X)
	local.Y = clampf32(rel.Dot(&axes[1]), -obb.HalfExtents.Y, obb.HalfExtents.Y)
	local.Z = clampf32(rel.Dot(&axes[2]), -obb.HalfExtents.Z, obb.HalfExtents.Z)

	closest := center
	closest.X += local.X*axes[0].X + local.Y*axes[1].X + local.Z*axes[2].X
	closest.Y += local.X*axes[0].Y + local.Y*axes[1].Y + local.Z*axes[2].Y
	closest.Z += local.X*axes[0].Z + local.Y*axes[1].Z + local.Z*axes[2].Z

	delta := c2.Clone().Sub(&closest)
	dist := delta.Length()
	depth := r2 - dist
	if depth <= 0 {
		return manifoldPoint{}, false
	}

	normal := math32.Vector3{X: 0, Y: 1, Z: 0}
	if dist > 1e-6 {
		normal = *delta.Clone().DivideScalar(dist)
	}
	return manifoldPoint{normal: normal, point: closest, depth: depth}, true
}

// testHeightmapSphere samples the heightmap at the sphere's XZ location.
// Collision occurs iff the sampled height is at or above the sphere's
// lowest point.
func testHeightmapSphere(a Shape, ta math32.Matrix4, b Shape, tb math32.Matrix4) (manifoldPoint, bool) {
	c2, r2 := worldSphere(b.Sphere, tb)

	height, normal, ok := a.Heightmap.TrySample(math32.Vector2{X: c2.X, Y: c2.Z})
	if !ok {
		return manifoldPoint{}, false
	}

	bottom := c2.Y - r2
	if height < bottom {
		return manifoldPoint{}, false
	}

	depth := height - bottom
	point := math32.Vector3{X: c2.X, Y: height, Z: c2.Z}
	return manifoldPoint{normal: normal, point: point, depth: depth}, true
}

// satAxes computes the 15 candidate separating axes for two OBBs: the 3+3
// face normals plus the 9 pairwise edge cross-products.
func satAxes(axesA, axesB [3]math32.Vector3) [15]math32.Vector3 {
	var axes [15]math32.Vector3
	copy(axes[0:3], axesA[:])
	copy(axes[3:6], axesB[:])

	k := 6
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cross := axesA[i].Clone().Cross(&axesB[j])
			if cross.LengthSq() < 1e-10 {
				cross = &math32.Vector3{}
			} else {
				cross.Normalize()
			}
			axes[k] = *cross
			k++
		}
	}
	return axes
}

// projectOBB returns the half-width of obb's projection onto a unit axis.
func projectOBB(axes [3]math32.Vector3, halfExtents math32.Vector3, axis math32.Vector3) float32 {
	return abs32(axes[0].Dot(&axis))*halfExtents.X +
		abs32(axes[1].Dot(&axis))*halfExtents.Y +
		abs32(axes[2].Dot(&axis))*halfExtents.Z
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// testOBBOBB runs the Separating Axis Theorem over all 15 candidate axes.
// If every axis shows overlap, the axis of minimum penetration becomes the
// contact normal; the contact point is approximated as the midpoint
// between the two box centers, which is adequate for
// the single-point manifold this kernel reports (a full ≤4-point polygon
// is only needed for box stacks resting flush against each other, handled
// by running the solver every sub-step rather than relying on one frame's
// manifold to be complete).
func testOBBOBB(a Shape, ta math32.Matrix4, b Shape, tb math32.Matrix4) (manifoldPoint, bool) {
	centerA := a.OBB.Center
	centerA.ApplyMatrix4(&ta)
	centerB := b.OBB.Center
	centerB.ApplyMatrix4(&tb)

	axesA := a.OBB.axes()
	axesB := b.OBB.axes()
	axes := satAxes(axesA, axesB)

	delta := centerB.Clone().Sub(&centerA)

	minDepth := float32(math32Inf)
	var minAxis math32.Vector3
	found := false

	for _, axis := range axes {
		if axis.LengthSq() < 1e-10 {
			continue
		}
		rA := projectOBB(axesA, a.OBB.HalfExtents, axis)
		rB := projectOBB(axesB, b.OBB.HalfExtents, axis)
		dist := abs32(delta.Dot(&axis))
		overlap := rA + rB - dist
		if overlap <= 0 {
			return manifoldPoint{}, false
		}
		if overlap < minDepth {
			minDepth = overlap
			minAxis = axis
			found = true
		}
	}
	if !found {
		return manifoldPoint{}, false
	}

	if delta.Dot(&minAxis) < 0 {
		minAxis = *minAxis.Clone().Negate()
	}

	point := centerA.Clone().Add(&centerB)
	point.MultiplyScalar(0.5)

	return manifoldPoint{normal: minAxis, point: *point, depth: minDepth}, true
}
