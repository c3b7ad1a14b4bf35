// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import "github.com/ironforge-labs/physcore/math32"

// SolverBodyQuery is the view of body state the contact solver needs to
// resolve one contact: mass/inertia and material for the impulse
// formula, plus a way to write the result back. The world coordinator is
// the only implementation -- it mediates every read and write so the
// solver never touches the motion system's arrays directly.
type SolverBodyQuery interface {
	BodyQuery
	InverseMass(h Handle) float32
	InverseInertia(h Handle) math32.Matrix3
	MaterialOf(h Handle) Material
	ApplyImpulse(h Handle, linearDelta, angularDelta math32.Vector3)
}

// Solver resolves a contact stream into velocity changes using a single
// Gauss-Seidel pass: normal impulses with Baumgarte positional
// stabilization, clamped Coulomb friction, applied in emission order. No
// contact is visited twice within one call to Solve.
type Solver struct {
	beta float32
}

// NewSolver creates a solver with the given Baumgarte stabilization factor.
func NewSolver(beta float32) *Solver {
	return &Solver{beta: beta}
}

// Solve resolves every contact in stream against dt, in chunks of
// laneWidth contacts at a time. The chunking has no effect on the result
// -- solveContact is the single source of truth for the impulse formula,
// called once per contact regardless of where in a chunk it falls. This
// is what the SIMD design note calls "bit-identical" between the batched
// and scalar paths: there is only one path.
func (s *Solver) Solve(stream *ContactStream, bodies SolverBodyQuery, dt float32) {
	n := stream.Len()
	for base := 0; base < n; base += laneWidth {
		end := base + laneWidth
		if end > n {
			end = n
		}
		for i := base; i < end; i++ {
			s.solveContact(stream, i, bodies, dt)
		}
	}
}

func (s *Solver) solveContact(stream *ContactStream, i int, bodies SolverBodyQuery, dt float32) {
	first, second := stream.First[i], stream.Second[i]
	point := math32.Vector3{X: stream.Px[i], Y: stream.Py[i], Z: stream.Pz[i]}
	normal := math32.Vector3{X: stream.Nx[i], Y: stream.Ny[i], Z: stream.Nz[i]}
	depth := stream.Sd[i]
	effect := stream.Em[i]

	t1 := bodies.Transform(first)
	t2 := bodies.Transform(second)
	p1 := math32.Vector3{X: t1[12], Y: t1[13], Z: t1[14]}
	p2 := math32.Vector3{X: t2[12], Y: t2[13], Z: t2[14]}

	r1 := point.Clone().Sub(&p1)
	r2 := point.Clone().Sub(&p2)

	v1, w1 := bodies.Velocity(first)
	v2, w2 := bodies.Velocity(second)

	invMass1, invMass2 := bodies.InverseMass(first), bodies.InverseMass(second)
	invInertia1, invInertia2 := bodies.InverseInertia(first), bodies.InverseInertia(second)
	mat1, mat2 := bodies.MaterialOf(first), bodies.MaterialOf(second)

	relVelAt := func(r1, r2 *math32.Vector3) math32.Vector3 {
		vp1 := v1.Clone().Add(w1.Clone().Cross(r1))
		vp2 := v2.Clone().Add(w2.Clone().Cross(r2))
		return *vp2.Clone().Sub(vp1)
	}

	angularTerm := func(invInertia math32.Matrix3, r, axis *math32.Vector3) math32.Vector3 {
		cross := r.Clone().Cross(axis)
		return *invInertia.MultiplyVector3(cross).Clone().Cross(r)
	}

	denomAlong := func(axis *math32.Vector3) float32 {
		term1 := angularTerm(invInertia1, r1, axis)
		term2 := angularTerm(invInertia2, r2, axis)
		sum := term1.Clone().Add(&term2)
		return invMass1 + invMass2 + sum.Dot(axis)
	}

	vrel := relVelAt(r1, r2)
	vn := vrel.Dot(&normal)

	e := combinedRestitution(mat1, mat2)
	num := -(1 + e) * vn
	den := denomAlong(&normal)

	j := safeDivf32(num, den) * effect
	jn := j + (s.beta/effect)*(depth/dt)

	impulse := *normal.Clone().MultiplyScalar(jn)

	tangent := vrel.Clone().Sub(normal.Clone().MultiplyScalar(vn))
	tangent.Normalize()
	mu := combinedFriction(mat1, mat2)

	if tangent.LengthSq() > 1e-10 {
		numT := -vrel.Dot(tangent)
		denT := denomAlong(tangent)
		jt := clampf32(safeDivf32(numT, denT), -mu*j, mu*j)
		impulse.Add(tangent.Clone().MultiplyScalar(jt))
	}

	angImpulse1 := r1.Clone().Cross(&impulse)
	angImpulse1.Negate()
	angImpulse2 := r2.Clone().Cross(&impulse)

	bodies.ApplyImpulse(first, *impulse.Clone().Negate(), *invInertia1.MultiplyVector3(angImpulse1))
	bodies.ApplyImpulse(second, impulse, *invInertia2.MultiplyVector3(angImpulse2))
}
