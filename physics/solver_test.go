package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironforge-labs/physcore/math32"
)

// fakeSolverBody is a single rigid body used to drive the solver in
// isolation, keyed by a single handle per test (the solver never needs to
// distinguish more than two bodies at a time).
type fakeSolverBody struct {
	transform  math32.Matrix4
	linVel     math32.Vector3
	angVel     math32.Vector3
	invMass    float32
	invInertia math32.Matrix3
	material   Material
}

type fakeSolverQuery struct {
	bodies map[Handle]*fakeSolverBody
}

func newFakeSolverQuery() *fakeSolverQuery {
	return &fakeSolverQuery{bodies: make(map[Handle]*fakeSolverBody)}
}

func (f *fakeSolverQuery) Transform(h Handle) math32.Matrix4 { return f.bodies[h].transform }
func (f *fakeSolverQuery) Velocity(h Handle) (math32.Vector3, math32.Vector3) {
	b := f.bodies[h]
	return b.linVel, b.angVel
}
func (f *fakeSolverQuery) IsSleeping(h Handle) bool          { return false }
func (f *fakeSolverQuery) InverseMass(h Handle) float32      { return f.bodies[h].invMass }
func (f *fakeSolverQuery) InverseInertia(h Handle) math32.Matrix3 {
	return f.bodies[h].invInertia
}
func (f *fakeSolverQuery) MaterialOf(h Handle) Material { return f.bodies[h].material }
func (f *fakeSolverQuery) ApplyImpulse(h Handle, linearDelta, angularDelta math32.Vector3) {
	b := f.bodies[h]
	b.linVel.Add(&linearDelta)
	b.angVel.Add(&angularDelta)
}

func oneContactStream(first, second Handle, point, normal math32.Vector3, depth float32) *ContactStream {
	s := &ContactStream{}
	s.append(first, second, manifoldPoint{point: point, normal: normal, depth: depth}, 1)
	return s
}

func TestSolver_HeadOnElasticCollisionConservesMomentum(t *testing.T) {
	solver := NewSolver(0.2)
	query := newFakeSolverQuery()

	a := NewHandle(TypeDynamic, 0)
	b := NewHandle(TypeDynamic, 1)

	query.bodies[a] = &fakeSolverBody{
		transform: *math32.NewMatrix4(),
		linVel:    math32.Vector3{X: 5},
		invMass:   1,
		material:  Material{Restitution: 1},
	}
	t2 := math32.NewMatrix4()
	t2.Compose(&math32.Vector3{X: 2}, &math32.Quaternion{W: 1}, &math32.Vector3{X: 1, Y: 1, Z: 1})
	query.bodies[b] = &fakeSolverBody{
		transform: *t2,
		linVel:    math32.Vector3{X: -5},
		invMass:   1,
		material:  Material{Restitution: 1},
	}

	momentumBefore := (1/query.bodies[a].invMass)*query.bodies[a].linVel.X +
		(1/query.bodies[b].invMass)*query.bodies[b].linVel.X

	stream := oneContactStream(a, b, math32.Vector3{X: 1}, math32.Vector3{X: 1}, 0.01)
	solver.Solve(stream, query, 1.0/60.0)

	momentumAfter := (1/query.bodies[a].invMass)*query.bodies[a].linVel.X +
		(1/query.bodies[b].invMass)*query.bodies[b].linVel.X

	assert.InDelta(t, momentumBefore, momentumAfter, 1e-3, "total momentum must be conserved by an equal-mass collision")
	assert.Less(t, query.bodies[a].linVel.X, float32(5), "body a must slow down after colliding head-on")
	assert.Greater(t, query.bodies[b].linVel.X, float32(-5), "body b must slow down after colliding head-on")
}

func TestSolver_RestingContactDoesNotAddEnergy(t *testing.T) {
	solver := NewSolver(0.0) // isolate the velocity solve from Baumgarte pushout
	query := newFakeSolverQuery()

	a := NewHandle(TypeDynamic, 0)
	b := NewHandle(TypeStatic, 0)

	query.bodies[a] = &fakeSolverBody{
		transform: *math32.NewMatrix4(),
		linVel:    math32.Vector3{Y: -0.001},
		invMass:   1,
		material:  Material{Restitution: 0},
	}
	query.bodies[b] = &fakeSolverBody{
		transform: *math32.NewMatrix4(),
		invMass:   0,
		material:  Material{Restitution: 0},
	}

	speedBefore := query.bodies[a].linVel.Length()

	stream := oneContactStream(b, a, math32.Vector3{}, math32.Vector3{Y: 1}, 0.001)
	solver.Solve(stream, query, 1.0/60.0)

	speedAfter := query.bodies[a].linVel.Length()
	assert.LessOrEqual(t, speedAfter, speedBefore+1e-4, "a resting contact with zero restitution must not inject energy")
}

func TestSolver_FrictionClampedToCoulombBound(t *testing.T) {
	solver := NewSolver(0.0)
	query := newFakeSolverQuery()

	a := NewHandle(TypeDynamic, 0)
	b := NewHandle(TypeStatic, 0)

	query.bodies[a] = &fakeSolverBody{
		transform: *math32.NewMatrix4(),
		linVel:    math32.Vector3{X: 100, Y: -1},
		invMass:   1,
		material:  Material{Restitution: 0, KineticFriction: 0.1},
	}
	query.bodies[b] = &fakeSolverBody{
		transform: *math32.NewMatrix4(),
		invMass:   0,
		material:  Material{Restitution: 0, KineticFriction: 0.1},
	}

	stream := oneContactStream(b, a, math32.Vector3{}, math32.Vector3{Y: 1}, 0.01)
	solver.Solve(stream, query, 1.0/60.0)

	// friction impulse magnitude must not exceed mu * normal impulse; a
	// sliding body at very high tangential speed should only be slowed,
	// never brought fully to rest or reversed, by a small mu.
	assert.Greater(t, query.bodies[a].linVel.X, float32(0))
	assert.Less(t, query.bodies[a].linVel.X, float32(100))
}
