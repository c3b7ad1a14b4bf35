package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironforge-labs/physcore/math32"
)

type recordingDebugRenderer struct {
	arrows int
}

func (r *recordingDebugRenderer) AddLine(from, to math32.Vector3)                  {}
func (r *recordingDebugRenderer) AddBox(box math32.Box3)                          {}
func (r *recordingDebugRenderer) AddSphere(center math32.Vector3, radius float32) {}
func (r *recordingDebugRenderer) AddArrow(from, direction math32.Vector3)         { r.arrows++ }

func TestNopDebugRenderer_DoesNothing(t *testing.T) {
	var r DebugRenderer = NopDebugRenderer{}
	assert.NotPanics(t, func() {
		r.AddLine(math32.Vector3{}, math32.Vector3{})
		r.AddBox(box(0, 0, 0, 1, 1, 1))
		r.AddSphere(math32.Vector3{}, 1)
		r.AddArrow(math32.Vector3{}, math32.Vector3{})
	})
}

func TestWorld_DebugRendererSeesEveryContact(t *testing.T) {
	w := newTestWorld(math32.Vector3{})
	rec := &recordingDebugRenderer{}
	w.SetDebugRenderer(rec)

	mat := w.AddMaterial(Material{})
	// the two overlapping spheres move toward each other; contacts whose
	// relative normal velocity is non-negative are dropped before the solver.
	for _, body := range []struct{ x, vx float32 }{{0, 1}, {0.2, -1}} {
		_, err := w.AddKinematic(BodySpec{
			Kind:            TypeDynamic,
			Position:        math32.Vector3{X: body.x},
			Orientation:     math32.Quaternion{W: 1},
			LinearVelocity:  math32.Vector3{X: body.vx},
			InverseMass:     1,
			Scale:           math32.Vector3{X: 1, Y: 1, Z: 1},
			Material:        mat,
			Collider:        NewSphereShape(Sphere{Radius: 0.5}),
			BroadPhaseLocal: box(-0.5, -0.5, -0.5, 0.5, 0.5, 0.5),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	w.Update(1.0 / 60.0)
	assert.Greater(t, rec.arrows, 0, "overlapping bodies must produce at least one contact the debug renderer sees")
}

func TestWorld_FrustumcastInvokesCallback(t *testing.T) {
	w := newTestWorld(math32.Vector3{})
	mat := w.AddMaterial(Material{})
	h := sphereBody(w, mat, math32.Vector3{}, 1)

	view := math32.NewMatrix4()
	frustum := math32.NewFrustumFromMatrix(view)

	seen := map[Handle]bool{}
	w.Frustumcast(frustum, func(got Handle, transform math32.Matrix4) {
		seen[got] = true
	})
	assert.True(t, seen[h])
}
