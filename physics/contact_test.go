package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironforge-labs/physcore/math32"
)

// fakeBodyQuery is a minimal BodyQuery backed by plain maps, used to drive
// ContactSystem.Check without a full World.
type fakeBodyQuery struct {
	transforms map[Handle]math32.Matrix4
	velocities map[Handle]math32.Vector3
	sleeping   map[Handle]bool
}

func newFakeBodyQuery() *fakeBodyQuery {
	return &fakeBodyQuery{
		transforms: make(map[Handle]math32.Matrix4),
		velocities: make(map[Handle]math32.Vector3),
		sleeping:   make(map[Handle]bool),
	}
}

func (f *fakeBodyQuery) Transform(h Handle) math32.Matrix4 {
	if t, ok := f.transforms[h]; ok {
		return t
	}
	return *math32.NewMatrix4()
}

func (f *fakeBodyQuery) Velocity(h Handle) (math32.Vector3, math32.Vector3) {
	return f.velocities[h], math32.Vector3{}
}

func (f *fakeBodyQuery) IsSleeping(h Handle) bool {
	return f.sleeping[h]
}

func translation(x, y, z float32) math32.Matrix4 {
	m := math32.NewMatrix4()
	m.Compose(&math32.Vector3{X: x, Y: y, Z: z}, &math32.Quaternion{W: 1}, &math32.Vector3{X: 1, Y: 1, Z: 1})
	return *m
}

func TestContactSystem_OverlappingSpheresProduceContact(t *testing.T) {
	c := NewContactSystem(64, 0.1)
	query := newFakeBodyQuery()

	a := NewHandle(TypeDynamic, 0)
	b := NewHandle(TypeDynamic, 1)

	sphereShape := NewSphereShape(Sphere{Radius: 1})
	localBox := box(-1, -1, -1, 1, 1, 1)

	query.transforms[a] = translation(0, 0, 0)
	query.transforms[b] = translation(1.5, 0, 0)
	// the spheres approach each other; Check drops pairs whose relative
	// normal velocity is non-negative.
	query.velocities[a] = math32.Vector3{X: 1}
	query.velocities[b] = math32.Vector3{X: -1}

	c.AddItem(a, TypeDynamic, localBox, *localBox.Clone().ApplyMatrix4(ptr(query.transforms[a])), sphereShape)
	c.AddItem(b, TypeDynamic, localBox, *localBox.Clone().ApplyMatrix4(ptr(query.transforms[b])), sphereShape)

	stream := c.Check(query)
	assert.Equal(t, 1, stream.Len())
	assert.Greater(t, stream.Sd[0], float32(0))
}

func TestContactSystem_SeparatedSpheresProduceNoContact(t *testing.T) {
	c := NewContactSystem(64, 0.1)
	query := newFakeBodyQuery()

	a := NewHandle(TypeDynamic, 0)
	b := NewHandle(TypeDynamic, 1)

	sphereShape := NewSphereShape(Sphere{Radius: 1})
	localBox := box(-1, -1, -1, 1, 1, 1)

	query.transforms[a] = translation(0, 0, 0)
	query.transforms[b] = translation(100, 0, 0)

	c.AddItem(a, TypeDynamic, localBox, *localBox.Clone().ApplyMatrix4(ptr(query.transforms[a])), sphereShape)
	c.AddItem(b, TypeDynamic, localBox, *localBox.Clone().ApplyMatrix4(ptr(query.transforms[b])), sphereShape)

	stream := c.Check(query)
	assert.Equal(t, 0, stream.Len())
}

func TestContactSystem_SleepingBodyNeverInitiatesAQuery(t *testing.T) {
	c := NewContactSystem(64, 0.1)
	query := newFakeBodyQuery()

	a := NewHandle(TypeDynamic, 0)
	b := NewHandle(TypeDynamic, 1)
	sphereShape := NewSphereShape(Sphere{Radius: 1})
	localBox := box(-1, -1, -1, 1, 1, 1)

	query.transforms[a] = translation(0, 0, 0)
	query.transforms[b] = translation(1.5, 0, 0)
	query.sleeping[a] = true
	query.sleeping[b] = true

	c.AddItem(a, TypeDynamic, localBox, *localBox.Clone().ApplyMatrix4(ptr(query.transforms[a])), sphereShape)
	c.AddItem(b, TypeDynamic, localBox, *localBox.Clone().ApplyMatrix4(ptr(query.transforms[b])), sphereShape)

	stream := c.Check(query)
	assert.Equal(t, 0, stream.Len())
}

func TestContactSystem_RemoveItemDropsFutureContacts(t *testing.T) {
	c := NewContactSystem(64, 0.1)
	query := newFakeBodyQuery()

	a := NewHandle(TypeDynamic, 0)
	b := NewHandle(TypeDynamic, 1)
	sphereShape := NewSphereShape(Sphere{Radius: 1})
	localBox := box(-1, -1, -1, 1, 1, 1)

	query.transforms[a] = translation(0, 0, 0)
	query.transforms[b] = translation(1.5, 0, 0)

	c.AddItem(a, TypeDynamic, localBox, *localBox.Clone().ApplyMatrix4(ptr(query.transforms[a])), sphereShape)
	c.AddItem(b, TypeDynamic, localBox, *localBox.Clone().ApplyMatrix4(ptr(query.transforms[b])), sphereShape)
	c.RemoveItem(b)

	stream := c.Check(query)
	assert.Equal(t, 0, stream.Len())
}

func ptr(m math32.Matrix4) *math32.Matrix4 {
	return &m
}
