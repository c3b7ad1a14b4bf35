package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaterialDB_AddGet(t *testing.T) {
	var db MaterialDB
	h1 := db.Add(Material{Density: 1, Restitution: 0.5, KineticFriction: 0.3})
	h2 := db.Add(Material{Density: 2, Restitution: 0.1, KineticFriction: 0.8})

	m1, err := db.Get(h1)
	assert.NoError(t, err)
	assert.Equal(t, float32(0.5), m1.Restitution)

	m2, err := db.Get(h2)
	assert.NoError(t, err)
	assert.Equal(t, float32(0.8), m2.KineticFriction)
}

func TestMaterialDB_GetRejectsWrongType(t *testing.T) {
	var db MaterialDB
	db.Add(Material{})
	_, err := db.Get(NewHandle(TypeDynamic, 0))
	assert.Error(t, err)
	assert.True(t, IsKind(err, HandleInvalid))
}

func TestMaterialDB_GetRejectsOutOfRange(t *testing.T) {
	var db MaterialDB
	_, err := db.Get(NewHandle(TypeMaterial, 0))
	assert.Error(t, err)
	assert.True(t, IsKind(err, HandleUnknown))
}

func TestCombinedRestitution_IsMinimum(t *testing.T) {
	a := Material{Restitution: 0.8}
	b := Material{Restitution: 0.2}
	assert.Equal(t, float32(0.2), combinedRestitution(a, b))
	assert.Equal(t, float32(0.2), combinedRestitution(b, a))
}

func TestCombinedFriction_IsGeometricMean(t *testing.T) {
	a := Material{KineticFriction: 0.4}
	b := Material{KineticFriction: 0.9}
	got := combinedFriction(a, b)
	assert.InDelta(t, 0.6, got, 0.01)
}

func TestCombinedFriction_ZeroStaysZero(t *testing.T) {
	a := Material{KineticFriction: 0}
	b := Material{KineticFriction: 0.9}
	assert.Equal(t, float32(0), combinedFriction(a, b))
}
