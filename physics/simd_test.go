package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLane8f_Arithmetic(t *testing.T) {
	a := splat8f(2)
	b := splat8f(3)

	sum := a.add(b)
	diff := b.sub(a)
	prod := a.mul(b)
	scaled := a.scale(4)

	for i := 0; i < laneWidth; i++ {
		assert.Equal(t, float32(5), sum[i])
		assert.Equal(t, float32(1), diff[i])
		assert.Equal(t, float32(6), prod[i])
		assert.Equal(t, float32(8), scaled[i])
	}
}

func TestLane8f_SafeDivByZero(t *testing.T) {
	num := splat8f(1)
	zero := splat8f(0)
	out := num.safeDiv(zero)
	for i := 0; i < laneWidth; i++ {
		assert.Equal(t, float32(0), out[i])
	}
}

func TestLane8f_Sqr(t *testing.T) {
	a := splat8f(3)
	sq := a.sqr()
	for i := 0; i < laneWidth; i++ {
		assert.Equal(t, float32(9), sq[i])
	}
}

func TestSqrtf32(t *testing.T) {
	assert.Equal(t, float32(0), sqrtf32(-1))
	assert.Equal(t, float32(0), sqrtf32(0))
	assert.InDelta(t, 3.0, sqrtf32(9), 1e-6)
}

func TestClampf32(t *testing.T) {
	assert.Equal(t, float32(0), clampf32(-5, 0, 10))
	assert.Equal(t, float32(10), clampf32(15, 0, 10))
	assert.Equal(t, float32(5), clampf32(5, 0, 10))
}

func TestSafeDivf32(t *testing.T) {
	assert.Equal(t, float32(0), safeDivf32(1, 0))
	assert.Equal(t, float32(2), safeDivf32(4, 2))
}
