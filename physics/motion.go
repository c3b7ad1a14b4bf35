// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import "github.com/ironforge-labs/physcore/math32"

// awakeMask / asleepMask are the two values a motion lane's sleep word
// ever holds -- all-ones or all-zeros, matching the source engine's SIMD
// sleep mask exactly so a lane can be tested with a single comparison.
const (
	awakeMask  uint32 = 0xFFFFFFFF
	asleepMask uint32 = 0
)

// staticBody is a never-moving object: its world transform is computed
// once, at AddStatic, and never touched again.
type staticBody struct {
	handle    Handle
	transform math32.Matrix4
}

// MotionSystem owns every kinematic/dynamic body's position, orientation,
// and velocity state as a struct-of-arrays: each field lives in its own
// packed slice, indexed by the same slot, so ApplyGravity/ApplyDrag/
// Integrate can walk laneWidth bodies at a time through simd.go's lane8f
// instead of chasing pointers through an array of structs. The packed-slot
// index matches the low bits of the internal handle that the world
// coordinator hands out.
type MotionSystem struct {
	gravity math32.Vector3

	handles []Handle

	posX, posY, posZ []float32
	oriX, oriY, oriZ []float32
	oriW             []float32
	linX, linY, linZ []float32
	angX, angY, angZ []float32

	invMass    []float32
	invInertia []math32.Matrix3
	drag       []float32
	scaleX     []float32
	scaleY     []float32
	scaleZ     []float32

	sleep []uint32

	lastIdxX, lastIdxY, lastIdxZ []float32

	statics []staticBody
}

// NewMotionSystem creates an empty system with the given gravity vector.
func NewMotionSystem(gravity math32.Vector3) *MotionSystem {
	return &MotionSystem{gravity: gravity}
}

// SetGravity replaces the constant applied in ApplyGravity.
func (m *MotionSystem) SetGravity(g math32.Vector3) {
	m.gravity = g
}

// Gravity returns the current gravitational acceleration.
func (m *MotionSystem) Gravity() math32.Vector3 {
	return m.gravity
}

// AddKinematic appends a kinematic/dynamic body and returns its slot index.
func (m *MotionSystem) AddKinematic(handle Handle, position math32.Vector3, orientation math32.Quaternion, linVel, angVel math32.Vector3, drag, invMass float32, invInertia math32.Matrix3, scale math32.Vector3) int {
	idx := len(m.handles)

	m.handles = append(m.handles, handle)

	m.posX = append(m.posX, position.X)
	m.posY = append(m.posY, position.Y)
	m.posZ = append(m.posZ, position.Z)

	m.oriX = append(m.oriX, orientation.X)
	m.oriY = append(m.oriY, orientation.Y)
	m.oriZ = append(m.oriZ, orientation.Z)
	m.oriW = append(m.oriW, orientation.W)

	m.linX = append(m.linX, linVel.X)
	m.linY = append(m.linY, linVel.Y)
	m.linZ = append(m.linZ, linVel.Z)

	m.angX = append(m.angX, angVel.X)
	m.angY = append(m.angY, angVel.Y)
	m.angZ = append(m.angZ, angVel.Z)

	m.invMass = append(m.invMass, invMass)
	m.invInertia = append(m.invInertia, invInertia)
	m.drag = append(m.drag, drag)

	m.scaleX = append(m.scaleX, scale.X)
	m.scaleY = append(m.scaleY, scale.Y)
	m.scaleZ = append(m.scaleZ, scale.Z)

	m.sleep = append(m.sleep, awakeMask)

	m.lastIdxX = append(m.lastIdxX, position.X)
	m.lastIdxY = append(m.lastIdxY, position.Y)
	m.lastIdxZ = append(m.lastIdxZ, position.Z)

	return idx
}

// AddStatic appends a precomputed static transform and returns its slot index.
func (m *MotionSystem) AddStatic(handle Handle, transform math32.Matrix4) int {
	idx := len(m.statics)
	m.statics = append(m.statics, staticBody{handle: handle, transform: transform})
	return idx
}

// RemoveKinematic deletes the body at idx, shifting every later slot down
// by one across every packed array. Callers (the world coordinator) are
// responsible for decrementing every lookup-table entry whose internal
// index was greater than idx.
func (m *MotionSystem) RemoveKinematic(idx int) {
	m.handles = append(m.handles[:idx], m.handles[idx+1:]...)

	m.posX = append(m.posX[:idx], m.posX[idx+1:]...)
	m.posY = append(m.posY[:idx], m.posY[idx+1:]...)
	m.posZ = append(m.posZ[:idx], m.posZ[idx+1:]...)

	m.oriX = append(m.oriX[:idx], m.oriX[idx+1:]...)
	m.oriY = append(m.oriY[:idx], m.oriY[idx+1:]...)
	m.oriZ = append(m.oriZ[:idx], m.oriZ[idx+1:]...)
	m.oriW = append(m.oriW[:idx], m.oriW[idx+1:]...)

	m.linX = append(m.linX[:idx], m.linX[idx+1:]...)
	m.linY = append(m.linY[:idx], m.linY[idx+1:]...)
	m.linZ = append(m.linZ[:idx], m.linZ[idx+1:]...)

	m.angX = append(m.angX[:idx], m.angX[idx+1:]...)
	m.angY = append(m.angY[:idx], m.angY[idx+1:]...)
	m.angZ = append(m.angZ[:idx], m.angZ[idx+1:]...)

	m.invMass = append(m.invMass[:idx], m.invMass[idx+1:]...)
	m.invInertia = append(m.invInertia[:idx], m.invInertia[idx+1:]...)
	m.drag = append(m.drag[:idx], m.drag[idx+1:]...)

	m.scaleX = append(m.scaleX[:idx], m.scaleX[idx+1:]...)
	m.scaleY = append(m.scaleY[:idx], m.scaleY[idx+1:]...)
	m.scaleZ = append(m.scaleZ[:idx], m.scaleZ[idx+1:]...)

	m.sleep = append(m.sleep[:idx], m.sleep[idx+1:]...)

	m.lastIdxX = append(m.lastIdxX[:idx], m.lastIdxX[idx+1:]...)
	m.lastIdxY = append(m.lastIdxY[:idx], m.lastIdxY[idx+1:]...)
	m.lastIdxZ = append(m.lastIdxZ[:idx], m.lastIdxZ[idx+1:]...)
}

// RemoveStatic deletes the static body at idx, shifting later slots down.
func (m *MotionSystem) RemoveStatic(idx int) {
	m.statics = append(m.statics[:idx], m.statics[idx+1:]...)
}

// Len returns the number of kinematic/dynamic bodies.
func (m *MotionSystem) Len() int {
	return len(m.handles)
}

// IsSleeping reports whether the body at idx is asleep.
func (m *MotionSystem) IsSleeping(idx int) bool {
	return m.sleep[idx] == asleepMask
}

// Wake clears the sleep bit for the body at idx. The solver does not call
// it: its impulses go through addVelocity/addAngularVelocity, which clear
// the sleep bit themselves.
func (m *MotionSystem) Wake(idx int) {
	m.sleep[idx] = awakeMask
}

// ApplyGravity advances every awake body's linear velocity by g*dt,
// laneWidth bodies at a time. The sleep mask is folded into the lane
// arithmetic as a 0/1 multiplier rather than branching per body, so a
// mixed awake/asleep lane still issues one pass of lane8f adds.
func (m *MotionSystem) ApplyGravity(dt float32) {
	n := len(m.linX)
	gx := m.gravity.X * dt
	gy := m.gravity.Y * dt
	gz := m.gravity.Z * dt

	for base := 0; base < n; base += laneWidth {
		end := base + laneWidth
		if end > n {
			end = n
		}
		width := end - base

		var lx, ly, lz lane8f
		var sleepLane lane8i
		for i := 0; i < width; i++ {
			idx := base + i
			lx[i] = m.linX[idx]
			ly[i] = m.linY[idx]
			lz[i] = m.linZ[idx]
			sleepLane[i] = m.sleep[idx]
		}
		mask := sleepLane.asMask()

		dvx := splat8f(gx).mul(mask)
		dvy := splat8f(gy).mul(mask)
		dvz := splat8f(gz).mul(mask)

		lx = lx.add(dvx)
		ly = ly.add(dvy)
		lz = lz.add(dvz)

		for i := 0; i < width; i++ {
			idx := base + i
			m.linX[idx] = lx[i]
			m.linY[idx] = ly[i]
			m.linZ[idx] = lz[i]
		}
	}
}

// ApplyDrag applies quadratic aerodynamic drag to linear and angular
// velocity: f = v*|v|*Cd, then v -= f*invMass*dt. The fractional scale
// subtracted IS the |v| term (dragAccel/angDragAccel) -- it must not be
// re-divided by speed, which would cancel the |v| factor and collapse
// quadratic drag into plain exponential decay. Angular drag routes through
// the inverse inertia tensor exactly as linear drag routes through
// invMass, per the source engine's MovementSystem.
func (m *MotionSystem) ApplyDrag(dt float32) {
	n := len(m.linX)

	for base := 0; base < n; base += laneWidth {
		end := base + laneWidth
		if end > n {
			end = n
		}
		width := end - base

		var lx, ly, lz, linScale lane8f
		for i := 0; i < width; i++ {
			idx := base + i
			if m.sleep[idx] == asleepMask {
				continue
			}
			lx[i] = m.linX[idx]
			ly[i] = m.linY[idx]
			lz[i] = m.linZ[idx]

			speed := sqrtf32(lx[i]*lx[i] + ly[i]*ly[i] + lz[i]*lz[i])
			dragAccel := speed * m.drag[idx] * m.invMass[idx] * dt
			linScale[i] = clampf32(dragAccel, 0, 1)
		}

		damped := lx.mul(linScale)
		lx = lx.sub(damped)
		damped = ly.mul(linScale)
		ly = ly.sub(damped)
		damped = lz.mul(linScale)
		lz = lz.sub(damped)

		for i := 0; i < width; i++ {
			idx := base + i
			if m.sleep[idx] == asleepMask {
				continue
			}
			m.linX[idx] = lx[i]
			m.linY[idx] = ly[i]
			m.linZ[idx] = lz[i]
		}
	}

	for i := 0; i < n; i++ {
		if m.sleep[i] == asleepMask {
			continue
		}
		ax, ay, az := m.angX[i], m.angY[i], m.angZ[i]
		angSpeed := sqrtf32(ax*ax + ay*ay + az*az)
		angDragAccel := angSpeed * m.drag[i] * dt
		angScale := clampf32(angDragAccel, 0, 1)

		torque := math32.Vector3{X: -ax * angScale, Y: -ay * angScale, Z: -az * angScale}
		delta := m.invInertia[i].MultiplyVector3(&torque)

		m.angX[i] += delta.X
		m.angY[i] += delta.Y
		m.angZ[i] += delta.Z
	}
}

// TrySleep sets the sleep bit to asleep for every body whose linear speed
// squared falls at or below epsilon squared, and wakes every body above
// that threshold. Without this, resting bodies jitter under floating-point
// noise near zero velocity.
func (m *MotionSystem) TrySleep(epsilon float32) {
	e2 := epsilon * epsilon
	for i := range m.linX {
		speedSq := m.linX[i]*m.linX[i] + m.linY[i]*m.linY[i] + m.linZ[i]*m.linZ[i]
		if speedSq > e2 {
			m.sleep[i] = awakeMask
		} else {
			m.sleep[i] = asleepMask
		}
	}
}

// Integrate advances position by linVel*dt, laneWidth bodies at a time,
// and orientation by the quaternion-exponential approximation of
// angVel*dt for every awake body. The quaternion update has cross terms
// that don't reduce to per-lane arithmetic, so it stays a scalar loop.
func (m *MotionSystem) Integrate(dt float32) {
	n := len(m.posX)
	for base := 0; base < n; base += laneWidth {
		end := base + laneWidth
		if end > n {
			end = n
		}
		width := end - base

		var px, py, pz, lx, ly, lz lane8f
		var sleepLane lane8i
		for i := 0; i < width; i++ {
			idx := base + i
			px[i] = m.posX[idx]
			py[i] = m.posY[idx]
			pz[i] = m.posZ[idx]
			lx[i] = m.linX[idx]
			ly[i] = m.linY[idx]
			lz[i] = m.linZ[idx]
			sleepLane[i] = m.sleep[idx]
		}
		mask := sleepLane.asMask()

		dt8 := splat8f(dt).mul(mask)
		px = px.add(lx.mul(dt8))
		py = py.add(ly.mul(dt8))
		pz = pz.add(lz.mul(dt8))

		for i := 0; i < width; i++ {
			idx := base + i
			m.posX[idx] = px[i]
			m.posY[idx] = py[i]
			m.posZ[idx] = pz[i]
		}
	}

	half := dt * 0.5
	for i := 0; i < n; i++ {
		if m.sleep[i] == asleepMask {
			continue
		}
		orientation := math32.Quaternion{X: m.oriX[i], Y: m.oriY[i], Z: m.oriZ[i], W: m.oriW[i]}
		delta := math32.Quaternion{
			X: m.angX[i] * half,
			Y: m.angY[i] * half,
			Z: m.angZ[i] * half,
			W: 0,
		}
		var product math32.Quaternion
		product.MultiplyQuaternions(&delta, &orientation)
		orientation.X += product.X
		orientation.Y += product.Y
		orientation.Z += product.Z
		orientation.W += product.W
		orientation.Normalize()

		m.oriX[i] = orientation.X
		m.oriY[i] = orientation.Y
		m.oriZ[i] = orientation.Z
		m.oriW[i] = orientation.W
	}
}

// CheckDrift reports the slot index of every body whose position has
// moved further than threshold from its last-indexed BVH position, and
// refreshes that body's last-indexed position. threshold is typically
// kinematic_expansion/2.
func (m *MotionSystem) CheckDrift(threshold float32) []int {
	t2 := threshold * threshold
	var refresh []int
	for i := range m.posX {
		dx := m.posX[i] - m.lastIdxX[i]
		dy := m.posY[i] - m.lastIdxY[i]
		dz := m.posZ[i] - m.lastIdxZ[i]
		if dx*dx+dy*dy+dz*dz > t2 {
			refresh = append(refresh, i)
			m.lastIdxX[i] = m.posX[i]
			m.lastIdxY[i] = m.posY[i]
			m.lastIdxZ[i] = m.posZ[i]
		}
	}
	return refresh
}

// Position returns the current world position of the body at idx.
func (m *MotionSystem) Position(idx int) math32.Vector3 {
	return math32.Vector3{X: m.posX[idx], Y: m.posY[idx], Z: m.posZ[idx]}
}

// GetVelocity returns the linear velocity of the body at idx.
func (m *MotionSystem) GetVelocity(idx int) math32.Vector3 {
	return math32.Vector3{X: m.linX[idx], Y: m.linY[idx], Z: m.linZ[idx]}
}

// GetAngularVelocity returns the angular velocity of the body at idx.
func (m *MotionSystem) GetAngularVelocity(idx int) math32.Vector3 {
	return math32.Vector3{X: m.angX[idx], Y: m.angY[idx], Z: m.angZ[idx]}
}

// InverseMass returns the cached inverse mass of the body at idx.
func (m *MotionSystem) InverseMass(idx int) float32 {
	return m.invMass[idx]
}

// InverseInertia returns the cached inverse inertia tensor of the body at idx.
func (m *MotionSystem) InverseInertia(idx int) math32.Matrix3 {
	return m.invInertia[idx]
}

// addVelocity accumulates a linear impulse-response delta into body idx's
// velocity, waking it if the delta is nonzero. Called by the solver's
// apply phase.
func (m *MotionSystem) addVelocity(idx int, delta math32.Vector3) {
	m.linX[idx] += delta.X
	m.linY[idx] += delta.Y
	m.linZ[idx] += delta.Z
	if delta.X != 0 || delta.Y != 0 || delta.Z != 0 {
		m.sleep[idx] = awakeMask
	}
}

// addAngularVelocity accumulates an angular impulse-response delta into
// body idx's angular velocity.
func (m *MotionSystem) addAngularVelocity(idx int, delta math32.Vector3) {
	m.angX[idx] += delta.X
	m.angY[idx] += delta.Y
	m.angZ[idx] += delta.Z
	if delta.X != 0 || delta.Y != 0 || delta.Z != 0 {
		m.sleep[idx] = awakeMask
	}
}

// GetTransform composes the world transform of the body at idx from its
// position, orientation, and scale.
func (m *MotionSystem) GetTransform(idx int) math32.Matrix4 {
	position := math32.Vector3{X: m.posX[idx], Y: m.posY[idx], Z: m.posZ[idx]}
	orientation := math32.Quaternion{X: m.oriX[idx], Y: m.oriY[idx], Z: m.oriZ[idx], W: m.oriW[idx]}
	scale := math32.Vector3{X: m.scaleX[idx], Y: m.scaleY[idx], Z: m.scaleZ[idx]}
	out := math32.NewMatrix4()
	out.Compose(&position, &orientation, &scale)
	return *out
}

// GetStaticTransform returns the cached transform of the static body at idx.
func (m *MotionSystem) GetStaticTransform(idx int) math32.Matrix4 {
	return m.statics[idx].transform
}
