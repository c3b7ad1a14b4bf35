// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import "fmt"

// Handle is the public addressing scheme for every object a caller can
// manipulate. It is a 32-bit opaque value:
//
//	bits 28-31   object type tag
//	bits 16-25   implementation-private (subsystem may reuse)
//	bits  0-15   index into the world's public -> internal lookup table
//
// Implementation-private bits must be zero on any Handle crossing the
// public boundary (i.e. returned from or accepted by World methods).
// HandleNull is the reserved all-zero value and is never a valid object.
type Handle uint32

// HandleNull is the reserved, always-invalid handle.
const HandleNull Handle = 0

const (
	handleTypeShift = 28
	handleTypeMask  = 0xF
	handleIndexMask = 0xFFFF
	handleImplMask  = 0x3FF0000
)

// ObjectType is the type tag carried in a Handle's top 4 bits.
type ObjectType uint8

const (
	// TypeMaterial identifies a material database entry.
	TypeMaterial ObjectType = iota
	// TypeStatic identifies an immovable body.
	TypeStatic
	// TypeKinematic identifies a fully simulated body.
	TypeKinematic
	// TypeDynamic identifies a partially simulated body.
	TypeDynamic
	// TypeLight identifies a purely visual light source.
	TypeLight
)

// String returns a human-readable name for the object type, used in log
// messages and error text.
func (t ObjectType) String() string {
	switch t {
	case TypeMaterial:
		return "Material"
	case TypeStatic:
		return "Static"
	case TypeKinematic:
		return "Kinematic"
	case TypeDynamic:
		return "Dynamic"
	case TypeLight:
		return "LightSource"
	default:
		return "Unknown"
	}
}

// NewHandle packs a type tag and a lookup index into a public Handle.
// The index is truncated to 16 bits.
func NewHandle(t ObjectType, index uint16) Handle {
	return Handle(uint32(t)<<handleTypeShift | uint32(index))
}

// Type returns the object type tag carried by the handle.
func (h Handle) Type() ObjectType {
	return ObjectType((uint32(h) >> handleTypeShift) & handleTypeMask)
}

// Index returns the lookup-table index carried by the handle.
func (h Handle) Index() uint16 {
	return uint16(uint32(h) & handleIndexMask)
}

// IsNull reports whether h is the reserved null handle.
func (h Handle) IsNull() bool {
	return h == HandleNull
}

// Validate checks that h has zero implementation-private bits, as required
// of every Handle crossing the public boundary. It does not check that h
// refers to a live object — that is the lookup table's job.
func (h Handle) Validate() error {
	if uint32(h)&handleImplMask != 0 {
		return &PhysicsError{Kind: HandleInvalid, Message: fmt.Sprintf("handle %#x carries non-zero implementation bits", uint32(h))}
	}
	return nil
}

// withIndex returns a copy of h with its lookup index replaced. Used
// internally by the lookup table when sibling indices shift after a
// removal; the type tag and any implementation-private bits are preserved.
func (h Handle) withIndex(index uint16) Handle {
	return Handle(uint32(h)&^handleIndexMask | uint32(index))
}

// internalHandle packs a type tag and a direct subsystem array index. It
// shares Handle's bit layout but the low 16 bits are never looked up again
// through the world's table -- they are the real storage slot.
type internalHandle = Handle

func newInternalHandle(t ObjectType, index int) internalHandle {
	return NewHandle(t, uint16(index))
}
