// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"io"

	"gopkg.in/yaml.v2"
)

// Config is the plain configuration value passed at core construction. It
// replaces the compile-time tuning constants of the source engine with
// explicit fields so a host application can tune them without a rebuild.
type Config struct {
	// Substeps is the number of fixed sub-steps run per call to
	// World.Update. Default 1.
	Substeps int `yaml:"substeps"`
	// KinematicExpansion is the world-unit inflation applied to a
	// non-static body's broad-phase AABB on every axis.
	KinematicExpansion float32 `yaml:"kinematic_expansion"`
	// SleepEpsilon is the linear-velocity magnitude below which a body
	// is eligible to be marked asleep.
	SleepEpsilon float32 `yaml:"sleep_epsilon"`
	// BaumgarteBeta is the positional-stabilization factor, typically
	// 0.1-0.3.
	BaumgarteBeta float32 `yaml:"baumgarte_beta"`
	// BVHCapacity is the maximum number of BVH nodes. Exceeding it is
	// fatal -- see ErrorKind and the BVH's capacity note.
	BVHCapacity uint16 `yaml:"bvh_capacity"`
}

// DefaultConfig returns the tuning values used throughout this package's
// tests and end-to-end scenarios.
func DefaultConfig() Config {
	return Config{
		Substeps:            1,
		KinematicExpansion:  0.2,
		SleepEpsilon:        0.08,
		BaumgarteBeta:       0.2,
		BVHCapacity:         65535,
	}
}

// LoadConfigYAML reads a Config from a YAML document. Fields not present
// in the document keep DefaultConfig's values.
func LoadConfigYAML(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() Config {
	if c.Substeps < 1 {
		c.Substeps = 1
	}
	if c.BVHCapacity == 0 || c.BVHCapacity > 65535 {
		c.BVHCapacity = 65535
	}
	return c
}
