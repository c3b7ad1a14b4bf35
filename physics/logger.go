// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/ironforge-labs/physcore/util/logger"
)

// Package logger. Fatal-level messages flush all writers and panic --
// this is the only intentional panic path in the package, reserved for
// BVH exhaustion and bodies added without a material.
var log = logger.New("PHYSICS", logger.Default)
