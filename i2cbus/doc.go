// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2cbus bounds the transactions of an I²C bus with a TimeoutProfile
// and classifies their failures.
//
// A Bus wraps any periph.io i2c.Bus and is itself an i2c.Bus, so device
// drivers can be handed the bounded bus without knowing about it. Failures
// are returned as *Fault, whose Kind separates a missing acknowledge, which
// is expected while probing empty addresses, from real bus faults.
//
// Linux i2c-dev reports a missing acknowledge as ENXIO or EREMOTEIO depending
// on the adapter, a lost arbitration as EAGAIN and a stuck bus as ETIMEDOUT.
// Classify recognizes these errnos whether or not the platform driver wrapped
// them.
package i2cbus
