// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2cscan finds the devices attached to an I²C bus.
//
// Every address of the 7-bit range not reserved by the I²C specification,
// 0x08 to 0x76, is probed with a one byte read. A device that acknowledges
// its address is reported as Found, an address nothing answers as NoAck and
// any other failure as Fault with its cause.
//
// A probe is a real read transaction. Devices that treat a read as a command
// may react to it, so scanning is meant for diagnostics only.
package i2cscan
