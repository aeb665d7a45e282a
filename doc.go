// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package envprobe finds the devices on an I²C bus and reads an AHT20
// humidity and temperature sensor.
//
// i2cbus bounds bus transactions and classifies their failures, i2cscan
// probes the address range, aht20 drives the sensor and common holds the
// CRC8 used to validate its measurements. The programs are in cmd/.
package envprobe
