// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, a CRC8 calculation
package common

// crc8Polynomial is p(x) = x^8 + x^5 + x^4 + 1. x^8 is omitted due to byte size.
const crc8Polynomial byte = 0x31

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. The initial value is 0xff and there is no final XOR, as
// published by Aosong and Sensirion for their humidity sensors.
func CRC8(bytes []byte) byte {
	var crc byte = 0xff
	for _, val := range bytes {
		crc ^= val
		for range 8 {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (crc << 1) ^ crc8Polynomial
			}
		}
	}
	return crc
}

// CRC8Valid returns true if the last byte of frame is the CRC8 of all the
// bytes before it. An empty frame is never valid.
func CRC8Valid(frame []byte) bool {
	if len(frame) == 0 {
		return false
	}
	n := len(frame) - 1
	return CRC8(frame[:n]) == frame[n]
}
