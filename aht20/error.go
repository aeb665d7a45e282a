// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package aht20

import (
	"errors"
	"fmt"
)

// ErrConsumed is returned by Sensor.Init once the Sensor has been
// initialized.
var ErrConsumed = errors.New("aht20: sensor already initialized, use the returned Dev")

type NotInitializedError struct{}

func (e *NotInitializedError) Error() string {
	return "AHT20 is not initialized."
}

type ReadTimeoutError struct{}

func (e *ReadTimeoutError) Error() string {
	return "Read timeout. AHT20 did not finish measurement in time."
}

// DataCorruptionError is returned when the CRC8 read from the device does not
// match the data.
type DataCorruptionError struct {
	Got  byte
	Want byte
}

func (e *DataCorruptionError) Error() string {
	return fmt.Sprintf("Data is corrupt. The CRC8 hashes did not match (got 0x%02x, want 0x%02x).", e.Got, e.Want)
}

// InitializationFailedError is returned by Sensor.Init. Either a transaction
// failed, then Err is set, or the calibration bit never got set.
type InitializationFailedError struct {
	Op     string
	Status byte
	Err    error
}

func (e *InitializationFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("aht20: initialization failed during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("aht20: initialization failed during %s: status 0x%02x, not calibrated", e.Op, e.Status)
}

func (e *InitializationFailedError) Unwrap() error {
	return e.Err
}

// ReadFailedError is returned by Dev.Read and Dev.Sense. Err is the bus fault,
// a *DataCorruptionError, a *NotInitializedError or a *ReadTimeoutError.
type ReadFailedError struct {
	Op  string
	Err error
}

func (e *ReadFailedError) Error() string {
	return fmt.Sprintf("aht20: read failed during %s: %v", e.Op, e.Err)
}

func (e *ReadFailedError) Unwrap() error {
	return e.Err
}
