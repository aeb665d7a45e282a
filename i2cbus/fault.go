// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cbus

import (
	"errors"
	"fmt"
)

// Kind classifies a failed transaction.
type Kind int

const (
	// KindOther is any failure not covered by another Kind.
	KindOther Kind = iota
	// KindNoAcknowledge means no device answered the address phase.
	KindNoAcknowledge
	// KindArbitrationLost means another master won the bus during start.
	KindArbitrationLost
	// KindBusBusy means the start condition could not be issued.
	KindBusBusy
	// KindTimeout means the transaction overran its budget.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNoAcknowledge:
		return "no acknowledge"
	case KindArbitrationLost:
		return "arbitration lost"
	case KindBusBusy:
		return "bus busy"
	case KindTimeout:
		return "timeout"
	default:
		return "bus fault"
	}
}

// Sentinel errors, one per Kind. A transport that knows the exact failure can
// return them directly.
var (
	ErrNoAcknowledge   = errors.New("i2cbus: no acknowledge")
	ErrArbitrationLost = errors.New("i2cbus: arbitration lost")
	ErrBusBusy         = errors.New("i2cbus: bus busy")
	ErrTimeout         = errors.New("i2cbus: timeout")
)

// Fault is the error returned by Bus for a failed transaction.
type Fault struct {
	Kind     Kind
	Addr     uint16
	Attempts int
	Err      error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("i2cbus: 0x%02x: %s", f.Addr, f.Kind)
	}
	return fmt.Sprintf("i2cbus: 0x%02x: %s: %v", f.Addr, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Classify returns the Kind of err. nil and unrecognized errors are
// KindOther.
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	switch {
	case errors.Is(err, ErrNoAcknowledge):
		return KindNoAcknowledge
	case errors.Is(err, ErrArbitrationLost):
		return KindArbitrationLost
	case errors.Is(err, ErrBusBusy):
		return KindBusBusy
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	}
	if k, ok := errnoKind(err); ok {
		return k
	}
	return KindOther
}

// IsNoAcknowledge returns true if err means that nothing answered the
// address.
func IsNoAcknowledge(err error) bool {
	return err != nil && Classify(err) == KindNoAcknowledge
}

// retriable returns true for failures of the start phase, the only ones
// StartRetries applies to.
func (k Kind) retriable() bool {
	return k == KindArbitrationLost || k == KindBusBusy
}
