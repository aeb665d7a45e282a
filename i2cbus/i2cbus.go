// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// TimeoutProfile bounds the phases of a transaction.
type TimeoutProfile struct {
	// Start is the time allowed to issue the start condition.
	Start time.Duration
	// StartRetries is how many times a failed start is retried.
	StartRetries int
	// Address is the time allowed for the address to be acknowledged.
	Address time.Duration
	// Data is the time allowed per transferred byte.
	Data time.Duration
}

// DefaultTimeoutProfile is 1ms per phase and 10 start retries.
var DefaultTimeoutProfile = TimeoutProfile{
	Start:        1000 * time.Microsecond,
	StartRetries: 10,
	Address:      1000 * time.Microsecond,
	Data:         1000 * time.Microsecond,
}

// Budget returns the time a single attempt transferring n bytes may take.
func (p *TimeoutProfile) Budget(n int) time.Duration {
	return p.Start + p.Address + time.Duration(n)*p.Data
}

func (p *TimeoutProfile) validate() error {
	if p.Start <= 0 || p.Address <= 0 || p.Data <= 0 {
		return errors.New("i2cbus: timeouts must be positive")
	}
	if p.StartRetries < 0 {
		return errors.New("i2cbus: start retries must not be negative")
	}
	return nil
}

// Bus is an i2c.Bus whose transactions are bounded by a TimeoutProfile.
//
// Bus does not serialize access; the bus has a single owner at a time.
type Bus struct {
	b       i2c.Bus
	profile TimeoutProfile
	clk     clock.Clock
}

// New returns a Bus bounding the transactions of b. The profile is copied; nil
// means DefaultTimeoutProfile.
func New(b i2c.Bus, p *TimeoutProfile) (*Bus, error) {
	if b == nil {
		return nil, errors.New("i2cbus: nil bus")
	}
	if p == nil {
		p = &DefaultTimeoutProfile
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Bus{b: b, profile: *p, clk: clock.New()}, nil
}

// Profile returns the TimeoutProfile the bus was created with.
func (b *Bus) Profile() TimeoutProfile {
	return b.profile
}

// Tx implements i2c.Bus.
//
// A start failure is retried up to StartRetries times. An attempt that
// overruns its budget returns a KindTimeout Fault even when the underlying
// bus reported success; r must then be ignored.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	budget := b.profile.Budget(len(w) + len(r))
	var err error
	attempts := 0
	for attempts <= b.profile.StartRetries {
		attempts++
		start := b.clk.Now()
		err = b.b.Tx(addr, w, r)
		if elapsed := b.clk.Since(start); elapsed > budget {
			if err == nil {
				err = fmt.Errorf("%w: took %s, budget %s", ErrTimeout, elapsed, budget)
			}
			return &Fault{Kind: KindTimeout, Addr: addr, Attempts: attempts, Err: err}
		}
		if err == nil {
			return nil
		}
		if k := Classify(err); !k.retriable() {
			return &Fault{Kind: k, Addr: addr, Attempts: attempts, Err: err}
		}
	}
	return &Fault{Kind: Classify(err), Addr: addr, Attempts: attempts, Err: err}
}

// Read reads len(buf) bytes from the device at addr.
func (b *Bus) Read(addr uint16, buf []byte) error {
	return b.Tx(addr, nil, buf)
}

// Write writes buf to the device at addr.
func (b *Bus) Write(addr uint16, buf []byte) error {
	return b.Tx(addr, buf, nil)
}

// SetSpeed implements i2c.Bus.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	return b.b.SetSpeed(f)
}

func (b *Bus) String() string {
	return "i2cbus(" + b.b.String() + ")"
}

var _ i2c.Bus = &Bus{}
