// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cscan

import (
	"fmt"
	"iter"
	"time"

	"github.com/GermanBionicSystems/envprobe/i2cbus"
	"github.com/benbjohnson/clock"
	"periph.io/x/conn/v3/i2c"
)

const (
	// MinAddress is the first address that is not reserved.
	MinAddress uint16 = 0x08
	// MaxAddress is the first reserved address past the general range.
	MaxAddress uint16 = 0x77
)

// Status is the outcome of probing one address.
type Status int

const (
	// Found means a device acknowledged the address.
	Found Status = iota
	// NoAck means nothing answered. Expected for every empty address.
	NoAck
	// Fault means the transaction failed for another reason.
	Fault
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NoAck:
		return "no ack"
	case Fault:
		return "fault"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Probe is the result for one address. Err is only set for Fault.
type Probe struct {
	Addr   uint16
	Status Status
	Err    error
}

func (p Probe) String() string {
	if p.Err != nil {
		return fmt.Sprintf("0x%02x: %s: %v", p.Addr, p.Status, p.Err)
	}
	return fmt.Sprintf("0x%02x: %s", p.Addr, p.Status)
}

// Opts holds the configuration options for a Scanner.
type Opts struct {
	// Interval is the time between two probes. 0 probes back to back.
	Interval time.Duration
	// Start is the first address probed.
	Start uint16
	// End is one past the last address probed.
	End uint16
}

// DefaultOpts probes the whole non reserved range, 10 addresses per second.
var DefaultOpts = Opts{
	Interval: 100 * time.Millisecond,
	Start:    MinAddress,
	End:      MaxAddress,
}

// Scanner probes a range of addresses on a bus.
type Scanner struct {
	b    i2c.Bus
	opts Opts
	clk  clock.Clock
}

// New returns a Scanner for b. The Opts can be nil. The range must lie
// within [MinAddress, MaxAddress).
func New(b i2c.Bus, opts *Opts) (*Scanner, error) {
	if b == nil {
		return nil, fmt.Errorf("i2cscan: nil bus")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Start < MinAddress || opts.End > MaxAddress || opts.Start >= opts.End {
		return nil, fmt.Errorf("i2cscan: invalid range [0x%02x, 0x%02x), must be within [0x%02x, 0x%02x)", opts.Start, opts.End, MinAddress, MaxAddress)
	}
	if opts.Interval < 0 {
		return nil, fmt.Errorf("i2cscan: negative interval %s", opts.Interval)
	}
	return &Scanner{b: b, opts: *opts, clk: clock.New()}, nil
}

// Scan returns the probes of every address of the range in ascending order.
// Addresses are probed lazily as the sequence is iterated. Each call to Scan
// starts a new scan.
//
// A fault on one address does not stop the scan.
func (s *Scanner) Scan() iter.Seq[Probe] {
	return func(yield func(Probe) bool) {
		var t *clock.Ticker
		if s.opts.Interval > 0 {
			t = s.clk.Ticker(s.opts.Interval)
			defer t.Stop()
		}
		var buf [1]byte
		for addr := s.opts.Start; addr < s.opts.End; addr++ {
			if !yield(s.probe(addr, buf[:])) {
				return
			}
			if t != nil && addr+1 < s.opts.End {
				<-t.C
			}
		}
	}
}

// Len returns the number of probes a scan yields.
func (s *Scanner) Len() int {
	return int(s.opts.End - s.opts.Start)
}

func (s *Scanner) probe(addr uint16, buf []byte) Probe {
	err := s.b.Tx(addr, nil, buf)
	switch {
	case err == nil:
		return Probe{Addr: addr, Status: Found}
	case i2cbus.IsNoAcknowledge(err):
		return Probe{Addr: addr, Status: NoAck}
	default:
		return Probe{Addr: addr, Status: Fault, Err: err}
	}
}

// FoundAddrs returns the addresses that acknowledged in seq.
func FoundAddrs(seq iter.Seq[Probe]) []uint16 {
	var addrs []uint16
	for p := range seq {
		if p.Status == Found {
			addrs = append(addrs, p.Addr)
		}
	}
	return addrs
}
