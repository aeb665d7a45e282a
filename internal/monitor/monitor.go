// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package monitor reads an initialized AHT20 at a fixed cadence and reports
// every cycle.
package monitor

import (
	"context"
	"time"

	"github.com/GermanBionicSystems/envprobe/aht20"
	"github.com/GermanBionicSystems/envprobe/internal/metrics"
	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
)

// Reader is the part of *aht20.Dev the monitor uses.
type Reader interface {
	Read(delay aht20.Delay) (aht20.Reading, error)
}

// Monitor owns the measurement loop.
type Monitor struct {
	dev      Reader
	clk      clock.Clock
	log      log.FieldLogger
	metrics  *metrics.Metrics
	interval time.Duration

	failures int // consecutive
}

// New returns a Monitor reading dev every interval. m may be nil.
func New(dev Reader, clk clock.Clock, logger log.FieldLogger, m *metrics.Metrics, interval time.Duration) *Monitor {
	return &Monitor{dev: dev, clk: clk, log: logger, metrics: m, interval: interval}
}

// Cycle reads one measurement and reports it. A failed read is logged and
// counted, and its error returned; the device state is left as is.
func (m *Monitor) Cycle() (aht20.Reading, error) {
	r, err := m.dev.Read(m.clk)
	if err != nil {
		m.failures++
		m.log.WithError(err).WithField("consecutive", m.failures).Warn("measurement skipped")
		if m.metrics != nil {
			m.metrics.ObserveReadFailure()
		}
		return r, err
	}
	m.failures = 0
	m.log.WithFields(log.Fields{
		"humidity":    r.Humidity,
		"temperature": r.Temperature,
	}).Infof("Humidity: %.2f%%, Temp(C): %.2f", r.Humidity, r.Temperature)
	if m.metrics != nil {
		m.metrics.ObserveReading(r)
	}
	return r, nil
}

// Run calls Cycle every interval until ctx is done. Failed cycles are
// skipped, the next tick tries again. A cycle in progress is never
// interrupted.
func (m *Monitor) Run(ctx context.Context) error {
	t := m.clk.Ticker(m.interval)
	defer t.Stop()
	for {
		_, _ = m.Cycle()
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
