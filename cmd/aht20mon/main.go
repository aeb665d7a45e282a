// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// aht20mon locates an AHT20 on the first I²C bus, calibrates it and logs its
// humidity and temperature every second until interrupted. The readings are
// also exported to Prometheus.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/envprobe/aht20"
	"github.com/GermanBionicSystems/envprobe/arena"
	"github.com/GermanBionicSystems/envprobe/i2cbus"
	"github.com/GermanBionicSystems/envprobe/i2cscan"
	"github.com/GermanBionicSystems/envprobe/internal/metrics"
	"github.com/GermanBionicSystems/envprobe/internal/monitor"
	"github.com/benbjohnson/clock"
	"github.com/mattn/go-colorable"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	busName       = "" // first available bus
	busSpeed      = 100 * physic.KiloHertz
	sensorAddress = aht20.DefaultAddress
	heapSize      = 1024
	readInterval  = time.Second
	listenAddr    = ":9101"
)

var timeouts = i2cbus.TimeoutProfile{
	Start:        1000 * time.Microsecond,
	StartRetries: 10,
	Address:      1000 * time.Microsecond,
	Data:         1000 * time.Microsecond,
}

func init() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(colorable.NewColorableStderr())
}

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		// Initialization failures end up here too: there is no recovery
		// without a power cycle of the sensor.
		log.WithError(err).Error("aht20mon stopped")
		os.Exit(1)
	}
}

func mainImpl() error {
	heap := arena.New(heapSize)

	if _, err := host.Init(); err != nil {
		return err
	}
	b, err := i2creg.Open(busName)
	if err != nil {
		return err
	}
	defer b.Close()
	if err := b.SetSpeed(busSpeed); err != nil {
		log.WithError(err).Warn("could not set bus speed, using the default")
	}
	tb, err := i2cbus.New(b, &timeouts)
	if err != nil {
		return err
	}

	if err := locate(tb); err != nil {
		return err
	}

	opts := aht20.DefaultOpts
	opts.Address = sensorAddress
	s, err := aht20.NewI2C(tb, heap, &opts)
	if err != nil {
		return err
	}
	clk := clock.New()
	dev, err := s.Init(clk)
	if err != nil {
		return err
	}
	defer dev.Halt()
	log.WithField("heap", heap).Info("AHT20 initialized")

	m := metrics.New(prometheus.DefaultRegisterer)
	go func() {
		http.Handle("/metrics", metrics.Handler(prometheus.DefaultGatherer))
		log.WithError(http.ListenAndServe(listenAddr, nil)).Error("metrics server stopped")
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return monitor.New(dev, clk, log.StandardLogger(), m, readInterval).Run(ctx)
}

// locate probes the sensor address once so a missing sensor is reported as
// such rather than as a failed initialization.
func locate(b *i2cbus.Bus) error {
	s, err := i2cscan.New(b, &i2cscan.Opts{Start: sensorAddress, End: sensorAddress + 1})
	if err != nil {
		return err
	}
	for p := range s.Scan() {
		switch p.Status {
		case i2cscan.Found:
			log.WithField("addr", p.Addr).Info("found AHT20")
			return nil
		case i2cscan.NoAck:
			return errors.New("no AHT20 acknowledged its address")
		default:
			return p.Err
		}
	}
	return errors.New("sensor address out of scan range")
}
