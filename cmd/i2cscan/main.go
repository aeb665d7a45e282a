// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// i2cscan probes every non reserved address of the first I²C bus, logs the
// outcome of each probe and prints a map of the bus.
package main

import (
	"os"
	"time"

	"github.com/GermanBionicSystems/envprobe/busmap"
	"github.com/GermanBionicSystems/envprobe/i2cbus"
	"github.com/GermanBionicSystems/envprobe/i2cscan"
	"github.com/mattn/go-colorable"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	busName  = "" // first available bus
	busSpeed = 400 * physic.KiloHertz
)

// i2c reserves 0-7 and 120-127, the scanner already accounts for that.
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
	if err := mainImpl(); err != nil {
		log.WithError(err).Error("scan failed")
		os.Exit(1)
	}
}

func mainImpl() error {
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
	s, err := i2cscan.New(tb, nil)
	if err != nil {
		return err
	}

	m := busmap.New(nil, nil)
	defer m.Halt()
	log.WithField("bus", tb).Info("Scanning for i2c devices...")
	for p := range s.Scan() {
		m.Set(p)
		entry := log.WithField("addr", p.Addr)
		switch p.Status {
		case i2cscan.Found:
			entry.Infof("0x%02x: found device", p.Addr)
		case i2cscan.NoAck:
			entry.Debugf("0x%02x: no ACK", p.Addr)
		default:
			entry.WithError(p.Err).Warnf("0x%02x: other fault", p.Addr)
		}
	}
	log.WithFields(log.Fields{
		"found":  m.Count(i2cscan.Found),
		"faults": m.Count(i2cscan.Fault),
	}).Info("DONE searching")
	return m.Render()
}
