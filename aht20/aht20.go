// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package aht20

import (
	"errors"
	"sync"
	"time"

	"github.com/GermanBionicSystems/envprobe/arena"
	"github.com/GermanBionicSystems/envprobe/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddress is the fixed address of the AHT20.
const DefaultAddress uint16 = 0x38

const (
	cmdStatus     byte = 0x71
	cmdInitialize byte = 0xBE
	cmdMeasure    byte = 0xAC
	cmdSoftReset  byte = 0xBA
)

const (
	bitBusy        byte = 1 << 7
	bitInitialized byte = 1 << 3
)

// Waits from the datasheet.
const (
	softResetDelay   = 20 * time.Millisecond
	initializeDelay  = 10 * time.Millisecond
	measurementDelay = 80 * time.Millisecond
)

const (
	frameSize = 7 // status, 5 data bytes, CRC8
	// BufferSize is the number of bytes NewI2C takes from its arena.
	BufferSize = frameSize + 1
)

var (
	argsInitialize = []byte{cmdInitialize, 0x08, 0x00}
	argsMeasure    = []byte{cmdMeasure, 0x33, 0x00}
	argsStatus     = []byte{cmdStatus}
	argsSoftReset  = []byte{cmdSoftReset}
)

// Delay blocks the caller for d. clock.Clock from github.com/benbjohnson/clock
// implements it.
type Delay interface {
	Sleep(d time.Duration)
}

// Opts holds the configuration options for the device.
type Opts struct {
	// Address of the device. Leave 0 to use DefaultAddress.
	Address uint16
	// MeasurementReadTimeout bounds the polling of a busy device. The timeout only applies after the measurement triggering which itself takes 80ms. Default is 150ms. 0 means the measurement is read once.
	MeasurementReadTimeout time.Duration
	// MeasurementWaitInterval is the interval between subsequent sensor value reads. This applies only if the measurement is not finished after the initial 80ms wait. Do not confuse this interval with SenseContinuous. Default is 10ms. Leave 0 to use default.
	MeasurementWaitInterval time.Duration
	// CalibrationAttempts is the number of status reads, 10ms apart, waiting for the calibration bit after the initialization command. Default is 5. Leave 0 to use default.
	CalibrationAttempts int
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	Address:                 DefaultAddress,
	MeasurementReadTimeout:  150 * time.Millisecond,
	MeasurementWaitInterval: 10 * time.Millisecond,
	CalibrationAttempts:     5,
}

// polls returns the number of reads of one measurement.
func (o *Opts) polls() int {
	if o.MeasurementReadTimeout <= 0 {
		return 1
	}
	return 1 + int(o.MeasurementReadTimeout/o.MeasurementWaitInterval)
}

// Sensor is an AHT20 that is not initialized yet. Call Init to get a Dev.
type Sensor struct {
	d      *i2c.Dev
	opts   Opts
	frame  []byte
	status []byte
}

// NewI2C returns an object that communicates over I²C to AHT20 environmental sensor. The sensor
// is not touched until Init is called. The buffers are taken from a, which may be nil. The Opts
// can be nil.
func NewI2C(b i2c.Bus, a *arena.Arena, opts *Opts) (*Sensor, error) {
	if b == nil {
		return nil, errors.New("aht20: nil bus")
	}
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Address == 0 {
		o.Address = DefaultAddress
	}
	if o.MeasurementWaitInterval <= 0 {
		o.MeasurementWaitInterval = 10 * time.Millisecond
	}
	if o.CalibrationAttempts <= 0 {
		o.CalibrationAttempts = 5
	}
	if a == nil {
		a = arena.New(BufferSize)
	}
	buf, err := a.Alloc(BufferSize)
	if err != nil {
		return nil, errors.Join(errors.New("aht20: could not allocate buffers"), err)
	}
	return &Sensor{
		d:      &i2c.Dev{Bus: b, Addr: o.Address},
		opts:   o,
		frame:  buf[:frameSize:frameSize],
		status: buf[frameSize:],
	}, nil
}

// Init soft resets the sensor and calibrates it if needed. On success the
// Sensor is consumed and the returned Dev must be used from then on. On
// failure the Sensor can be initialized again.
//
// delay is used for the waits mandated by the datasheet.
func (s *Sensor) Init(delay Delay) (*Dev, error) {
	if s.d == nil {
		return nil, ErrConsumed
	}
	if delay == nil {
		return nil, errors.New("aht20: nil delay")
	}
	if err := s.d.Tx(argsSoftReset, nil); err != nil {
		return nil, &InitializationFailedError{Op: "soft reset", Err: err}
	}
	delay.Sleep(softResetDelay) // wait for 20ms according to datasheet

	st, err := s.readStatus()
	if err != nil {
		return nil, &InitializationFailedError{Op: "status", Err: err}
	}
	if st&bitInitialized == 0 {
		if err := s.d.Tx(argsInitialize, nil); err != nil {
			return nil, &InitializationFailedError{Op: "calibration", Err: err}
		}
		for i := 0; ; i++ {
			delay.Sleep(initializeDelay) // wait for 10ms according to datasheet
			if st, err = s.readStatus(); err != nil {
				return nil, &InitializationFailedError{Op: "status", Err: err}
			}
			if st&bitInitialized != 0 {
				break
			}
			if i+1 >= s.opts.CalibrationAttempts {
				return nil, &InitializationFailedError{Op: "calibration", Status: st}
			}
		}
	}

	d := &Dev{d: s.d, opts: s.opts, frame: s.frame, status: s.status, delay: delay}
	*s = Sensor{}
	return d, nil
}

func (s *Sensor) readStatus() (byte, error) {
	if err := s.d.Tx(argsStatus, s.status); err != nil {
		return 0, err
	}
	return s.status[0], nil
}

// Dev is an initialized AHT20.
type Dev struct {
	opts   Opts
	d      *i2c.Dev
	delay  Delay
	mu     sync.Mutex
	frame  []byte
	status []byte

	stopMu sync.Mutex
	stop   chan struct{}
	wg     sync.WaitGroup
}

// Read triggers a measurement and returns it. The measurement takes at least
// 80ms, waited with delay. Any failure is returned as a *ReadFailedError; Read
// never retries.
func (d *Dev) Read(delay Delay) (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// trigger measurement
	if err := d.d.Tx(argsMeasure, nil); err != nil {
		return Reading{}, &ReadFailedError{Op: "trigger", Err: err}
	}
	delay.Sleep(measurementDelay) // wait for 80ms according to datasheet

	for polls := d.opts.polls(); ; polls-- {
		// read measurement
		if err := d.d.Tx(nil, d.frame); err != nil {
			return Reading{}, &ReadFailedError{Op: "read", Err: err}
		}
		if !common.CRC8Valid(d.frame) {
			return Reading{}, &ReadFailedError{Op: "validation", Err: &DataCorruptionError{Got: d.frame[frameSize-1], Want: common.CRC8(d.frame[:frameSize-1])}}
		}
		if d.frame[0]&bitInitialized == 0 {
			return Reading{}, &ReadFailedError{Op: "validation", Err: &NotInitializedError{}}
		}
		if d.frame[0]&bitBusy == 0 {
			return newReading(decode(d.frame)), nil
		}
		if polls <= 1 {
			return Reading{}, &ReadFailedError{Op: "read", Err: &ReadTimeoutError{}}
		}
		delay.Sleep(d.opts.MeasurementWaitInterval) // wait until measurement is ready
	}
}

// Sense implements physic.SenseEnv. It returns the current temperature and humidity, the pressure
// is always 0 since the AH20 does not measure pressure. It waits with the Delay given to Init.
// See Read for the errors.
func (d *Dev) Sense(e *physic.Env) error {
	r, err := d.Read(d.delay)
	if err != nil {
		return err
	}
	*e = r.Env()
	return nil
}

// SenseContinuous implements physic.SenseEnv. It returns a channel that will
// receive a measurement every interval. It is the caller's responsibility to call Halt() when done.
// Failed measurements are skipped.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < measurementDelay {
		return nil, errors.New("aht20: sample interval is < measurement duration")
	}
	d.stopMu.Lock()
	defer d.stopMu.Unlock()
	if d.stop != nil {
		return nil, errors.New("aht20: SenseContinuous already running")
	}

	sensing := make(chan physic.Env)
	stop := make(chan struct{})
	d.stop = stop
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(sensing)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				var e physic.Env
				if err := d.Sense(&e); err != nil {
					continue
				}
				select {
				case sensing <- e:
				case <-stop:
					return
				}
			}
		}
	}()
	return sensing, nil
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = 10 * physic.MilliKelvin
	e.Humidity = 24 * physic.MilliRH
}

// Status reads the status byte of the device.
func (d *Dev) Status() (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.d.Tx(argsStatus, d.status); err != nil {
		return 0, err
	}
	return d.status[0], nil
}

// Halt stops the AHT20 from acquiring measurements as initiated by SenseContinuous().
func (d *Dev) Halt() error {
	d.stopMu.Lock()
	stop := d.stop
	d.stop = nil
	d.stopMu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	d.wg.Wait()
	return nil
}

func (d *Dev) String() string {
	return "aht20"
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
