// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package aht20

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/GermanBionicSystems/envprobe/arena"
	"github.com/GermanBionicSystems/envprobe/i2cbus"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

// Measurements as read back from the device.
var (
	// 45.828%RH, 19.446°C.
	frameGood = []byte{0x18, 0x75, 0x52, 0x05, 0x8E, 0x40, 0x7F}
	// 50%RH, 50°C.
	frameHalf = []byte{0x1c, 0x80, 0x00, 0x08, 0x00, 0x00, 0xb9}
	// Same data as frameGood with the busy bit set.
	frameBusy = []byte{0x98, 0x75, 0x52, 0x05, 0x8E, 0x40, 0x93}
	// Same data as frameGood with the calibration bit cleared.
	frameUncalibrated = []byte{0x10, 0x75, 0x52, 0x05, 0x8E, 0x40, 0xa5}
)

type fakeDelay struct {
	calls []time.Duration
}

func (f *fakeDelay) Sleep(d time.Duration) {
	f.calls = append(f.calls, d)
}

// errBus fails every transaction with err.
type errBus struct {
	err error
}

func (e *errBus) String() string { return "errBus" }

func (e *errBus) SetSpeed(physic.Frequency) error { return nil }

func (e *errBus) Tx(uint16, []byte, []byte) error { return e.err }

func newDev(b i2c.Bus, opts Opts) *Dev {
	return &Dev{
		d:      &i2c.Dev{Bus: b, Addr: DefaultAddress},
		opts:   opts,
		frame:  make([]byte, frameSize),
		status: make([]byte, 1),
		delay:  &fakeDelay{},
	}
}

func measureOps(frames ...[]byte) []i2ctest.IO {
	ops := []i2ctest.IO{{Addr: DefaultAddress, W: argsMeasure}}
	for _, f := range frames {
		ops = append(ops, i2ctest.IO{Addr: DefaultAddress, R: f})
	}
	return ops
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-3
}

func TestInitCalibrated(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddress, W: argsSoftReset},
			{Addr: DefaultAddress, W: argsStatus, R: []byte{0x18}},
		},
	}
	s, err := NewI2C(bus, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	delay := &fakeDelay{}
	dev, err := s.Init(delay)
	if err != nil {
		t.Fatal(err)
	}
	if dev == nil {
		t.Fatal("nil Dev")
	}
	if diff := cmp.Diff([]time.Duration{softResetDelay}, delay.calls); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
	if _, err := s.Init(delay); !errors.Is(err, ErrConsumed) {
		t.Errorf("second Init returned %v, expected ErrConsumed", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestInitCalibrates(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddress, W: argsSoftReset},
			{Addr: DefaultAddress, W: argsStatus, R: []byte{0x10}},
			{Addr: DefaultAddress, W: argsInitialize},
			{Addr: DefaultAddress, W: argsStatus, R: []byte{0x10}},
			{Addr: DefaultAddress, W: argsStatus, R: []byte{0x18}},
		},
	}
	s, err := NewI2C(bus, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	delay := &fakeDelay{}
	if _, err := s.Init(delay); err != nil {
		t.Fatal(err)
	}
	want := []time.Duration{softResetDelay, initializeDelay, initializeDelay}
	if diff := cmp.Diff(want, delay.calls); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestInitNeverCalibrated(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddress, W: argsSoftReset},
			{Addr: DefaultAddress, W: argsStatus, R: []byte{0x00}},
			{Addr: DefaultAddress, W: argsInitialize},
			{Addr: DefaultAddress, W: argsStatus, R: []byte{0x00}},
			{Addr: DefaultAddress, W: argsStatus, R: []byte{0x04}},
		},
	}
	opts := DefaultOpts
	opts.CalibrationAttempts = 2
	s, err := NewI2C(bus, nil, &opts)
	if err != nil {
		t.Fatal(err)
	}
	dev, err := s.Init(&fakeDelay{})
	if dev != nil {
		t.Fatal("got a Dev from a failed Init")
	}
	var ie *InitializationFailedError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *InitializationFailedError, got %v", err)
	}
	if ie.Status != 0x04 || ie.Err != nil || ie.Op != "calibration" {
		t.Errorf("unexpected %+v", ie)
	}
	if s.d == nil {
		t.Error("failed Init consumed the Sensor")
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestInitBusFault(t *testing.T) {
	s, err := NewI2C(&errBus{err: i2cbus.ErrNoAcknowledge}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Init(&fakeDelay{})
	var ie *InitializationFailedError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *InitializationFailedError, got %v", err)
	}
	if ie.Op != "soft reset" || !i2cbus.IsNoAcknowledge(err) {
		t.Errorf("unexpected %v", err)
	}
	if _, err := s.Init(nil); err == nil {
		t.Error("expected error for nil delay")
	}
}

func TestNewI2CArena(t *testing.T) {
	a := arena.New(BufferSize + 2)
	if _, err := NewI2C(&errBus{}, a, nil); err != nil {
		t.Fatal(err)
	}
	if a.Free() != 2 {
		t.Errorf("Free()=%d expected 2", a.Free())
	}
	if _, err := NewI2C(&errBus{}, a, nil); !errors.Is(err, arena.ErrExhausted) {
		t.Errorf("expected ErrExhausted, got %v", err)
	}
	if _, err := NewI2C(nil, nil, nil); err == nil {
		t.Error("expected error for nil bus")
	}
}

func TestNewI2COpts(t *testing.T) {
	s, err := NewI2C(&errBus{}, nil, &Opts{})
	if err != nil {
		t.Fatal(err)
	}
	want := Opts{Address: DefaultAddress, MeasurementWaitInterval: 10 * time.Millisecond, CalibrationAttempts: 5}
	if s.opts != want {
		t.Errorf("opts %+v != %+v", s.opts, want)
	}
}

func TestSensorHasNoRead(t *testing.T) {
	typ := reflect.TypeOf(&Sensor{})
	for _, m := range []string{"Read", "Sense", "SenseContinuous", "Status"} {
		if _, ok := typ.MethodByName(m); ok {
			t.Errorf("uninitialized Sensor exposes %s", m)
		}
	}
}

func TestDev_Sense(t *testing.T) {
	bus := i2ctest.Playback{Ops: measureOps(frameGood)}
	dev := newDev(&bus, DefaultOpts)
	e := physic.Env{}
	if err := dev.Sense(&e); err != nil {
		t.Fatal(err)
	}
	if expected := 19445800781*physic.NanoKelvin + physic.ZeroCelsius; e.Temperature != expected {
		t.Fatalf("temperature %s(%d) != %s(%d)", expected, expected, e.Temperature, e.Temperature)
	}
	if expected := 4582824 * physic.TenthMicroRH; e.Humidity != expected {
		t.Fatalf("humidity %s(%d) != %s(%d)", expected, expected, e.Humidity, e.Humidity)
	}
	if expected := 0 * physic.Pascal; e.Pressure != expected {
		t.Fatalf("pressure %s(%d) != %s(%d)", expected, expected, e.Pressure, e.Pressure)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDev_Read(t *testing.T) {
	var tests = []struct {
		frame       []byte
		humidity    float64
		temperature float64
	}{
		{frameGood, 45.828, 19.446},
		{frameHalf, 50, 50},
	}
	for _, test := range tests {
		bus := &i2ctest.Playback{Ops: measureOps(test.frame)}
		delay := &fakeDelay{}
		r, err := newDev(bus, DefaultOpts).Read(delay)
		if err != nil {
			t.Fatal(err)
		}
		if !near(r.Humidity, test.humidity) || !near(r.Temperature, test.temperature) {
			t.Errorf("%#v: got %s expected %.3f%%RH %.3f°C", test.frame, r, test.humidity, test.temperature)
		}
		if diff := cmp.Diff([]time.Duration{measurementDelay}, delay.calls); diff != "" {
			t.Errorf("delays mismatch (-want +got):\n%s", diff)
		}
		if err := bus.Close(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDev_ReadCorrupt(t *testing.T) {
	frame := append([]byte(nil), frameGood...)
	frame[6] = 0x7e
	bus := &i2ctest.Playback{Ops: measureOps(frame)}
	_, err := newDev(bus, DefaultOpts).Read(&fakeDelay{})
	var re *ReadFailedError
	if !errors.As(err, &re) {
		t.Fatalf("expected *ReadFailedError, got %v", err)
	}
	var de *DataCorruptionError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DataCorruptionError, got %v", err)
	}
	if de.Got != 0x7e || de.Want != 0x7f {
		t.Errorf("unexpected %+v", de)
	}
}

func TestDev_ReadBusy(t *testing.T) {
	bus := &i2ctest.Playback{Ops: measureOps(frameBusy, frameBusy, frameGood)}
	delay := &fakeDelay{}
	r, err := newDev(bus, DefaultOpts).Read(delay)
	if err != nil {
		t.Fatal(err)
	}
	if !near(r.Humidity, 45.828) {
		t.Errorf("unexpected %s", r)
	}
	want := []time.Duration{measurementDelay, 10 * time.Millisecond, 10 * time.Millisecond}
	if diff := cmp.Diff(want, delay.calls); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDev_ReadTimeout(t *testing.T) {
	opts := DefaultOpts
	opts.MeasurementReadTimeout = 20 * time.Millisecond
	bus := &i2ctest.Playback{Ops: measureOps(frameBusy, frameBusy, frameBusy)}
	_, err := newDev(bus, opts).Read(&fakeDelay{})
	var te *ReadTimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected *ReadTimeoutError, got %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDev_ReadNotInitialized(t *testing.T) {
	bus := &i2ctest.Playback{Ops: measureOps(frameUncalibrated)}
	_, err := newDev(bus, DefaultOpts).Read(&fakeDelay{})
	var ne *NotInitializedError
	if !errors.As(err, &ne) {
		t.Fatalf("expected *NotInitializedError, got %v", err)
	}
}

func TestDev_ReadBusFault(t *testing.T) {
	_, err := newDev(&errBus{err: i2cbus.ErrTimeout}, DefaultOpts).Read(&fakeDelay{})
	var re *ReadFailedError
	if !errors.As(err, &re) {
		t.Fatalf("expected *ReadFailedError, got %v", err)
	}
	if re.Op != "trigger" || i2cbus.Classify(err) != i2cbus.KindTimeout {
		t.Errorf("unexpected %v", err)
	}
}

func TestDev_Status(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{{Addr: DefaultAddress, W: argsStatus, R: []byte{0x1c}}}}
	st, err := newDev(bus, DefaultOpts).Status()
	if err != nil {
		t.Fatal(err)
	}
	if st != 0x1c {
		t.Errorf("status 0x%02x expected 0x1c", st)
	}
}

func TestDev_SenseContinuous(t *testing.T) {
	bus := &i2ctest.Playback{Ops: append(measureOps(frameGood), measureOps(frameHalf)...), DontPanic: true}
	dev := newDev(bus, DefaultOpts)
	if _, err := dev.SenseContinuous(time.Millisecond); err == nil {
		t.Error("expected error for an interval shorter than a measurement")
	}
	ch, err := dev.SenseContinuous(measurementDelay)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dev.SenseContinuous(measurementDelay); err == nil {
		t.Error("expected error for a second SenseContinuous")
	}
	want := []physic.Env{newReading(decode(frameGood)).Env(), newReading(decode(frameHalf)).Env()}
	for i, w := range want {
		select {
		case e := <-ch:
			if e != w {
				t.Errorf("measurement %d: %+v != %+v", i, e, w)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a measurement")
		}
	}
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-ch; ok {
		t.Error("channel still open after Halt")
	}
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
}

func TestDev_Precision(t *testing.T) {
	var e physic.Env
	newDev(&errBus{}, DefaultOpts).Precision(&e)
	if e.Temperature != 10*physic.MilliKelvin || e.Humidity != 24*physic.MilliRH {
		t.Errorf("unexpected precision %+v", e)
	}
}
