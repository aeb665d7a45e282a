// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package aht20

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// fullScale is 2^20, the range of the 20 bit humidity and temperature fields.
const fullScale = 1048576.0

// HumidityPercent converts a raw 20 bit humidity count to %RH.
func HumidityPercent(raw uint32) float64 {
	return float64(raw) / fullScale * 100.0
}

// TemperatureCelsius converts a raw 20 bit temperature count to °C.
func TemperatureCelsius(raw uint32) float64 {
	return float64(raw)/fullScale*200.0 - 50.0
}

// decode extracts the humidity and temperature counts of a measurement. The
// humidity is in the 20 high bits of bytes 1-3, the temperature in the 20 low
// bits of bytes 3-5.
func decode(data []byte) (hRaw, tRaw uint32) {
	hRaw = uint32(data[1])<<12 | uint32(data[2])<<4 | uint32(data[3])>>4
	tRaw = (uint32(data[3])&0xF)<<16 | uint32(data[4])<<8 | uint32(data[5])
	return hRaw, tRaw
}

// Reading is a calibrated measurement.
type Reading struct {
	// Humidity in %RH.
	Humidity float64
	// Temperature in °C.
	Temperature float64
}

func newReading(hRaw, tRaw uint32) Reading {
	return Reading{Humidity: HumidityPercent(hRaw), Temperature: TemperatureCelsius(tRaw)}
}

// Env returns the reading as a physic.Env. Pressure is not set.
func (r Reading) Env() physic.Env {
	return physic.Env{
		Humidity:    physic.RelativeHumidity(r.Humidity * float64(physic.PercentRH)),
		Temperature: physic.Temperature(r.Temperature*float64(physic.Kelvin)) + physic.ZeroCelsius,
	}
}

func (r Reading) String() string {
	return fmt.Sprintf("%.2f%%RH %.2f°C", r.Humidity, r.Temperature)
}
