// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package metrics exports readings and bus activity to Prometheus.
package metrics

import (
	"net/http"

	"github.com/GermanBionicSystems/envprobe/aht20"
	"github.com/GermanBionicSystems/envprobe/i2cscan"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. Its methods are safe for concurrent use.
type Metrics struct {
	humidity     prometheus.Gauge
	temperature  prometheus.Gauge
	readFailures prometheus.Counter
	probes       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aht20_humidity_percent",
			Help: "Relative humidity (units: % of relative humidity)",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aht20_temperature_celsius",
			Help: "Air temperature (units: degrees Celsius)",
		}),
		readFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aht20_read_failures_total",
			Help: "Measurement cycles that failed and were skipped",
		}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "i2c_probes_total",
			Help: "Address probes by outcome",
		}, []string{"status"}),
	}
	reg.MustRegister(m.humidity, m.temperature, m.readFailures, m.probes)
	return m
}

// ObserveReading sets the gauges to r.
func (m *Metrics) ObserveReading(r aht20.Reading) {
	m.humidity.Set(r.Humidity)
	m.temperature.Set(r.Temperature)
}

// ObserveReadFailure counts a failed measurement cycle.
func (m *Metrics) ObserveReadFailure() {
	m.readFailures.Inc()
}

// ObserveProbe counts p by status.
func (m *Metrics) ObserveProbe(p i2cscan.Probe) {
	m.probes.WithLabelValues(p.Status.String()).Inc()
}

// Handler exposes the metrics of g over HTTP.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{
		// Opt into OpenMetrics to support exemplars.
		EnableOpenMetrics: true,
	})
}
