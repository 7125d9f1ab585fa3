// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package metrics backs /api/v1/metrics (§6) with real Prometheus
// collectors, grounded on r3e-network-service_layer's
// infrastructure/metrics package shape (NewWithRegistry, counter/gauge
// vecs) rather than a hand-rolled struct of plain counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the process metrics the core itself produces. Driver-
// and transport-level metrics are out of scope; this only covers what
// the Lifecycle Engine can observe about itself.
type Metrics struct {
	EventsPosted       prometheus.Counter
	EventPostErrors    prometheus.Counter
	DevicesManaged     prometheus.Gauge
	WorkerPoolInFlight prometheus.Gauge
	registry           *prometheus.Registry
}

// New creates a Metrics instance registered against a private
// registry (not prometheus.DefaultRegisterer), so multiple Service
// instances in the same process - as tests construct - never collide
// on collector names.
func New(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		EventsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "device_service",
			Name:        "events_posted_total",
			Help:        "Total cooked events successfully posted to the data service.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}),
		EventPostErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "device_service",
			Name:        "event_post_errors_total",
			Help:        "Total cooked events that failed to post.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}),
		DevicesManaged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "device_service",
			Name:        "devices_managed",
			Help:        "Number of devices currently in the device map.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}),
		WorkerPoolInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "device_service",
			Name:        "worker_pool_in_flight",
			Help:        "Approximate number of in-flight worker pool submissions.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}),
		registry: reg,
	}
	reg.MustRegister(m.EventsPosted, m.EventPostErrors, m.DevicesManaged, m.WorkerPoolInFlight)
	return m
}

// Registry exposes the private registry for the HTTP handler to
// render via promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
