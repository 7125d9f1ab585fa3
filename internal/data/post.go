// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package data

import (
	"context"

	"go.uber.org/zap"

	"github.com/circutor-labs/device-service-core/internal/cache"
	"github.com/circutor-labs/device-service-core/internal/clients"
	"github.com/circutor-labs/device-service-core/internal/metrics"
	"github.com/circutor-labs/device-service-core/internal/workerpool"
	"github.com/circutor-labs/device-service-core/pkg/models"
)

// Poster implements post_readings (§4.10 steady state, §8 property 5):
// look up the device, resolve the resource on its profile, run the
// transform, and submit exactly one posting work item to the worker
// pool — or log and return without enqueuing anything if either
// lookup fails.
type Poster struct {
	Devices       *cache.DeviceCache
	Pool          *workerpool.Pool
	DataClient    clients.DataClient
	DataTransform bool
	Metrics       *metrics.Metrics
	Logger        *zap.SugaredLogger
}

// PostReadings is the §4.10 post_readings operation.
func (p *Poster) PostReadings(deviceName, resourceName string, values []*models.CommandValue) {
	h, ok := p.Devices.ForName(deviceName)
	if !ok {
		p.Logger.Warnf("post_readings: unknown device %s, dropping reading for %s", deviceName, resourceName)
		return
	}
	profile := h.Device.Profile
	h.Release()

	if profile == nil {
		p.Logger.Warnf("post_readings: device %s has no resolved profile", deviceName)
		return
	}
	if _, ok := profile.CommandByResourceName(resourceName); !ok {
		p.Logger.Warnf("post_readings: resource %s not found on profile %s", resourceName, profile.Name)
		return
	}

	if p.Metrics != nil {
		p.Metrics.WorkerPoolInFlight.Inc()
	}
	p.Pool.Submit(func() {
		if p.Metrics != nil {
			defer p.Metrics.WorkerPoolInFlight.Dec()
		}
		ev := Transform(deviceName, values, p.DataTransform)
		cooked, err := Cook(ev)
		if err != nil {
			p.Logger.Errorf("post_readings: cook event for %s failed: %v", deviceName, err)
			if p.Metrics != nil {
				p.Metrics.EventPostErrors.Inc()
			}
			return
		}
		if err := p.DataClient.AddEvent(context.Background(), cooked); err != nil {
			p.Logger.Errorf("post_readings: add_event for %s failed: %v", deviceName, err)
			if p.Metrics != nil {
				p.Metrics.EventPostErrors.Inc()
			}
			return
		}
		if p.Metrics != nil {
			p.Metrics.EventsPosted.Inc()
		}
	})
}
