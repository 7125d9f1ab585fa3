// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package autoevent supplements spec.md (see SPEC_FULL.md): it drives
// the Scheduler (§4.4) from each device's autoevents list, the
// mechanism the teacher's internal/handler/callback/callback.go
// already calls into (RestartForDevice/StopForDevice) even though the
// package defining them was not retrieved with the teacher slice.
package autoevent

import (
	"go.uber.org/zap"

	"github.com/circutor-labs/device-service-core/internal/cache"
	"github.com/circutor-labs/device-service-core/internal/scheduler"
	"github.com/circutor-labs/device-service-core/pkg/models"
)

// Poster is the subset of the Lifecycle Engine's steady-state surface
// autoevents need: post_readings, exactly as spec.md §4.10 names it.
type Poster interface {
	PostReadings(deviceName, resourceName string, values []*models.CommandValue)
}

// Manager schedules one cron job per (device, autoevent) pair.
type Manager struct {
	sched   *scheduler.Manager
	devices *cache.DeviceCache
	driver  models.ProtocolDriver
	poster  Poster
	lc      *zap.SugaredLogger
}

// NewManager wires an autoevent manager against the Lifecycle
// Engine's scheduler, device cache, driver and poster.
func NewManager(sched *scheduler.Manager, devices *cache.DeviceCache, driver models.ProtocolDriver, poster Poster, lc *zap.SugaredLogger) *Manager {
	return &Manager{sched: sched, devices: devices, driver: driver, poster: poster, lc: lc}
}

func jobName(deviceName, resource string) string {
	return deviceName + "/" + resource
}

// RestartForDevice (re)registers every autoevent on the named device,
// replacing any existing jobs for it.
func (m *Manager) RestartForDevice(deviceName string) {
	m.StopForDevice(deviceName)

	h, ok := m.devices.ForName(deviceName)
	if !ok {
		return
	}
	device := h.Device
	events := append([]models.AutoEvent(nil), device.AutoEvents...)
	h.Release()

	for _, ae := range events {
		ae := ae
		spec := "@every " + ae.Frequency
		err := m.sched.AddJob(jobName(deviceName, ae.Resource), spec, func() {
			m.fire(deviceName, ae.Resource)
		})
		if err != nil {
			m.lc.Errorf("autoevent: could not schedule %s for %s: %v", ae.Resource, deviceName, err)
			continue
		}
		m.lc.Infof("autoevent: scheduled %s for device %s every %s", ae.Resource, deviceName, ae.Frequency)
	}
}

// StopForDevice unregisters every autoevent job for the named device.
func (m *Manager) StopForDevice(deviceName string) {
	h, ok := m.devices.ForName(deviceName)
	if !ok {
		return
	}
	events := append([]models.AutoEvent(nil), h.Device.AutoEvents...)
	h.Release()

	for _, ae := range events {
		m.sched.RemoveJob(jobName(deviceName, ae.Resource))
	}
}

func (m *Manager) fire(deviceName, resource string) {
	h, ok := m.devices.ForName(deviceName)
	if !ok {
		m.lc.Warnf("autoevent: device %s no longer present, skipping %s", deviceName, resource)
		return
	}
	profile := h.Device.Profile
	protocols := h.Device.Protocols
	h.Release()

	if profile == nil {
		m.lc.Warnf("autoevent: device %s has no resolved profile", deviceName)
		return
	}
	cmd, ok := profile.CommandByResourceName(resource)
	if !ok {
		m.lc.Warnf("autoevent: resource %s not found on profile %s", resource, profile.Name)
		return
	}

	reqs := make([]models.CommandRequest, len(cmd.Get))
	for i, ro := range cmd.Get {
		reqs[i] = models.CommandRequest{RO: ro}
	}

	values, err := m.driver.HandleReadCommands(deviceName, protocols, reqs)
	if err != nil {
		m.lc.Errorf("autoevent: read %s on %s failed: %v", resource, deviceName, err)
		return
	}
	m.poster.PostReadings(deviceName, resource, values)
}
