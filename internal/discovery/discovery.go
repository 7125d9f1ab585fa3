// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package discovery supplements spec.md's discovery mention (§6, §5):
// a discovery mutex serializes concurrent POSTs to /api/v1/discovery,
// and discovered devices are filtered through the Watch List's
// protocol-match rules before being handed to metadata for creation.
package discovery

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/circutor-labs/device-service-core/internal/cache"
	"github.com/circutor-labs/device-service-core/internal/clients"
	"github.com/circutor-labs/device-service-core/pkg/models"
)

// Found is one device a driver's Discover call reports, described by
// the protocol properties a provision watcher matches against.
type Found struct {
	Name       string
	Protocols  map[string]string
	Profile    *models.DeviceProfile
}

// Runner serializes discovery requests — spec.md §5's "a discovery
// mutex serializes discovery requests so that only one runs at a
// time" — and admits discovered devices that match a watcher.
type Runner struct {
	mu       sync.Mutex
	watchers *cache.WatcherCache
	devices  *cache.DeviceCache
	meta     clients.MetadataClient
	driver   models.ProtocolDriver
	lc       *zap.SugaredLogger
}

// NewRunner wires a discovery Runner.
func NewRunner(watchers *cache.WatcherCache, devices *cache.DeviceCache, meta clients.MetadataClient, driver models.ProtocolDriver, lc *zap.SugaredLogger) *Runner {
	return &Runner{watchers: watchers, devices: devices, meta: meta, driver: driver, lc: lc}
}

// Run triggers the driver's Discover method and admits any device that
// matches a watch-list rule. Only one Run executes at a time; a
// concurrent caller blocks until the in-flight run completes.
func (r *Runner) Run(ctx context.Context, found []Found) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.driver.Discover(); err != nil {
		return fmt.Errorf("driver discovery failed: %w", err)
	}

	for _, f := range found {
		w, ok := r.watchers.MatchFirst(f.Protocols)
		if !ok {
			r.lc.Debugf("discovery: %s matched no provision watcher, skipping", f.Name)
			continue
		}

		protocols := models.NewProtocolPropertiesList()
		for proto, val := range f.Protocols {
			protocols.Append(proto, models.NewNVList().Append("value", val))
		}

		device := models.Device{
			Name:       f.Name,
			AdminState: models.Unlocked,
			OperState:  models.Enabled,
			Protocols:  protocols,
			Profile:    f.Profile,
		}

		id, err := r.meta.CreateDevice(ctx, device)
		if err != nil {
			r.lc.Errorf("discovery: create device %s failed: %v", f.Name, err)
			continue
		}
		device.Id = id
		r.devices.Insert(&device)
		r.lc.Infof("discovery: admitted device %s via watcher %s", f.Name, w.Name)
	}
	return nil
}
