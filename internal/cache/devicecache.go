// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package cache holds the Lifecycle Engine's concurrent in-memory
// indices: the Device Map (§4.2), the profile cache and the Watch
// List (§3's Provision Watcher collection).
package cache

import (
	"sort"
	"sync"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

// deviceEntry is refcounted so a lookup may be held safely while a
// concurrent Remove is in flight: Remove unlinks the entry from both
// indices immediately (no new handle can be taken afterwards) but
// blocks until every handle taken before the unlink calls Release.
type deviceEntry struct {
	device   *models.Device
	mu       sync.Mutex
	cond     *sync.Cond
	refCount int
}

func newDeviceEntry(d *models.Device) *deviceEntry {
	e := &deviceEntry{device: d}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *deviceEntry) acquire() *DeviceHandle {
	e.mu.Lock()
	e.refCount++
	e.mu.Unlock()
	return &DeviceHandle{Device: e.device, release: e.release}
}

func (e *deviceEntry) release() {
	e.mu.Lock()
	e.refCount--
	if e.refCount <= 0 {
		e.cond.Broadcast()
	}
	e.mu.Unlock()
}

func (e *deviceEntry) waitForDrain() {
	e.mu.Lock()
	for e.refCount > 0 {
		e.cond.Wait()
	}
	e.mu.Unlock()
}

// DeviceHandle is a reference-counted view of a device. Callers must
// call Release exactly once when done; holding a handle guarantees the
// underlying *models.Device is not concurrently mutated out from under
// a removal.
type DeviceHandle struct {
	Device  *models.Device
	release func()
}

// Release returns the handle, allowing a concurrent Remove to proceed
// once every outstanding handle has done the same.
func (h *DeviceHandle) Release() {
	if h == nil || h.release == nil {
		return
	}
	h.release()
}

// DeviceCache is the Device Map: a concurrent index of devices by id
// and by name.
type DeviceCache struct {
	mu     sync.RWMutex
	byID   map[string]*deviceEntry
	byName map[string]*deviceEntry
}

// NewDeviceCache returns an empty cache.
func NewDeviceCache() *DeviceCache {
	return &DeviceCache{
		byID:   make(map[string]*deviceEntry),
		byName: make(map[string]*deviceEntry),
	}
}

// Insert adds or replaces d in both indices.
func (c *DeviceCache) Insert(d *models.Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := newDeviceEntry(d)
	c.byID[d.Id] = e
	c.byName[d.Name] = e
}

// Update replaces the device stored under d.Id/d.Name. Existing
// handles keep pointing at the superseded value until released; this
// matches the "lookup may be used concurrently with a removal"
// invariant applied to updates as well.
func (c *DeviceCache) Update(d *models.Device) {
	c.Insert(d)
}

// PopulateFromList clears the cache and inserts every device in ds,
// the bulk-load operation bring-up's LOADING state uses.
func (c *DeviceCache) PopulateFromList(ds []*models.Device) {
	c.mu.Lock()
	c.byID = make(map[string]*deviceEntry, len(ds))
	c.byName = make(map[string]*deviceEntry, len(ds))
	c.mu.Unlock()
	for _, d := range ds {
		c.Insert(d)
	}
}

// RemoveByID unlinks the device with the given id and blocks until any
// handle acquired before the unlink has been released.
func (c *DeviceCache) RemoveByID(id string) bool {
	c.mu.Lock()
	e, ok := c.byID[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.byID, id)
	delete(c.byName, e.device.Name)
	c.mu.Unlock()

	e.waitForDrain()
	return true
}

// ForName returns a reference-counted handle to the device named
// name. The caller must call Release on the returned handle.
func (c *DeviceCache) ForName(name string) (*DeviceHandle, bool) {
	c.mu.RLock()
	e, ok := c.byName[name]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.acquire(), true
}

// ForID returns a reference-counted handle to the device with the
// given id.
func (c *DeviceCache) ForID(id string) (*DeviceHandle, bool) {
	c.mu.RLock()
	e, ok := c.byID[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.acquire(), true
}

// Clear removes every device, blocking until all outstanding handles
// drain. Used at shutdown.
func (c *DeviceCache) Clear() {
	c.mu.Lock()
	entries := make([]*deviceEntry, 0, len(c.byID))
	for _, e := range c.byID {
		entries = append(entries, e)
	}
	c.byID = make(map[string]*deviceEntry)
	c.byName = make(map[string]*deviceEntry)
	c.mu.Unlock()

	for _, e := range entries {
		e.waitForDrain()
	}
}

// All returns a point-in-time snapshot of every device, sorted by name
// for deterministic iteration.
func (c *DeviceCache) All() []*models.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.Device, 0, len(c.byID))
	for _, e := range c.byID {
		out = append(out, e.device)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len reports the number of devices currently indexed.
func (c *DeviceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
