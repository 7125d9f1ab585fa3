// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"fmt"
	"sync"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

// ProfileCache indexes device profiles by name. A profile is shared by
// reference from every device and watcher that names it; Go's garbage
// collector retires the value once the last such reference (and the
// cache's own map entry, if removed) drops, which is the natural
// expression of spec.md's "freed only when no device holds it" for a
// language without manual refcounts.
type ProfileCache struct {
	mu   sync.RWMutex
	byName map[string]*models.DeviceProfile
}

// NewProfileCache returns an empty cache.
func NewProfileCache() *ProfileCache {
	return &ProfileCache{byName: make(map[string]*models.DeviceProfile)}
}

// ForName returns the profile named name, or (nil, false).
func (c *ProfileCache) ForName(name string) (*models.DeviceProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byName[name]
	return p, ok
}

// Add inserts p, failing if a profile with that name already exists.
func (c *ProfileCache) Add(p *models.DeviceProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byName[p.Name]; exists {
		return fmt.Errorf("device profile %s already exists in cache", p.Name)
	}
	c.byName[p.Name] = p
	return nil
}

// Update replaces the profile named p.Name, inserting it if absent.
func (c *ProfileCache) Update(p *models.DeviceProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName[p.Name] = p
	return nil
}

// Remove deletes the profile named name.
func (c *ProfileCache) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byName, name)
}

// All returns every cached profile.
func (c *ProfileCache) All() []*models.DeviceProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.DeviceProfile, 0, len(c.byName))
	for _, p := range c.byName {
		out = append(out, p)
	}
	return out
}
