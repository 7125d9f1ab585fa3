// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"sync"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

// WatcherCache is the Watch List: the collection of provision-watcher
// rules fetched from metadata at bring-up. Bring-up failures to fetch
// watchers are logged, not fatal (§4.10), leaving whatever was fetched
// (possibly nothing) in place.
type WatcherCache struct {
	mu       sync.RWMutex
	watchers []models.ProvisionWatcher
}

// NewWatcherCache returns an empty watch list.
func NewWatcherCache() *WatcherCache {
	return &WatcherCache{}
}

// Replace swaps in a freshly fetched watcher list wholesale.
func (c *WatcherCache) Replace(ws []models.ProvisionWatcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers = ws
}

// All returns a snapshot of the current watch list.
func (c *WatcherCache) All() []models.ProvisionWatcher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ProvisionWatcher, len(c.watchers))
	copy(out, c.watchers)
	return out
}

// MatchFirst returns the first watcher whose identifiers match the
// discovered protocol properties, used by internal/discovery to decide
// whether a newly found device should be auto-admitted.
func (c *WatcherCache) MatchFirst(discovered map[string]string) (models.ProvisionWatcher, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, w := range c.watchers {
		if w.Matches(discovered) {
			return w, true
		}
	}
	return models.ProvisionWatcher{}, false
}
