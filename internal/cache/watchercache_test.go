// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

func TestWatcherCacheReplaceAndAll(t *testing.T) {
	c := NewWatcherCache()
	assert.Empty(t, c.All())

	c.Replace([]models.ProvisionWatcher{
		{Id: "1", Name: "watcher1"},
		{Id: "2", Name: "watcher2"},
	})

	all := c.All()
	assert.Len(t, all, 2)
}

func TestWatcherCacheAllReturnsIndependentSnapshot(t *testing.T) {
	c := NewWatcherCache()
	c.Replace([]models.ProvisionWatcher{{Id: "1", Name: "watcher1"}})

	all := c.All()
	all[0].Name = "mutated"

	fresh := c.All()
	assert.Equal(t, "watcher1", fresh[0].Name)
}

func TestWatcherCacheMatchFirstFindsMatchingWatcher(t *testing.T) {
	c := NewWatcherCache()
	c.Replace([]models.ProvisionWatcher{
		{Id: "1", Name: "watcher1", Identifiers: map[string]string{"mac": "aa:bb"}},
		{Id: "2", Name: "watcher2", Identifiers: map[string]string{"mac": "cc:dd"}},
	})

	w, ok := c.MatchFirst(map[string]string{"mac": "cc:dd"})
	assert.True(t, ok)
	assert.Equal(t, "watcher2", w.Name)
}

func TestWatcherCacheMatchFirstReturnsFalseWhenNoneMatch(t *testing.T) {
	c := NewWatcherCache()
	c.Replace([]models.ProvisionWatcher{
		{Id: "1", Name: "watcher1", Identifiers: map[string]string{"mac": "aa:bb"}},
	})

	_, ok := c.MatchFirst(map[string]string{"mac": "ff:ff"})
	assert.False(t, ok)
}

func TestWatcherCacheMatchFirstRejectsWatcherWithNoIdentifiers(t *testing.T) {
	c := NewWatcherCache()
	c.Replace([]models.ProvisionWatcher{
		{Id: "1", Name: "bare"},
	})

	_, ok := c.MatchFirst(map[string]string{"mac": "aa:bb"})
	assert.False(t, ok)
}

func TestWatcherCacheReplaceDiscardsPreviousContents(t *testing.T) {
	c := NewWatcherCache()
	c.Replace([]models.ProvisionWatcher{{Id: "1", Name: "watcher1"}})
	c.Replace([]models.ProvisionWatcher{{Id: "2", Name: "watcher2"}})

	all := c.All()
	assert.Len(t, all, 1)
	assert.Equal(t, "watcher2", all[0].Name)
}
