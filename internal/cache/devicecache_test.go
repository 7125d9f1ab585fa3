// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

func TestDeviceCacheForNameAndInsert(t *testing.T) {
	c := NewDeviceCache()
	c.Insert(&models.Device{Id: "1", Name: "dev1"})

	h, ok := c.ForName("dev1")
	assert.True(t, ok)
	assert.Equal(t, "1", h.Device.Id)
	h.Release()

	_, ok = c.ForName("missing")
	assert.False(t, ok)
}

func TestDeviceCacheRemoveByIDBlocksUntilHandlesReleased(t *testing.T) {
	c := NewDeviceCache()
	c.Insert(&models.Device{Id: "1", Name: "dev1"})

	h, ok := c.ForName("dev1")
	assert.True(t, ok)

	done := make(chan bool)
	go func() {
		done <- c.RemoveByID("1")
	}()

	select {
	case <-done:
		t.Fatal("RemoveByID returned before the outstanding handle was released")
	case <-time.After(50 * time.Millisecond):
	}

	h.Release()

	select {
	case removed := <-done:
		assert.True(t, removed)
	case <-time.After(time.Second):
		t.Fatal("RemoveByID never completed after handle release")
	}

	_, ok = c.ForName("dev1")
	assert.False(t, ok)
}

func TestDeviceCachePopulateFromListReplacesContents(t *testing.T) {
	c := NewDeviceCache()
	c.Insert(&models.Device{Id: "1", Name: "stale"})

	c.PopulateFromList([]*models.Device{
		{Id: "2", Name: "dev2"},
		{Id: "3", Name: "dev3"},
	})

	assert.Equal(t, 2, c.Len())
	_, ok := c.ForName("stale")
	assert.False(t, ok)
}

func TestDeviceCacheAllIsSortedByName(t *testing.T) {
	c := NewDeviceCache()
	c.Insert(&models.Device{Id: "2", Name: "bravo"})
	c.Insert(&models.Device{Id: "1", Name: "alpha"})

	all := c.All()
	assert.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "bravo", all[1].Name)
}

func TestDeviceCacheClearDrainsOutstandingHandles(t *testing.T) {
	c := NewDeviceCache()
	c.Insert(&models.Device{Id: "1", Name: "dev1"})
	h, _ := c.ForName("dev1")

	done := make(chan struct{})
	go func() {
		c.Clear()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Clear returned before the outstanding handle was released")
	case <-time.After(50 * time.Millisecond):
	}

	h.Release()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Clear never completed after handle release")
	}
	assert.Equal(t, 0, c.Len())
}
