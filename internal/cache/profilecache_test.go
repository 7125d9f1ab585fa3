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

func TestProfileCacheAddAndForName(t *testing.T) {
	c := NewProfileCache()
	assert.NoError(t, c.Add(&models.DeviceProfile{Id: "1", Name: "ProfileA"}))

	p, ok := c.ForName("ProfileA")
	assert.True(t, ok)
	assert.Equal(t, "1", p.Id)

	_, ok = c.ForName("missing")
	assert.False(t, ok)
}

func TestProfileCacheAddRejectsDuplicateName(t *testing.T) {
	c := NewProfileCache()
	assert.NoError(t, c.Add(&models.DeviceProfile{Id: "1", Name: "ProfileA"}))

	err := c.Add(&models.DeviceProfile{Id: "2", Name: "ProfileA"})
	assert.Error(t, err)

	p, ok := c.ForName("ProfileA")
	assert.True(t, ok)
	assert.Equal(t, "1", p.Id, "duplicate add must not overwrite the existing entry")
}

func TestProfileCacheUpdateInsertsWhenAbsent(t *testing.T) {
	c := NewProfileCache()
	assert.NoError(t, c.Update(&models.DeviceProfile{Id: "1", Name: "ProfileA"}))

	p, ok := c.ForName("ProfileA")
	assert.True(t, ok)
	assert.Equal(t, "1", p.Id)
}

func TestProfileCacheUpdateReplacesExisting(t *testing.T) {
	c := NewProfileCache()
	assert.NoError(t, c.Add(&models.DeviceProfile{Id: "1", Name: "ProfileA"}))
	assert.NoError(t, c.Update(&models.DeviceProfile{Id: "2", Name: "ProfileA"}))

	p, ok := c.ForName("ProfileA")
	assert.True(t, ok)
	assert.Equal(t, "2", p.Id)
}

func TestProfileCacheRemove(t *testing.T) {
	c := NewProfileCache()
	assert.NoError(t, c.Add(&models.DeviceProfile{Id: "1", Name: "ProfileA"}))

	c.Remove("ProfileA")
	_, ok := c.ForName("ProfileA")
	assert.False(t, ok)

	c.Remove("missing")
}

func TestProfileCacheAllReturnsEveryEntry(t *testing.T) {
	c := NewProfileCache()
	assert.NoError(t, c.Add(&models.DeviceProfile{Id: "1", Name: "ProfileA"}))
	assert.NoError(t, c.Add(&models.DeviceProfile{Id: "2", Name: "ProfileB"}))

	all := c.All()
	assert.Len(t, all, 2)
}
