// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("testdata")
	assert.NoError(t, err)

	assert.Equal(t, 49990, cfg.Service.Port)
	assert.Equal(t, 3, cfg.Service.ConnectRetries)

	assert.Equal(t, "localhost", cfg.Clients["Metadata"].Host)
	assert.Equal(t, 48081, cfg.Clients["Metadata"].Port)
	assert.Equal(t, "http://localhost:48081", cfg.Clients["Metadata"].Url())

	assert.True(t, cfg.Device.DataTransform)
	assert.Equal(t, "tcp", cfg.Driver["Protocol"])

	if assert.Len(t, cfg.DeviceList, 1) {
		d := cfg.DeviceList[0]
		assert.Equal(t, "dev1", d.Name)
		assert.Equal(t, "TestProfile", d.Profile)
		assert.Equal(t, "10.0.0.1", d.Protocols["ModbusTCP"]["Host"])
		if assert.Len(t, d.AutoEvents, 1) {
			assert.Equal(t, "Temperature", d.AutoEvents[0].Resource)
			assert.Equal(t, "10s", d.AutoEvents[0].Frequency)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("./does-not-exist")
	assert.Error(t, err)
}
