// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

func TestApplyEnvOverridesPrefersDeviceThenEdgex(t *testing.T) {
	os.Setenv("DEVICE_SERVICE_PORT", "1111")
	os.Setenv("EDGEX_SERVICE_PORT", "2222")
	os.Setenv("EDGEX_WRITABLE_LOGLEVEL", "DEBUG")
	defer os.Unsetenv("DEVICE_SERVICE_PORT")
	defer os.Unsetenv("EDGEX_SERVICE_PORT")
	defer os.Unsetenv("EDGEX_WRITABLE_LOGLEVEL")

	list := models.NewNVList().
		Append("Service.Port", "49990").
		Append("Writable.LogLevel", "INFO").
		Append("Device.ProfilesDir", "./res/profiles")

	applyEnvOverrides(list)

	v, _ := list.Find("Service.Port")
	assert.Equal(t, "1111", v)

	v, _ = list.Find("Writable.LogLevel")
	assert.Equal(t, "DEBUG", v)

	v, _ = list.Find("Device.ProfilesDir")
	assert.Equal(t, "./res/profiles", v)
}

func TestApplyEnvOverridesLeavesUnmatchedPairsAlone(t *testing.T) {
	list := models.NewNVList().Append("Service.Host", "edge01")
	applyEnvOverrides(list)

	v, ok := list.Find("Service.Host")
	assert.True(t, ok)
	assert.Equal(t, "edge01", v)
}
