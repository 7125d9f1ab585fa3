// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/circutor-labs/device-service-core/internal/common"
)

func TestResolveWithoutRegistryLoadsFileOnly(t *testing.T) {
	cfg, reg, err := Resolve(context.Background(), Input{
		ServiceName: "device-test",
		ConfDir:     "testdata",
	}, nil, nil)

	assert.NoError(t, err)
	assert.Nil(t, reg)
	assert.Equal(t, 49990, cfg.Service.Port)
}

func TestResolveWithRegistryFlagNotPresentSameAsAbsent(t *testing.T) {
	cfg, reg, err := Resolve(context.Background(), Input{
		ServiceName: "device-test",
		ConfDir:     "testdata",
		Registry:    &RegistryFlag{Present: false},
	}, nil, nil)

	assert.NoError(t, err)
	assert.Nil(t, reg)
	assert.Equal(t, "localhost", cfg.Clients["Data"].Host)
}

func TestConfigToFlatAndApplyFlatConfigRoundTrip(t *testing.T) {
	cfg, err := LoadConfig("testdata")
	assert.NoError(t, err)

	flat := configToFlat(cfg)

	out := &common.Config{}
	applyFlatConfig(out, flat)

	assert.Equal(t, cfg.Service.Host, out.Service.Host)
	assert.Equal(t, cfg.Service.Port, out.Service.Port)
	assert.Equal(t, cfg.Service.ConnectRetries, out.Service.ConnectRetries)
	assert.Equal(t, cfg.Logging.EnableRemote, out.Logging.EnableRemote)
	assert.Equal(t, cfg.Device.DataTransform, out.Device.DataTransform)
}
