// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

// ProtocolDriver is a testify mock of models.ProtocolDriver.
type ProtocolDriver struct {
	mock.Mock
}

func (m *ProtocolDriver) DisconnectDevice(deviceName string, protocols *models.ProtocolPropertiesList) error {
	args := m.Called(deviceName, protocols)
	return args.Error(0)
}

func (m *ProtocolDriver) Initialize(lc *zap.SugaredLogger, asyncCh chan<- *models.AsyncValues) error {
	args := m.Called(lc, asyncCh)
	return args.Error(0)
}

func (m *ProtocolDriver) HandleReadCommands(deviceName string, protocols *models.ProtocolPropertiesList, reqs []models.CommandRequest) ([]*models.CommandValue, error) {
	args := m.Called(deviceName, protocols, reqs)
	v, _ := args.Get(0).([]*models.CommandValue)
	return v, args.Error(1)
}

func (m *ProtocolDriver) HandleWriteCommands(deviceName string, protocols *models.ProtocolPropertiesList, reqs []models.CommandRequest, params []*models.CommandValue) error {
	args := m.Called(deviceName, protocols, reqs, params)
	return args.Error(0)
}

func (m *ProtocolDriver) Stop(force bool) error {
	args := m.Called(force)
	return args.Error(0)
}

func (m *ProtocolDriver) Discover() error {
	args := m.Called()
	return args.Error(0)
}
