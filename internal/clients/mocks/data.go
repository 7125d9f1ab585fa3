// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

type DataClient struct {
	mock.Mock
}

func (m *DataClient) AddEvent(ctx context.Context, event *models.CookedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
