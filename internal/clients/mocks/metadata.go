// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package mocks holds testify/mock stand-ins for the north-bound
// clients, so Lifecycle Engine tests can drive bring-up scenarios
// (spec.md §8) without a live metadata/data service.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

type MetadataClient struct {
	mock.Mock
}

func (m *MetadataClient) GetDeviceService(ctx context.Context, name string) (*models.DeviceService, error) {
	args := m.Called(ctx, name)
	ds, _ := args.Get(0).(*models.DeviceService)
	return ds, args.Error(1)
}

func (m *MetadataClient) GetAddressable(ctx context.Context, name string) (*models.Addressable, error) {
	args := m.Called(ctx, name)
	a, _ := args.Get(0).(*models.Addressable)
	return a, args.Error(1)
}

func (m *MetadataClient) CreateAddressable(ctx context.Context, addr models.Addressable) (string, error) {
	args := m.Called(ctx, addr)
	return args.String(0), args.Error(1)
}

func (m *MetadataClient) UpdateAddressable(ctx context.Context, addr models.Addressable) error {
	args := m.Called(ctx, addr)
	return args.Error(0)
}

func (m *MetadataClient) CreateDeviceService(ctx context.Context, ds models.DeviceService) (string, error) {
	args := m.Called(ctx, ds)
	return args.String(0), args.Error(1)
}

func (m *MetadataClient) GetDevices(ctx context.Context, serviceName string) ([]models.Device, error) {
	args := m.Called(ctx, serviceName)
	d, _ := args.Get(0).([]models.Device)
	return d, args.Error(1)
}

func (m *MetadataClient) GetWatchers(ctx context.Context, serviceName string) ([]models.ProvisionWatcher, error) {
	args := m.Called(ctx, serviceName)
	w, _ := args.Get(0).([]models.ProvisionWatcher)
	return w, args.Error(1)
}

func (m *MetadataClient) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.Device)
	return d, args.Error(1)
}

func (m *MetadataClient) GetDeviceProfile(ctx context.Context, id string) (*models.DeviceProfile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.DeviceProfile)
	return p, args.Error(1)
}

func (m *MetadataClient) CreateDeviceProfile(ctx context.Context, p models.DeviceProfile) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *MetadataClient) CreateDevice(ctx context.Context, d models.Device) (string, error) {
	args := m.Called(ctx, d)
	return args.String(0), args.Error(1)
}
