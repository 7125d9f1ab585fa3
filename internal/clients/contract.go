// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package clients declares the north-bound REST contracts the
// Lifecycle Engine consumes (§4.5, §4.6) and provides one concrete
// JSON-over-HTTP implementation of each, using go-mod-core-contracts's
// models types as the wire format. The core only ever depends on the
// interfaces in this file. The implementations make no retries.
package clients

import (
	"context"

	pkgerrors "github.com/pkg/errors"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

// MetadataClient is the §4.5 contract.
type MetadataClient interface {
	GetDeviceService(ctx context.Context, name string) (*models.DeviceService, error)
	GetAddressable(ctx context.Context, name string) (*models.Addressable, error)
	CreateAddressable(ctx context.Context, addr models.Addressable) (string, error)
	UpdateAddressable(ctx context.Context, addr models.Addressable) error
	CreateDeviceService(ctx context.Context, ds models.DeviceService) (string, error)
	GetDevices(ctx context.Context, serviceName string) ([]models.Device, error)
	GetWatchers(ctx context.Context, serviceName string) ([]models.ProvisionWatcher, error)
	GetDevice(ctx context.Context, id string) (*models.Device, error)
	GetDeviceProfile(ctx context.Context, id string) (*models.DeviceProfile, error)
	CreateDeviceProfile(ctx context.Context, p models.DeviceProfile) (string, error)
	CreateDevice(ctx context.Context, d models.Device) (string, error)
}

// DataClient is the §4.6 contract. The core treats the cooked event as
// opaque: it allocates it, hands it here, and frees it after AddEvent
// returns regardless of outcome.
type DataClient interface {
	AddEvent(ctx context.Context, event *models.CookedEvent) error
}

// ErrNotFound is returned by MetadataClient lookups when the named
// entity does not exist, distinguishing "absent" from "transport
// failure" the way bring-up's addressable/device-service branch needs
// to.
var ErrNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "not found" }

// IsNotFound reports whether err wraps ErrNotFound, the way
// reconcileDeviceService distinguishes "no such record yet" from a
// transport failure.
func IsNotFound(err error) bool {
	return pkgerrors.Cause(err) == ErrNotFound
}
