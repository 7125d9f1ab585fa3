// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// This file defines the interface used to build the protocol-specific
// half of a device service. It provides an abstraction layer for the
// device or protocol specific logic, kept deliberately separate from
// the service lifecycle that drives it.
package models

import "go.uber.org/zap"

// ProtocolDriver is a low-level device-specific interface used by the
// Lifecycle Engine to interact with a specific class of devices. The
// driver implementation behind these callbacks is out of scope for the
// core; only the contract lives here.
type ProtocolDriver interface {

	// DisconnectDevice is called when a device is removed from the
	// service, allowing protocol-specific disconnection logic. Drivers
	// that don't need this should just return nil.
	DisconnectDevice(deviceName string, protocols *ProtocolPropertiesList) error

	// Initialize performs protocol-specific bring-up for the driver.
	// The given channel may be used to push asynchronous readings; a
	// driver with no async source may ignore it. A non-nil error return
	// here fails bring-up with DRIVER_UNSTART.
	Initialize(lc *zap.SugaredLogger, asyncCh chan<- *AsyncValues) error

	// HandleReadCommands executes one or more read operations against
	// a single device and returns a value per request, in request
	// order.
	HandleReadCommands(deviceName string, protocols *ProtocolPropertiesList, reqs []CommandRequest) ([]*CommandValue, error)

	// HandleWriteCommands executes one or more write/actuation
	// operations against a single device; params supplies the
	// parameters for each request, in request order.
	HandleWriteCommands(deviceName string, protocols *ProtocolPropertiesList, reqs []CommandRequest, params []*CommandValue) error

	// Stop instructs the driver to shut down gracefully, or
	// immediately if force is true. The driver is responsible for
	// closing any channels it owns, including the async channel.
	Stop(force bool) error

	// Discover triggers protocol-specific device discovery, a
	// synchronous operation. Its return value carries no devices;
	// internal/discovery's Runner.Run receives found devices as its
	// argument, from the discovery request's body.
	Discover() error
}
