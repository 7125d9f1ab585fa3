// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Circutor S.A.
//
// SPDX-License-Identifier: Apache-2.0

// This package provides a Modbus example of a device service.
package main

import (
	"github.com/circutor-labs/device-service-core/example/device-modbus"
	"github.com/circutor-labs/device-service-core/pkg/startup"
)

const (
	version     string = "0.1"
	serviceName string = "device-modbus"
)

func main() {
	md := modbus.ModbusDriver{}
	startup.Bootstrap(serviceName, version, &md)
}
