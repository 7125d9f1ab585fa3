// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Circutor S.A.
//
// SPDX-License-Identifier: Apache-2.0

// This package provides a host-statistics example of a device service.
package main

import (
	system "github.com/circutor-labs/device-service-core/example/device-system"
	"github.com/circutor-labs/device-service-core/pkg/startup"
)

const (
	version     string = "0.1"
	serviceName string = "device-system"
)

func main() {
	sd := system.SystemDriver{}
	startup.Bootstrap(serviceName, version, &sd)
}
