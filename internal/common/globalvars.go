// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package common

import "go.uber.org/zap"

// LoggingClient is the one piece of mutable state kept as a package
// global rather than a field on device.Service: pkg/startup installs
// the configured logger here (logging.Install) before the Service is
// built. Every
// other runtime value the teacher kept as a global (CurrentConfig,
// Driver, the REST clients, the device/profile caches) lives on
// device.Service instead, per spec.md §3's "Service — the root
// entity" data model.
var LoggingClient *zap.SugaredLogger

func init() {
	// A bootstrap default so the variable is never nil before
	// pkg/startup replaces it through logging.Install.
	l, _ := zap.NewProduction()
	LoggingClient = l.Sugar()
}
