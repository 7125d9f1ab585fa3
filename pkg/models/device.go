// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Circutor S.A.
//
// SPDX-License-Identifier: Apache-2.0

package models

// AutoEvent is a device-owned schedule describing when the service
// should read one of its resources without an explicit command.
type AutoEvent struct {
	Resource  string
	Frequency string // duration string, e.g. "30s", fed to the scheduler
	OnChange  bool
}

// Device is one south-bound endpoint managed by this service. Every
// device in the device map has a resolved Profile; callers obtain a
// Device through the device cache's reference-counted handle so a
// lookup may be held safely across a concurrent removal.
type Device struct {
	Id         string
	Name       string
	AdminState AdminState
	OperState  OperatingState
	Protocols  *ProtocolPropertiesList
	Profile    *DeviceProfile
	AutoEvents []AutoEvent
	Labels     []string
}
