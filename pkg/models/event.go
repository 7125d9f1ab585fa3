// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Circutor S.A.
//
// SPDX-License-Identifier: Apache-2.0

package models

// Reading is one resource value captured at a point in time, the
// input to the cooked-event transform.
type Reading struct {
	Name     string
	Value    string
	ValueType string
	Origin   int64
}

// Event groups the readings produced by a single command or autoevent
// firing against one device.
type Event struct {
	Device   string
	Origin   int64
	Readings []Reading
}

// CookedEvent is a serialized event payload ready to hand to the Data
// client. It is opaque to everything except the Data client itself:
// the core allocates it, submits it to the worker pool, and frees it
// once posted.
type CookedEvent struct {
	DeviceName string
	Payload    []byte
	ContentType string
}
