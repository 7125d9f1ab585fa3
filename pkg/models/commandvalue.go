// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Circutor S.A.
//
// SPDX-License-Identifier: Apache-2.0

package models

import "time"

// ValueType enumerates the primitive shapes a driver may hand back.
type ValueType string

const (
	ValueTypeBool   ValueType = "Bool"
	ValueTypeInt    ValueType = "Int"
	ValueTypeFloat  ValueType = "Float"
	ValueTypeString ValueType = "String"
)

// CommandValue is one value produced by a read, or consumed by a
// write, against a single device resource.
type CommandValue struct {
	DeviceName string
	RO         ResourceOperation
	Type       ValueType
	BoolResult   bool
	IntResult    int64
	FloatResult  float64
	StringResult string
	Origin       int64
}

// NewCommandValue stamps Origin with the current time, the way every
// driver-produced value is expected to.
func NewCommandValue(deviceName string, ro ResourceOperation, t ValueType) *CommandValue {
	return &CommandValue{
		DeviceName: deviceName,
		RO:         ro,
		Type:       t,
		Origin:     time.Now().UnixNano() / int64(time.Millisecond),
	}
}

// CommandRequest pairs a resource operation with the device object it
// targets, the unit of work HandleReadCommands/HandleWriteCommands
// consume.
type CommandRequest struct {
	RO           ResourceOperation
	DeviceObject DeviceObject
}

// AsyncValues is what a driver pushes onto its async channel to report
// a reading that was not triggered by an explicit command, e.g. a
// sensor push notification.
type AsyncValues struct {
	DeviceName    string
	CommandValues []*CommandValue
}
