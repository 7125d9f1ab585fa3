// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package data implements the cooked-event pipeline and post_readings
// (§4.10 steady state, §8 property 5). Generalizes the teacher's
// internal/handler/control.go:TransformHandler stub (which just
// echoes its input) into the gated transform spec.md describes.
package data

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

// Transform turns driver-produced command values into an Event. When
// enabled is false (config.device.datatransform off), readings carry
// the raw formatted value untouched. When true, each formatted value
// is looked up in its resource operation's Mappings table and
// substituted if a translation exists, e.g. a Modbus coil's "true"
// becoming "Unlocked" — the same raw-to-enum substitution
// ResourceOperation.Mappings exists to carry.
func Transform(deviceName string, values []*models.CommandValue, enabled bool) *models.Event {
	now := time.Now().UnixNano() / int64(time.Millisecond)
	ev := &models.Event{Device: deviceName, Origin: now}
	for _, v := range values {
		if v == nil {
			continue
		}
		ev.Readings = append(ev.Readings, toReading(v, now, enabled))
	}
	return ev
}

func toReading(v *models.CommandValue, origin int64, enabled bool) models.Reading {
	r := models.Reading{Name: v.RO.Object, ValueType: string(v.Type), Origin: origin}
	switch v.Type {
	case models.ValueTypeBool:
		r.Value = strconv.FormatBool(v.BoolResult)
	case models.ValueTypeInt:
		r.Value = strconv.FormatInt(v.IntResult, 10)
	case models.ValueTypeFloat:
		r.Value = strconv.FormatFloat(v.FloatResult, 'f', -1, 64)
	default:
		r.Value = v.StringResult
	}
	if enabled {
		if mapped, ok := v.RO.Mappings[r.Value]; ok {
			r.Value = mapped
		}
	}
	return r
}

// Cook serializes ev into a CookedEvent ready for the Data client. The
// core treats the resulting payload as opaque once produced.
func Cook(ev *models.Event) (*models.CookedEvent, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return &models.CookedEvent{
		DeviceName:  ev.Device,
		Payload:     payload,
		ContentType: "application/json",
	}, nil
}
