// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package handler implements the bodies of the HTTP Control Surface's
// callback and operational endpoints. Profile upload, discovery,
// device-command and metrics handler bodies beyond the callback and
// dispatch scaffolding here are driver/transport concerns the core
// registers but does not define, per spec.md §1.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/circutor-labs/device-service-core/internal/cache"
	"github.com/circutor-labs/device-service-core/internal/clients"
	"github.com/circutor-labs/device-service-core/internal/common"
)

// AutoEventManager is the subset of internal/autoevent.Manager the
// callback handler drives on device add/update/delete, kept as an
// interface so this package never imports internal/autoevent directly
// (autoevent already imports internal/cache; this avoids a cycle
// risk if autoevent ever needs handler-level helpers).
type AutoEventManager interface {
	RestartForDevice(deviceName string)
	StopForDevice(deviceName string)
}

// CallbackAlert is the metadata callback payload: which entity changed
// and how.
type CallbackAlert struct {
	Id         string `json:"id"`
	ActionType string `json:"type"`
}

const (
	actionDevice  = "DEVICE"
	actionProfile = "PROFILE"
)

// CallbackHandler reacts to metadata's create/update/delete
// notifications for devices and profiles, adapted from the teacher's
// internal/handler/callback/callback.go.
type CallbackHandler struct {
	Meta       clients.MetadataClient
	Devices    *cache.DeviceCache
	Profiles   *cache.ProfileCache
	AutoEvents AutoEventManager
	Logger     *zap.SugaredLogger
}

// ServeHTTP implements http.Handler so internal/rest can register this
// directly.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var alert CallbackAlert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		h.Logger.Errorf("callback: invalid request body: %v", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	appErr := h.Handle(alert, r.Method)
	if appErr != nil {
		http.Error(w, appErr.Error(), appErr.Code())
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Handle runs the callback dispatch, kept separate from ServeHTTP so
// tests can drive it without an http.Request.
func (h *CallbackHandler) Handle(alert CallbackAlert, method string) common.AppError {
	if alert.Id == "" || alert.ActionType == "" {
		h.Logger.Error("callback: missing parameters")
		return common.NewBadRequestError("missing callback parameters", nil)
	}

	switch alert.ActionType {
	case actionDevice:
		return h.handleDevice(method, alert.Id)
	case actionProfile:
		return h.handleProfile(method, alert.Id)
	default:
		h.Logger.Errorf("callback: invalid action type %s", alert.ActionType)
		return common.NewBadRequestError("invalid callback action type", nil)
	}
}

func correlatedContext() context.Context {
	return context.WithValue(context.Background(), common.CorrelationHeader, uuid.New().String())
}

func (h *CallbackHandler) handleDevice(method, id string) common.AppError {
	ctx := correlatedContext()

	switch method {
	case http.MethodPost, http.MethodPut:
		device, err := h.Meta.GetDevice(ctx, id)
		if err != nil {
			h.Logger.Errorf("callback: cannot find device %s in metadata: %v", id, err)
			return common.NewBadRequestError(err.Error(), err)
		}

		if device.Profile != nil {
			if _, exists := h.Profiles.ForName(device.Profile.Name); !exists {
				if err := h.Profiles.Add(device.Profile); err != nil {
					h.Logger.Errorf("callback: could not add device profile %s: %v", device.Profile.Name, err)
					return common.NewServerError(err.Error(), err)
				}
				h.Logger.Infof("callback: added device profile %s", device.Profile.Name)
			}
		}

		if method == http.MethodPost {
			h.Devices.Insert(device)
			h.Logger.Infof("callback: added device %s", device.Name)
		} else {
			h.Devices.Update(device)
			h.Logger.Infof("callback: updated device %s", device.Name)
		}
		h.AutoEvents.RestartForDevice(device.Name)

	case http.MethodDelete:
		if dh, ok := h.Devices.ForID(id); ok {
			name := dh.Device.Name
			dh.Release()
			h.AutoEvents.StopForDevice(name)
		}
		if !h.Devices.RemoveByID(id) {
			h.Logger.Warnf("callback: device %s already absent from cache", id)
		} else {
			h.Logger.Infof("callback: removed device %s", id)
		}

	default:
		h.Logger.Errorf("callback: invalid device method %s", method)
		return common.NewBadRequestError("invalid device method", nil)
	}
	return nil
}

func (h *CallbackHandler) handleProfile(method, id string) common.AppError {
	if method != http.MethodPut {
		h.Logger.Errorf("callback: invalid device profile method %s", method)
		return common.NewBadRequestError("invalid device profile method", nil)
	}

	ctx := correlatedContext()
	profile, err := h.Meta.GetDeviceProfile(ctx, id)
	if err != nil {
		h.Logger.Errorf("callback: cannot find device profile %s in metadata: %v", id, err)
		return common.NewBadRequestError(err.Error(), err)
	}

	if err := h.Profiles.Update(profile); err != nil {
		h.Logger.Errorf("callback: could not update device profile %s: %v", profile.Name, err)
		return common.NewServerError(err.Error(), err)
	}
	h.Logger.Infof("callback: updated device profile %s", profile.Name)
	return nil
}
