// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/circutor-labs/device-service-core/internal/common"
	"github.com/circutor-labs/device-service-core/internal/discovery"
)

// NewPingHandler answers liveness checks with the plain-text service
// version, the same handler the teacher's control handler wired to
// /api/v1/ping.
func NewPingHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(version))
	}
}

// VersionResponse is the /api/version payload.
type VersionResponse struct {
	Version    string `json:"version"`
	SdkVersion string `json:"sdk_version"`
}

// NewVersionHandler answers with the fixed service version string
// supplied at bootstrap alongside the SDK's own version.
func NewVersionHandler(version, sdkVersion string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, VersionResponse{Version: version, SdkVersion: sdkVersion})
	}
}

// NewConfigHandler answers /api/v1/config with the effective,
// writable-merged configuration currently in force.
func NewConfigHandler(cfg func() *common.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cfg())
	}
}

// NewDiscoveryHandler triggers a discovery run in the background and
// answers 202 Accepted immediately; discovery.Runner's mutex already
// serializes overlapping requests, so the handler itself stays
// stateless. The request body, if present, carries pre-seeded results
// for drivers that report discoveries out of band (used by tests and
// by drivers without a push-style async discovery channel).
func NewDiscoveryHandler(runner *discovery.Runner, lc *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var found []discovery.Found
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&found); err != nil {
				http.Error(w, "invalid discovery payload", http.StatusBadRequest)
				return
			}
		}

		go func() {
			if err := runner.Run(r.Context(), found); err != nil {
				lc.Errorf("discovery: run failed: %v", err)
			}
		}()
		w.WriteHeader(http.StatusAccepted)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
