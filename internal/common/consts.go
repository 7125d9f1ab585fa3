// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package common

const (
	ClientData     = "Data"
	ClientMetadata = "Metadata"
	ClientLogging  = "Logging"
	ClientRegistry = "Registry"

	APIv1Prefix = "/api/v1"

	APIPingRoute      = APIv1Prefix + "/ping"
	APIVersionRoute   = "/api/version"
	APIDiscoveryRoute = APIv1Prefix + "/discovery"
	APIDeviceRoute    = APIv1Prefix + "/device"
	APICallbackRoute  = APIv1Prefix + "/callback"
	APIConfigRoute    = APIv1Prefix + "/config"
	APIMetricsRoute   = APIv1Prefix + "/metrics"

	CorrelationHeader = "X-Correlation-ID"

	ConfigDirectory = "./res"
	ConfigFileName  = "configuration.toml"

	// SDKVersion identifies this core against the teacher's SDK_VERSION
	// constant, reported alongside the service's own version at
	// /api/version.
	SDKVersion = "1.0.0"

	// DefaultWorkerPoolSize matches the teacher's dependency fan-out
	// count, repurposed here as the fixed worker pool size (§4.3).
	DefaultWorkerPoolSize = 8

	// DefaultRegistryRetryCount and DefaultRegistryRetryWait are the
	// §4.9 resolver defaults used when the corresponding environment
	// variables are unset or unparsable.
	DefaultRegistryRetryCount = 5
	DefaultRegistryRetryWait  = 1 // seconds

	EnvRegistryURL        = "edgex_registry"
	EnvRegistryRetryCount = "edgex_registry_retry_count"
	EnvRegistryRetryWait  = "edgex_registry_retry_wait"
)
