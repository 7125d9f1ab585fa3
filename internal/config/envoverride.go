// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"strings"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

// applyEnvOverrides resolves spec.md §9's edgex_device_overrideConfig
// open question: any environment variable named `DEVICE_<Flat.Key>` or
// `EDGEX_<Flat.Key>` (dots replaced by underscores, upper-cased;
// DEVICE_ wins when both are set) is prepended to list as a pair of
// the same name, so it shadows the file's value both for Find and for
// the upload to the registry on first run.
func applyEnvOverrides(list *models.NVList) {
	for _, p := range list.All() {
		envKey := strings.ToUpper(strings.ReplaceAll(p.Name, ".", "_"))
		for _, prefix := range []string{"DEVICE_", "EDGEX_"} {
			if v, ok := os.LookupEnv(prefix + envKey); ok {
				list.Prepend(p.Name, v)
				break
			}
		}
	}
}
