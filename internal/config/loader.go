// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package config holds the local TOML loader and the §4.9
// Configuration Resolver that turns a loaded file plus CLI/environment
// input into the effective common.Config.
package config

import (
	"fmt"
	"io/ioutil"
	"path"
	"path/filepath"

	"github.com/pelletier/go-toml"

	"github.com/circutor-labs/device-service-core/internal/common"
)

// LoadConfig reads the local TOML configuration file from confDir
// (defaulting to common.ConfigDirectory) and decodes it into a fresh
// common.Config.
func LoadConfig(confDir string) (config *common.Config, err error) {
	if len(confDir) == 0 {
		confDir = common.ConfigDirectory
	}

	p := path.Join(confDir, common.ConfigFileName)
	absPath, err := filepath.Abs(p)
	if err != nil {
		return nil, fmt.Errorf("could not create absolute path to load configuration: %s: %v", p, err)
	}

	// go-toml panics on some malformed inputs rather than returning an
	// error; recover and surface it the same way as a parse error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("could not load configuration file; invalid TOML (%s): %v", absPath, r)
		}
	}()

	contents, err := ioutil.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("could not load configuration file (%s): %v", absPath, err)
	}

	config = &common.Config{}
	if err := toml.Unmarshal(contents, config); err != nil {
		return nil, fmt.Errorf("unable to parse configuration file (%s): %v", absPath, err)
	}

	return config, nil
}
