// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018-2019 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/circutor-labs/device-service-core/internal/common"
	"github.com/circutor-labs/device-service-core/internal/registry"
	"github.com/circutor-labs/device-service-core/internal/workerpool"
	"github.com/circutor-labs/device-service-core/pkg/models"
)

// RegistryFlag carries the -r/-registry CLI flag's tri-state: absent
// (no registry at all), present-but-empty (discover the URL from the
// TOML file), or present with a URL.
type RegistryFlag struct {
	Present bool
	URL     string
}

// Input is everything the resolver needs beyond environment variables,
// already parsed into service fields per spec.md §4.9.
type Input struct {
	ServiceName  string
	ConfDir      string
	Registry     *RegistryFlag
	RetryCount   int
	RetryWait    time.Duration
	WorkerPool   *workerpool.Pool
}

// Resolve runs the §4.9 Configuration Resolver algorithm and returns
// the fully-populated effective configuration plus a live registry
// client handle (nil if no registry is in play).
func Resolve(ctx context.Context, in Input, onUpdate registry.OnUpdate, stop *int32) (*common.Config, *registry.Client, error) {
	if in.Registry == nil || !in.Registry.Present {
		cfg, err := LoadConfig(in.ConfDir)
		if err != nil {
			return nil, nil, err
		}
		return cfg, nil, nil
	}

	url := in.Registry.URL
	var fileCfg *common.Config
	if url == "" {
		loaded, err := LoadConfig(in.ConfDir)
		if err != nil {
			return nil, nil, err
		}
		fileCfg = loaded
		url = loaded.Registry.URL
	}

	client, err := registry.Get(in.ServiceName, in.ConfDir, url, in.WorkerPool)
	if err != nil {
		return nil, nil, fmt.Errorf("REMOTE_SERVER_DOWN: connect to registry %s: %w", url, err)
	}
	if err := pingRegistry(client, in.RetryCount, in.RetryWait); err != nil {
		return nil, nil, err
	}

	list, err := client.GetConfig(ctx, onUpdate, stop)
	if err != nil {
		return nil, nil, fmt.Errorf("get_config failed: %w", err)
	}

	var cfg *common.Config
	if list != nil {
		cfg = &common.Config{}
		applyFlatConfig(cfg, list)
	} else {
		if fileCfg == nil {
			fileCfg, err = LoadConfig(in.ConfDir)
			if err != nil {
				return nil, nil, err
			}
		}
		cfg = fileCfg
		flat := configToFlat(cfg)
		applyEnvOverrides(flat)
		applyFlatConfig(cfg, flat)
		if err := client.PutConfig(flat); err != nil {
			return nil, nil, fmt.Errorf("put_config failed: %w", err)
		}
	}

	resolveEndpointsViaRegistry(client, cfg)
	cfg.Registry.URL = url

	return cfg, client, nil
}

func pingRegistry(client *registry.Client, retries int, wait time.Duration) error {
	if retries <= 0 {
		retries = common.DefaultRegistryRetryCount
	}
	if wait <= 0 {
		wait = common.DefaultRegistryRetryWait * time.Second
	}
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			time.Sleep(wait)
		}
		if client.Ping() {
			return nil
		}
	}
	return fmt.Errorf("REMOTE_SERVER_DOWN: registry unreachable after %d attempts", retries+1)
}

// resolveEndpointsViaRegistry queries metadata/data/logging endpoints,
// ignoring individual failures per spec.md §4.9 step 6: file-configured
// defaults remain in place when a lookup fails.
func resolveEndpointsViaRegistry(client *registry.Client, cfg *common.Config) {
	if cfg.Clients == nil {
		cfg.Clients = make(map[string]common.ClientInfo)
	}
	for _, name := range []string{common.ClientMetadata, common.ClientData, common.ClientLogging} {
		host, port, err := client.QueryService(name)
		if err != nil {
			continue
		}
		cfg.Clients[name] = common.ClientInfo{Host: host, Port: port}
	}
}

// applyFlatConfig populates the known fields of cfg from a flat
// name-value list, the registry's storage shape for the typed
// configuration record.
func applyFlatConfig(cfg *common.Config, list *models.NVList) {
	get := func(key string) (string, bool) {
		return list.Find(key)
	}

	if v, ok := get("Service.Host"); ok {
		cfg.Service.Host = v
	}
	if v, ok := get("Service.Port"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Service.Port = n
		}
	}
	if v, ok := get("Service.ConnectRetries"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Service.ConnectRetries = n
		}
	}
	if v, ok := get("Service.ConnectTimeout"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Service.ConnectTimeout = n
		}
	}
	if v, ok := get("Service.CheckInterval"); ok {
		cfg.Service.CheckInterval = v
	}
	if v, ok := get("Service.StartupMsg"); ok {
		cfg.Service.StartupMsg = v
	}
	if v, ok := get("Logging.File"); ok {
		cfg.Logging.File = v
	}
	if v, ok := get("Logging.EnableRemote"); ok {
		cfg.Logging.EnableRemote = v == "true"
	}
	if v, ok := get("Writable.LogLevel"); ok {
		cfg.Writable.LogLevel = v
	}
	if v, ok := get("Device.ProfilesDir"); ok {
		cfg.Device.ProfilesDir = v
	}
	if v, ok := get("Device.DataTransform"); ok {
		cfg.Device.DataTransform = v == "true"
	}
}

// configToFlat flattens the fields applyFlatConfig knows how to
// restore, the §4.9 step 5 first-run upload payload.
func configToFlat(cfg *common.Config) *models.NVList {
	list := models.NewNVList()
	list.Append("Service.Host", cfg.Service.Host)
	list.Append("Service.Port", strconv.Itoa(cfg.Service.Port))
	list.Append("Service.ConnectRetries", strconv.Itoa(cfg.Service.ConnectRetries))
	list.Append("Service.ConnectTimeout", strconv.Itoa(cfg.Service.ConnectTimeout))
	list.Append("Service.CheckInterval", cfg.Service.CheckInterval)
	list.Append("Service.StartupMsg", cfg.Service.StartupMsg)
	list.Append("Logging.File", cfg.Logging.File)
	list.Append("Logging.EnableRemote", strconv.FormatBool(cfg.Logging.EnableRemote))
	list.Append("Writable.LogLevel", cfg.Writable.LogLevel)
	list.Append("Device.ProfilesDir", cfg.Device.ProfilesDir)
	list.Append("Device.DataTransform", strconv.FormatBool(cfg.Device.DataTransform))
	return list
}
