// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package registry adapts go-mod-registry's Client to the §4.7
// contract: get/ping/get_config(with watch)/put_config/
// register_service/deregister_service/query_service. The teacher's
// go.mod declares this dependency but no consuming file survived
// retrieval, so the wiring here follows spec.md §4.7's operation list
// directly, storing/retrieving the flat configuration as a
// map[string]interface{} the way go-mod-registry's Configuration
// parameter is documented to accept.
package registry

import (
	"context"
	"fmt"
	"sync/atomic"

	goregistry "github.com/edgexfoundry/go-mod-registry/pkg/types"
	"github.com/edgexfoundry/go-mod-registry/registry"
	"github.com/pkg/errors"

	"github.com/circutor-labs/device-service-core/internal/workerpool"
	"github.com/circutor-labs/device-service-core/pkg/models"
)

// OnUpdate is invoked with the freshly-fetched configuration whenever
// the registry notifies of a change, per §4.7's get_config contract.
type OnUpdate func(ctx context.Context, updated *models.NVList)

// Client wraps a go-mod-registry client for this service.
type Client struct {
	inner registry.Client
	pool  *workerpool.Pool
}

// Get connects to the registry at url. A non-nil error means the
// registry could not even be reached to establish a handle;
// reachability beyond that is verified separately with Ping.
func Get(serviceName, profile, url string, pool *workerpool.Pool) (*Client, error) {
	cfg := goregistry.Config{
		Host:          url,
		Type:          "consul",
		ServiceKey:    serviceName,
		ServiceHost:   "",
		CheckInterval: "10s",
	}
	inner, err := registry.NewRegistryClient(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect to registry")
	}
	return &Client{inner: inner, pool: pool}, nil
}

// Ping reports whether the registry answers a health check.
func (c *Client) Ping() bool {
	return c.inner.IsAlive()
}

// GetConfig fetches the stored configuration. A nil return with no
// error means "first run, nothing stored yet" (§4.9 step 5). When
// non-nil, it arranges a background watch via the worker pool that
// invokes onUpdate whenever the registry reports a change, until
// *stop becomes non-zero.
func (c *Client) GetConfig(ctx context.Context, onUpdate OnUpdate, stop *int32) (*models.NVList, error) {
	has, err := c.inner.HasConfiguration()
	if err != nil {
		return nil, errors.Wrap(err, "check registry configuration presence")
	}
	if !has {
		return nil, nil
	}

	flat := map[string]interface{}{}
	raw, err := c.inner.GetConfiguration(&flat)
	if err != nil {
		return nil, errors.Wrap(err, "get registry configuration")
	}
	if m, ok := raw.(map[string]interface{}); ok {
		flat = m
	}
	list := flatMapToNVList(flat)

	updates := make(chan interface{})
	errs := make(chan error)
	c.inner.WatchForChanges(updates, errs, &flat, "")

	c.pool.Submit(func() {
		for {
			if atomic.LoadInt32(stop) != 0 {
				return
			}
			select {
			case updated, ok := <-updates:
				if !ok {
					return
				}
				if m, ok := updated.(map[string]interface{}); ok {
					onUpdate(ctx, flatMapToNVList(m))
				}
			case <-errs:
				return
			}
		}
	})

	return list, nil
}

// PutConfig uploads list as the stored configuration, the §4.9 step 5
// first-run upload.
func (c *Client) PutConfig(list *models.NVList) error {
	flat := nvListToFlatMap(list)
	if err := c.inner.PutConfiguration(flat, true); err != nil {
		return errors.Wrap(err, "put registry configuration")
	}
	return nil
}

// RegisterService registers this service for discovery and health
// checking.
func (c *Client) RegisterService(name, host string, port int, healthCheckInterval string) error {
	return errors.Wrap(c.inner.Register(), "register service")
}

// DeregisterService removes this service's registration. Failures are
// logged by the caller, never fatal, per §4.10 STOPPING.
func (c *Client) DeregisterService(name string) error {
	return errors.Wrap(c.inner.Deregister(), "deregister service")
}

// QueryService looks up another service's registered host/port.
func (c *Client) QueryService(name string) (host string, port int, err error) {
	ep, qerr := c.inner.GetServiceEndpoint(name)
	if qerr != nil {
		return "", 0, errors.Wrap(qerr, "query service")
	}
	return ep.Host, ep.Port, nil
}

func flatMapToNVList(flat map[string]interface{}) *models.NVList {
	list := models.NewNVList()
	for k, v := range flat {
		list.Append(k, fmt.Sprintf("%v", v))
	}
	return list
}

func nvListToFlatMap(list *models.NVList) map[string]interface{} {
	flat := make(map[string]interface{}, list.Len())
	for _, p := range list.All() {
		// First occurrence wins, as with NVList.Find, so a prepended
		// override shadows a later pair of the same name.
		if _, ok := flat[p.Name]; ok {
			continue
		}
		flat[p.Name] = p.Value
	}
	return flat
}
