// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
// Copyright (c) 2019 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package ping implements the Ping Probe (§4.8): a blocking,
// non-cancellable HTTP readiness check used both by the Configuration
// Resolver (registry reachability) and by bring-up (metadata/data
// reachability). Generalized from the per-dependency retry loop
// inlined in the teacher's internal/clients/init.go:checkServiceAvailable
// into a single reusable probe, since both call sites need identical
// retry/delay semantics.
package ping

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// Probe issues an HTTP GET against baseURL+"/api/v1/ping", retrying up
// to retries additional times (N+1 attempts total) with a delay of
// wait between attempts. It returns nil on the first HTTP success (any
// 2xx), or a REMOTE_SERVER_DOWN-flavored error once every attempt has
// failed. Cancellation is not supported per spec.md §4.8: bring-up is
// sequential and this call is meant to block the caller by design.
func Probe(ctx context.Context, baseURL string, retries int, wait time.Duration) error {
	client := cleanhttp.DefaultPooledClient()
	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			time.Sleep(wait)
		}
		lastErr = attemptOnce(ctx, client, baseURL)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("REMOTE_SERVER_DOWN: %s unreachable after %d attempts: %v", baseURL, retries+1, lastErr)
}

func attemptOnce(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/ping", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
