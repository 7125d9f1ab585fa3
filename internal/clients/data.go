// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package clients

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"

	"github.com/circutor-labs/device-service-core/pkg/models"
)

// dataClient is the §4.6 Data client: add_event, nothing else. The
// cooked event's payload is already serialized (see internal/data);
// this client's only job is the POST and status-code check.
type dataClient struct {
	baseURL string
	http    *http.Client
}

// NewDataClient builds a data client against baseURL.
func NewDataClient(baseURL string) DataClient {
	return &dataClient{baseURL: baseURL, http: cleanhttp.DefaultPooledClient()}
}

func (c *dataClient) AddEvent(ctx context.Context, event *models.CookedEvent) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/event", bytes.NewReader(event.Payload))
	if err != nil {
		return errors.Wrap(err, "build AddEvent request")
	}
	if event.ContentType != "" {
		req.Header.Set("Content-Type", event.ContentType)
	} else {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "AddEvent")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("AddEvent for device %s failed: status %d", event.DeviceName, resp.StatusCode)
	}
	return nil
}
