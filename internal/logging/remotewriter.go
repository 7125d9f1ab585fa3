// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"
)

// RemoteWriter adapts the Logging client's REST endpoint to an
// io.Writer so zap can tee log lines to it exactly like any other
// sink. Each Write is a best-effort fire-and-forget POST: a down
// logging service must never block or fail application log calls.
type RemoteWriter struct {
	URL    string
	Client *http.Client
}

// NewRemoteWriter builds a RemoteWriter against url using a pooled
// client from go-cleanhttp rather than the zero-value http.Client.
func NewRemoteWriter(url string) *RemoteWriter {
	return &RemoteWriter{URL: url, Client: cleanhttp.DefaultPooledClient()}
}

func (w *RemoteWriter) Write(p []byte) (int, error) {
	if w.URL == "" {
		return len(p), nil
	}
	body := make([]byte, len(p))
	copy(body, p)
	go func() {
		req, err := http.NewRequest(http.MethodPost, w.URL, bytes.NewReader(body))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := w.Client.Do(req)
		if err != nil {
			return
		}
		resp.Body.Close()
	}()
	return len(p), nil
}
