// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2017-2018 Canonical Ltd
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package rest is the HTTP Control Surface (§6), hosted on
// gorilla/mux exactly as the teacher's top-level Service type
// (update.go) used a *mux.Router field and HandleFunc to register its
// callback route.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Server wraps the fixed HTTP control surface. Every route is
// registered before Start is called, so gorilla/mux never sees a
// HandleFunc call race against a live ServeHTTP; internal/device gates
// the routes that must wait for driver init behind a readiness check
// in the handler itself rather than by registering them late.
type Server struct {
	router *mux.Router
	http   *http.Server
}

// New builds an unstarted Server bound to addr (host:port).
func New(addr string) *Server {
	r := mux.NewRouter()
	return &Server{
		router: r,
		http: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// RegisterCallback installs the metadata callback route. Called once,
// before configured-device processing.
func (s *Server) RegisterCallback(h http.HandlerFunc) {
	s.router.HandleFunc("/api/v1/callback", h).Methods(http.MethodPut, http.MethodPost, http.MethodDelete)
}

// RegisterPing installs the ping route. Grouped with the remaining
// handlers per spec.md's ordering table; the handler passed in decides
// what ping answers before driver init.
func (s *Server) RegisterPing(h http.HandlerFunc) {
	s.router.HandleFunc("/api/v1/ping", h).Methods(http.MethodGet)
}

// RegisterVersion installs the version route.
func (s *Server) RegisterVersion(h http.HandlerFunc) {
	s.router.HandleFunc("/api/version", h).Methods(http.MethodGet)
}

// RegisterDiscovery installs the discovery route.
func (s *Server) RegisterDiscovery(h http.HandlerFunc) {
	s.router.HandleFunc("/api/v1/discovery", h).Methods(http.MethodPost)
}

// RegisterDevice installs the device command route.
func (s *Server) RegisterDevice(h http.HandlerFunc) {
	s.router.PathPrefix("/api/v1/device").HandlerFunc(h).Methods(http.MethodGet, http.MethodPut, http.MethodPost)
}

// RegisterConfig installs the config route.
func (s *Server) RegisterConfig(h http.HandlerFunc) {
	s.router.HandleFunc("/api/v1/config", h).Methods(http.MethodGet)
}

// RegisterMetrics installs the metrics route.
func (s *Server) RegisterMetrics(h http.Handler) {
	s.router.Handle("/api/v1/metrics", h).Methods(http.MethodGet)
}

// Start begins accepting connections. Returns once the listener is
// closed (by Stop) or fails for another reason.
func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop stops accepting new connections. In-flight handler completion
// is left to net/http's own graceful-shutdown behavior, matching
// spec.md §4.10 STOPPING's "stops accepting new handler invocations;
// in-flight handler completion is server-defined".
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
