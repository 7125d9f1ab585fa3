// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package scheduler implements the periodic-task runner (§4.4). Task
// registration (autoevents) is performed by internal/autoevent; this
// package only starts, stops and hosts jobs.
package scheduler

import (
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Manager wraps a robfig/cron/v3 instance. The teacher's
// internal/scheduler/manager.go used gopkg.in/robfig/cron.v2's
// identical Start/AddJob/Remove/Stop shape; v3 is used here instead
// because the teacher's go.mod never actually pins the v2 import its
// source references (see DESIGN.md).
type Manager struct {
	lc *zap.SugaredLogger

	mu       sync.Mutex
	cr       *cron.Cron
	entryIDs map[string]cron.EntryID
	started  bool
}

// NewManager returns a stopped Manager logging through lc.
func NewManager(lc *zap.SugaredLogger) *Manager {
	return &Manager{
		lc:       lc,
		cr:       cron.New(cron.WithSeconds()),
		entryIDs: make(map[string]cron.EntryID),
	}
}

// Start begins invoking registered jobs. Idempotent.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.cr.Start()
	m.started = true
	m.lc.Info("scheduler started")
}

// AddJob registers fn under spec (a cron expression), keyed by name so
// it can later be replaced or removed. Replacing an existing name
// removes the old entry first.
func (m *Manager) AddJob(name, spec string, fn func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.entryIDs[name]; ok {
		m.cr.Remove(id)
		delete(m.entryIDs, name)
	}

	id, err := m.cr.AddFunc(spec, fn)
	if err != nil {
		return err
	}
	m.entryIDs[name] = id
	return nil
}

// RemoveJob unregisters the job named name, if any.
func (m *Manager) RemoveJob(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.entryIDs[name]; ok {
		m.cr.Remove(id)
		delete(m.entryIDs, name)
	}
}

// Stop halts job invocation and waits for any in-flight job to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	ctx := m.cr.Stop()
	<-ctx.Done()
	m.started = false
	m.lc.Info("scheduler stopped")
}
