// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Circutor S.A.
//
// SPDX-License-Identifier: Apache-2.0

package models

// ProvisionWatcher is a rule fetched from metadata describing which
// discovered devices should be auto-admitted into a profile.
type ProvisionWatcher struct {
	Id             string
	Name           string
	ProfileName    string
	Identifiers    map[string]string // protocol-match rules
	Blocking       bool
}

// Matches reports whether the discovered protocol properties satisfy
// every identifier rule this watcher declares. An empty rule set never
// matches: a watcher with no identifiers cannot claim a device.
func (w *ProvisionWatcher) Matches(discovered map[string]string) bool {
	if len(w.Identifiers) == 0 {
		return false
	}
	for k, v := range w.Identifiers {
		if discovered[k] != v {
			return false
		}
	}
	return true
}
