// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Circutor S.A.
//
// SPDX-License-Identifier: Apache-2.0

package models

// ProtocolProperties is the flat NVList of properties under one
// protocol name, e.g. the "tcp" properties of a Modbus device.
type ProtocolProperties = NVList

// ProtocolEntry pairs a protocol name with its properties, preserving
// the insertion order of a ProtocolPropertiesList the same way NVPair
// preserves order inside NVList.
type ProtocolEntry struct {
	Protocol   string
	Properties *ProtocolProperties
}

// ProtocolPropertiesList is an ordered sequence of (protocol-name,
// properties) pairs. A device's protocol configuration may describe
// more than one transport (e.g. both "tcp" and "serial" fallbacks),
// so this mirrors NVList's shape one level up.
type ProtocolPropertiesList struct {
	entries []ProtocolEntry
}

// NewProtocolPropertiesList returns an empty list.
func NewProtocolPropertiesList() *ProtocolPropertiesList {
	return &ProtocolPropertiesList{}
}

// Prepend adds a (protocol, properties) entry to the front of the list.
func (l *ProtocolPropertiesList) Prepend(protocol string, props *ProtocolProperties) *ProtocolPropertiesList {
	l.entries = append([]ProtocolEntry{{Protocol: protocol, Properties: props}}, l.entries...)
	return l
}

// Append adds a (protocol, properties) entry to the end of the list.
func (l *ProtocolPropertiesList) Append(protocol string, props *ProtocolProperties) *ProtocolPropertiesList {
	l.entries = append(l.entries, ProtocolEntry{Protocol: protocol, Properties: props})
	return l
}

// Find returns the properties registered for protocol, or nil.
func (l *ProtocolPropertiesList) Find(protocol string) *ProtocolProperties {
	for _, e := range l.entries {
		if e.Protocol == protocol {
			return e.Properties
		}
	}
	return nil
}

// All returns the entries in list order.
func (l *ProtocolPropertiesList) All() []ProtocolEntry {
	out := make([]ProtocolEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of protocol entries.
func (l *ProtocolPropertiesList) Len() int {
	return len(l.entries)
}

// Dup returns a structural copy: a fresh list, fresh per-protocol
// property lists, independent of l.
func (l *ProtocolPropertiesList) Dup() *ProtocolPropertiesList {
	d := &ProtocolPropertiesList{entries: make([]ProtocolEntry, len(l.entries))}
	for i, e := range l.entries {
		d.entries[i] = ProtocolEntry{Protocol: e.Protocol, Properties: e.Properties.Dup()}
	}
	return d
}

// Equal reports whether l and other cover the same protocol names with
// set-equal properties for each, order-insensitive.
func (l *ProtocolPropertiesList) Equal(other *ProtocolPropertiesList) bool {
	if other == nil || l.Len() != other.Len() {
		return false
	}
	seen := make(map[string]bool, l.Len())
	for _, e := range l.entries {
		if seen[e.Protocol] {
			continue
		}
		seen[e.Protocol] = true
		op := other.Find(e.Protocol)
		if op == nil || !e.Properties.Equal(op) {
			return false
		}
	}
	return true
}
