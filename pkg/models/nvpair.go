// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Circutor S.A.
//
// SPDX-License-Identifier: Apache-2.0

// Package models holds the wire-independent value types shared by the
// device service core: name/value pairs, protocol properties, devices,
// profiles, watchers and the driver contract.
package models

import "strconv"

// NVPair is a single (name, value) string pair. Both fields must be
// non-empty for the pair to be considered well-formed; callers that
// build pairs by hand are responsible for that invariant.
type NVPair struct {
	Name  string
	Value string
}

// NVList is an ordered sequence of NVPair, preserving insertion order.
// Lookups are linear; lists produced by configuration loading are
// small (tens of entries), so this trades lookup speed for the
// ordered-duplication semantics spec'd for configuration snapshots.
type NVList struct {
	pairs []NVPair
}

// NewNVList returns an empty list.
func NewNVList() *NVList {
	return &NVList{}
}

// Prepend adds (name, value) to the front of the list and returns the
// receiver so calls can be chained the way a construct-by-prepending
// list is built up.
func (l *NVList) Prepend(name, value string) *NVList {
	l.pairs = append([]NVPair{{Name: name, Value: value}}, l.pairs...)
	return l
}

// Append adds (name, value) to the end of the list.
func (l *NVList) Append(name, value string) *NVList {
	l.pairs = append(l.pairs, NVPair{Name: name, Value: value})
	return l
}

// Find returns the value for name, or ("", false) if absent. The first
// match wins when a name appears more than once.
func (l *NVList) Find(name string) (string, bool) {
	for _, p := range l.pairs {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// All returns the pairs in list order. The returned slice is owned by
// the caller; mutating it does not affect the list.
func (l *NVList) All() []NVPair {
	out := make([]NVPair, len(l.pairs))
	copy(out, l.pairs)
	return out
}

// Len reports the number of pairs.
func (l *NVList) Len() int {
	return len(l.pairs)
}

// ParseInt looks up name and parses its value as a signed integer.
// Parsing is strict: any trailing non-numeric character or range error
// is a failure, and out is left untouched on failure.
func (l *NVList) ParseInt(name string, out *int64) bool {
	v, ok := l.Find(name)
	if !ok {
		return false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return false
	}
	*out = n
	return true
}

// ParseUint parses name's value as an unsigned integer under the same
// strict rules as ParseInt.
func (l *NVList) ParseUint(name string, out *uint64) bool {
	v, ok := l.Find(name)
	if !ok {
		return false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return false
	}
	*out = n
	return true
}

// ParseFloat parses name's value as a float64 under the same strict
// rules as ParseInt.
func (l *NVList) ParseFloat(name string, out *float64) bool {
	v, ok := l.Find(name)
	if !ok {
		return false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return false
	}
	*out = f
	return true
}

// Dup returns a structural copy; mutating the copy never affects l.
func (l *NVList) Dup() *NVList {
	d := &NVList{pairs: make([]NVPair, len(l.pairs))}
	copy(d.pairs, l.pairs)
	return d
}

// Equal reports whether l and other have the same key set with equal
// values for each key. Order does not matter; a repeated key compares
// against its first occurrence, matching Find's lookup semantics.
func (l *NVList) Equal(other *NVList) bool {
	if other == nil {
		return false
	}
	if l.Len() != other.Len() {
		return false
	}
	seen := make(map[string]bool, l.Len())
	for _, p := range l.pairs {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		v, ok := other.Find(p.Name)
		if !ok || v != p.Value {
			return false
		}
	}
	return true
}
