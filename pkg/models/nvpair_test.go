// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 Circutor S.A.
//
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNVListAppendPrependPreserveOrder(t *testing.T) {
	l := NewNVList()
	l.Append("a", "1")
	l.Append("b", "2")
	l.Prepend("z", "0")

	all := l.All()
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, "z", all[0].Name)
	assert.Equal(t, "a", all[1].Name)
	assert.Equal(t, "b", all[2].Name)
}

func TestNVListFindReturnsFirstMatch(t *testing.T) {
	l := NewNVList()
	l.Append("key", "first")
	l.Append("key", "second")

	v, ok := l.Find("key")
	assert.True(t, ok)
	assert.Equal(t, "first", v)

	_, ok = l.Find("missing")
	assert.False(t, ok)
}

func TestNVListAllReturnsIndependentCopy(t *testing.T) {
	l := NewNVList()
	l.Append("a", "1")

	all := l.All()
	all[0].Value = "mutated"

	v, _ := l.Find("a")
	assert.Equal(t, "1", v)
}

func TestNVListDupEqualsOriginal(t *testing.T) {
	l := NewNVList()
	l.Append("host", "localhost")
	l.Append("port", "502")

	d := l.Dup()
	assert.True(t, l.Equal(d))
	assert.True(t, d.Equal(l))

	d.Append("extra", "x")
	assert.False(t, l.Equal(d))
}

func TestNVListDupIsIndependentOfOriginal(t *testing.T) {
	l := NewNVList()
	l.Append("host", "localhost")

	d := l.Dup()
	d.Append("port", "502")

	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 2, d.Len())
}

func TestNVListEqualIsOrderInsensitive(t *testing.T) {
	a := NewNVList()
	a.Append("host", "localhost")
	a.Append("port", "502")

	b := NewNVList()
	b.Append("port", "502")
	b.Append("host", "localhost")

	assert.True(t, a.Equal(b))
}

func TestNVListEqualIsSensitiveToValues(t *testing.T) {
	a := NewNVList()
	a.Append("port", "502")

	b := NewNVList()
	b.Append("port", "503")

	assert.False(t, a.Equal(b))
}

func TestNVListEqualIsSensitiveToKeySet(t *testing.T) {
	a := NewNVList()
	a.Append("port", "502")

	b := NewNVList()
	b.Append("timeout", "502")

	assert.False(t, a.Equal(b))
}

func TestNVListEqualRejectsNilOther(t *testing.T) {
	a := NewNVList()
	a.Append("port", "502")

	assert.False(t, a.Equal(nil))
}

func TestNVListParseIntStrict(t *testing.T) {
	l := NewNVList()
	l.Append("port", "502")
	l.Append("bad", "502x")

	var v int64
	assert.True(t, l.ParseInt("port", &v))
	assert.Equal(t, int64(502), v)

	assert.False(t, l.ParseInt("bad", &v))
	assert.False(t, l.ParseInt("missing", &v))
}

func TestNVListParseUintStrict(t *testing.T) {
	l := NewNVList()
	l.Append("slave", "17")
	l.Append("negative", "-1")

	var v uint64
	assert.True(t, l.ParseUint("slave", &v))
	assert.Equal(t, uint64(17), v)

	assert.False(t, l.ParseUint("negative", &v))
}

func TestNVListParseFloatStrict(t *testing.T) {
	l := NewNVList()
	l.Append("scale", "0.5")
	l.Append("bad", "0.5mm")

	var v float64
	assert.True(t, l.ParseFloat("scale", &v))
	assert.Equal(t, 0.5, v)

	assert.False(t, l.ParseFloat("bad", &v))
}

func TestNVListParseLeavesOutUntouchedOnFailure(t *testing.T) {
	l := NewNVList()
	l.Append("bad", "notanumber")

	v := int64(42)
	assert.False(t, l.ParseInt("bad", &v))
	assert.Equal(t, int64(42), v)
}
