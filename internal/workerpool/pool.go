// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2018 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package workerpool implements the Worker Pool (§4.3): a fixed-size
// set of workers consuming a submitted-work queue, used for
// asynchronous event posting and config-watch dispatch.
package workerpool

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// WorkItem is a unit of submitted work: a function and its argument,
// matching spec.md's "pairs of (function, argument)" phrasing. Go
// closures make the argument implicit, so WorkItem is simply the
// function to run.
type WorkItem func()

// Pool is the fixed-size Worker Pool. Submission is non-blocking: a
// submitted item is handed to a free worker goroutine, bounded to
// Size concurrent in-flight items by a semaphore rather than a
// hand-rolled counting channel.
type Pool struct {
	size int
	sem  *semaphore.Weighted
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New returns a pool sized to size (default 8 per spec.md §4.3 when
// size <= 0).
func New(size int) *Pool {
	if size <= 0 {
		size = 8
	}
	return &Pool{size: size, sem: semaphore.NewWeighted(int64(size))}
}

// Submit runs item on a pool worker. Submission itself never blocks
// the caller waiting for a worker to be free; the bounded acquire
// happens in the spawned goroutine, not here.
func (p *Pool) Submit(item WorkItem) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)
		item()
	}()
}

// Drain blocks until every submitted item that was accepted before the
// call has completed. No ordering between items is guaranteed, per
// spec.md §5.
func (p *Pool) Drain() {
	p.wg.Wait()
}

// Close marks the pool closed (no further Submit calls are accepted)
// and drains it, the sequence spec.md §4.10 STOPPING requires: "drain
// worker pool (waits for in-flight event posts)".
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.Drain()
}

// Size reports the configured worker count.
func (p *Pool) Size() int {
	return p.size
}
