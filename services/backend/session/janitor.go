// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Janitor sweeps idle sessions out of a Store at a fixed interval.
//
// # Description
//
// Started only when a session TTL is configured. Uses the ticker plus
// done channel pattern for graceful shutdown. Sessions with a turn in
// flight are never evicted mid-turn; they are picked up again on the
// next sweep once idle past the TTL.
//
// # Thread Safety
//
// All public methods are safe for concurrent use.
type Janitor struct {
	store    *Store
	ttl      time.Duration
	interval time.Duration

	mu      sync.Mutex
	done    chan struct{}
	running bool
}

// NewJanitor creates a janitor for the store. ttl and interval must both
// be positive.
func NewJanitor(store *Store, ttl, interval time.Duration) (*Janitor, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session TTL must be positive, got %s", ttl)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	return &Janitor{
		store:    store,
		ttl:      ttl,
		interval: interval,
		done:     make(chan struct{}),
	}, nil
}

// Start launches the background sweep loop. Returns an error if the
// janitor is already running.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return fmt.Errorf("janitor is already running")
	}
	j.running = true
	j.done = make(chan struct{})
	j.mu.Unlock()

	slog.Info("Session janitor starting",
		"ttl", j.ttl.String(),
		"interval", j.interval.String(),
	)
	go j.runLoop(ctx)
	return nil
}

// Stop signals the sweep loop to exit. Safe to call multiple times.
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.running {
		return
	}
	slog.Info("Session janitor stopping")
	close(j.done)
	j.running = false
}

// RunNow performs one sweep immediately and returns the eviction count.
func (j *Janitor) RunNow() int {
	return j.store.SweepExpired(j.ttl)
}

func (j *Janitor) runLoop(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Session janitor stopped by context")
			return
		case <-j.done:
			return
		case <-ticker.C:
			if evicted := j.store.SweepExpired(j.ttl); evicted > 0 {
				slog.Info("Session sweep complete", "evicted", evicted, "remaining", j.store.Len())
			}
		}
	}
}
