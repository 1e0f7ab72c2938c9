// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nydas-ai/nydasbot/services/backend/datatypes"
)

// fakeClock is a manually advanced clock for TTL tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStore_GetOrCreate_Lazy(t *testing.T) {
	st := NewStore(nil)
	assert.Equal(t, 0, st.Len())

	s := st.GetOrCreate("alpha")
	require.NotNil(t, s)
	assert.Equal(t, "alpha", s.ID)
	assert.Equal(t, 1, st.Len())

	again := st.GetOrCreate("alpha")
	assert.Same(t, s, again, "same id returns the same session")
	assert.Equal(t, 1, st.Len())
}

func TestStore_GetOrCreate_Concurrent(t *testing.T) {
	st := NewStore(nil)
	const goroutines = 32

	sessions := make([]*Session, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = st.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, st.Len())
	for i := 1; i < goroutines; i++ {
		assert.Same(t, sessions[0], sessions[i])
	}
}

func TestSession_AppendTurn_PairsAreAtomic(t *testing.T) {
	st := NewStore(nil)
	s := st.GetOrCreate("s1")

	s.AppendTurn("What is Go?", "A programming language.")
	s.AppendTurn("Who made it?", "Google.")

	history := s.History()
	require.Len(t, history, 4)
	assert.Equal(t, datatypes.RoleHuman, history[0].Role)
	assert.Equal(t, "What is Go?", history[0].Content)
	assert.Equal(t, datatypes.RoleAssistant, history[1].Role)
	assert.Equal(t, datatypes.RoleHuman, history[2].Role)
	assert.Equal(t, datatypes.RoleAssistant, history[3].Role)
}

func TestSession_History_IsSnapshot(t *testing.T) {
	st := NewStore(nil)
	s := st.GetOrCreate("s1")
	s.AppendTurn("q", "a")

	snap := s.History()
	snap[0].Content = "mutated"

	assert.Equal(t, "q", s.History()[0].Content)
}

// TestSession_TurnLock_SerializesTurns drives two goroutines through the
// same session and checks the second turn only starts after the first
// commits.
func TestSession_TurnLock_SerializesTurns(t *testing.T) {
	st := NewStore(nil)
	s := st.GetOrCreate("s1")

	firstInFlight := make(chan struct{})
	releaseFirst := make(chan struct{})
	var order []string
	var orderMu sync.Mutex

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Lock()
		defer s.Unlock()
		close(firstInFlight)
		<-releaseFirst
		s.AppendTurn("first", "one")
		orderMu.Lock()
		order = append(order, "first")
		orderMu.Unlock()
	}()
	go func() {
		defer wg.Done()
		<-firstInFlight
		s.Lock()
		defer s.Unlock()
		s.AppendTurn("second", "two")
		orderMu.Lock()
		order = append(order, "second")
		orderMu.Unlock()
	}()

	time.Sleep(20 * time.Millisecond)
	close(releaseFirst)
	wg.Wait()

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 4, s.Len())
}

func TestStore_Delete(t *testing.T) {
	st := NewStore(nil)
	st.GetOrCreate("s1")

	assert.True(t, st.Delete("s1"))
	assert.False(t, st.Delete("s1"), "second delete reports missing")
	assert.Equal(t, 0, st.Len())
}

func TestStore_List(t *testing.T) {
	clock := newFakeClock()
	st := NewStore(clock)
	st.GetOrCreate("beta").AppendTurn("q", "a")
	st.GetOrCreate("alpha")

	infos := st.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].ID)
	assert.Equal(t, 0, infos[0].Turns)
	assert.Equal(t, "beta", infos[1].ID)
	assert.Equal(t, 1, infos[1].Turns)
}

func TestStore_SweepExpired(t *testing.T) {
	clock := newFakeClock()
	st := NewStore(clock)

	st.GetOrCreate("old")
	clock.Advance(45 * time.Minute)
	st.GetOrCreate("fresh")

	evicted := st.SweepExpired(30 * time.Minute)
	assert.Equal(t, 1, evicted)
	_, ok := st.Get("old")
	assert.False(t, ok)
	_, ok = st.Get("fresh")
	assert.True(t, ok)
}

func TestStore_SweepExpired_ZeroTTLIsUnbounded(t *testing.T) {
	clock := newFakeClock()
	st := NewStore(clock)
	st.GetOrCreate("s1")
	clock.Advance(1000 * time.Hour)

	assert.Equal(t, 0, st.SweepExpired(0))
	assert.Equal(t, 1, st.Len())
}

func TestStore_SweepExpired_SkipsBusySession(t *testing.T) {
	clock := newFakeClock()
	st := NewStore(clock)
	s := st.GetOrCreate("busy")
	clock.Advance(time.Hour)

	s.Lock()
	assert.Equal(t, 0, st.SweepExpired(30*time.Minute), "mid-turn session survives the sweep")
	s.Unlock()

	assert.Equal(t, 1, st.SweepExpired(30*time.Minute))
}

func TestSession_AppendTurn_RefreshesLastActive(t *testing.T) {
	clock := newFakeClock()
	st := NewStore(clock)
	s := st.GetOrCreate("s1")

	created := s.LastActive()
	clock.Advance(10 * time.Minute)
	s.AppendTurn("q", "a")

	assert.True(t, s.LastActive().After(created))
}
