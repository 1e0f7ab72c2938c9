// Copyright (C) 2026 Nydas AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package session holds per-conversation chat histories in memory.
//
// The store is unbounded by default. When a TTL is configured, a Janitor
// sweeps idle sessions in the background; without one, sessions live for
// the lifetime of the process.
package session

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nydas-ai/nydasbot/services/backend/datatypes"
)

// Session is one conversation's history plus the lock that serializes
// turns against it.
//
// # Thread Safety
//
// Callers processing a turn must hold the session lock via Lock/Unlock
// for the whole turn. History and AppendTurn take an internal lock of
// their own, so admin reads never block behind an in-flight turn.
type Session struct {
	ID string

	// turnMu serializes whole turns. A second message for the same
	// session waits here until the previous turn commits or fails.
	turnMu sync.Mutex

	mu         sync.RWMutex
	messages   []datatypes.Message
	lastActive time.Time

	clock Clock
}

// Lock acquires the per-session turn lock.
func (s *Session) Lock() { s.turnMu.Lock() }

// Unlock releases the per-session turn lock.
func (s *Session) Unlock() { s.turnMu.Unlock() }

// History returns a snapshot copy of the conversation so far. Mutating
// the returned slice does not affect the stored history.
func (s *Session) History() []datatypes.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]datatypes.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of stored messages.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// LastActive returns the time of the most recent committed turn, or the
// creation time if no turn has committed yet.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// AppendTurn commits one exchange as a (human, assistant) pair. The two
// messages land atomically so no observer ever sees a dangling human
// message without its answer.
func (s *Session) AppendTurn(input, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages,
		datatypes.HumanMessage(input),
		datatypes.AssistantMessage(answer),
	)
	s.lastActive = s.clock.Now()
}

// Info is a read-only summary of a session for the admin endpoints.
type Info struct {
	ID         string    `json:"session_id"`
	Turns      int       `json:"turns"`
	LastActive time.Time `json:"last_active"`
}

// Store maps session IDs to live sessions, creating them lazily.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	clock    Clock
}

// NewStore creates an empty store. Pass SystemClock() outside of tests.
func NewStore(clock Clock) *Store {
	if clock == nil {
		clock = SystemClock()
	}
	return &Store{
		sessions: make(map[string]*Session),
		clock:    clock,
	}
}

// GetOrCreate returns the session for id, creating it on first use.
// Concurrent calls with the same id observe the same session.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s := &Session{
		ID:         id,
		clock:      st.clock,
		lastActive: st.clock.Now(),
	}
	st.sessions[id] = s
	slog.Debug("Created session", "session_id", id)
	return s
}

// Get returns the session for id without creating it.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes a session. Returns false if it did not exist.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	slog.Info("Deleted session", "session_id", id)
	return true
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// List returns summaries of all live sessions, sorted by ID.
func (st *Store) List() []Info {
	st.mu.Lock()
	sessions := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	st.mu.Unlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, Info{
			ID:         s.ID,
			Turns:      s.Len() / 2,
			LastActive: s.LastActive(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// SweepExpired removes sessions idle for longer than ttl and returns how
// many were evicted. A session whose turn lock is held is mid-turn and
// is skipped until the next sweep.
func (st *Store) SweepExpired(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := st.clock.Now().Add(-ttl)

	st.mu.Lock()
	defer st.mu.Unlock()
	evicted := 0
	for id, s := range st.sessions {
		if !s.LastActive().Before(cutoff) {
			continue
		}
		if !s.turnMu.TryLock() {
			slog.Debug("Skipping busy session during sweep", "session_id", id)
			continue
		}
		s.turnMu.Unlock()
		delete(st.sessions, id)
		evicted++
		slog.Info("Evicted idle session", "session_id", id, "last_active", s.LastActive())
	}
	return evicted
}
