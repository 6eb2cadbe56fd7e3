package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/comigor/darshini/internal/dialogue"
	"github.com/comigor/darshini/internal/logger"
)

// Table maps call identifiers to live sessions. The table lock is only held
// for lookups and inserts; long work happens under each session's own lock,
// so events for different calls never wait on each other.
type Table struct {
	mu       sync.RWMutex
	sessions map[string]*CallSession
	now      func() time.Time
}

// SessionInfo is a point-in-time view of one session for the admin surface.
type SessionInfo struct {
	CallSID    string    `json:"call_sid"`
	State      string    `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// NewTable creates an empty session table.
func NewTable() *Table {
	return &Table{
		sessions: make(map[string]*CallSession),
		now:      time.Now,
	}
}

// GetOrCreate returns the session for id, creating it with newHistory when absent.
// The bool reports whether the session was created by this call.
func (t *Table) GetOrCreate(id string, newHistory func() *dialogue.History) (*CallSession, bool) {
	t.mu.RLock()
	s, ok := t.sessions[id]
	t.mu.RUnlock()
	if ok {
		return s, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[id]; ok {
		return s, false
	}
	s = newCallSession(id, newHistory(), t.now())
	t.sessions[id] = s
	return s, true
}

// Get returns the session for id.
func (t *Table) Get(id string) (*CallSession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	return s, ok
}

// Remove closes and drops the session for id, waiting for any in-flight event.
func (t *Table) Remove(id string) bool {
	t.mu.Lock()
	s, ok := t.sessions[id]
	if ok {
		delete(t.sessions, id)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}

	s.mu.Lock()
	_ = s.fire(triggerClose)
	s.mu.Unlock()
	return true
}

// Len returns the number of live sessions.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// Snapshot lists live sessions ordered by creation time.
func (t *Table) Snapshot() []SessionInfo {
	t.mu.RLock()
	out := make([]SessionInfo, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, SessionInfo{
			CallSID:    s.ID,
			State:      s.State(),
			CreatedAt:  s.CreatedAt,
			LastActive: s.LastActive(),
		})
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Sweep closes and removes sessions idle for longer than idle.
// Sessions busy with an event are left for the next sweep.
func (t *Table) Sweep(now time.Time, idle time.Duration) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var expired []string
	for id, s := range t.sessions {
		if now.Sub(s.LastActive()) <= idle {
			continue
		}
		if !s.mu.TryLock() {
			continue
		}
		_ = s.fire(triggerClose)
		s.mu.Unlock()
		delete(t.sessions, id)
		expired = append(expired, id)
	}
	sort.Strings(expired)
	return expired
}

// RunSweeper sweeps every interval until ctx is done, calling onExpire for each removed call.
func (t *Table) RunSweeper(ctx context.Context, interval, idle time.Duration, onExpire func(callSID string)) {
	if interval <= 0 || idle <= 0 {
		logger.L.Warn("session sweeper disabled", "interval", interval, "idle_timeout", idle)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired := t.Sweep(t.now(), idle)
			if len(expired) == 0 {
				continue
			}
			logger.L.Info("expired idle sessions", "count", len(expired), "remaining", t.Len())
			if onExpire != nil {
				for _, id := range expired {
					onExpire(id)
				}
			}
		}
	}
}
