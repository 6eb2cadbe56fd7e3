// Package calllog keeps a ledger of call lifecycle events in SQLite.
// Only event metadata is stored, never what the caller or the assistant said.
// If opening the DB or a write fails, the ledger keeps working from memory.
package calllog

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/darshini/internal/logger"
)

// Event names one step in a call's life.
type Event string

const (
	EventOriginated     Event = "originated"
	EventStarted        Event = "started"
	EventUtterance      Event = "utterance"
	EventSilence        Event = "silence"
	EventSessionMissing Event = "session_missing"
	EventReplyFailed    Event = "reply_failed"
	EventExpired        Event = "expired"
)

const maxMemoryEntries = 1000

// Entry is one recorded event.
type Entry struct {
	ID        int64     `json:"id"`
	CallSID   string    `json:"call_sid"`
	Event     Event     `json:"event"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Log is the call ledger. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry // in-memory copy, newest last
	nextID  int64

	db  *sql.DB
	now func() time.Time
}

// Open opens the SQLite ledger at path and creates the events table if needed.
// An empty path, or any open failure, yields a memory-only ledger.
func Open(path string) *Log {
	l := &Log{now: time.Now}
	if path == "" {
		logger.L.Info("call log kept in memory only")
		return l
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		logger.L.Warn("sqlite open failed; using in-memory call log", "error", err)
		return l
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY between pooled conns.
	db.SetMaxOpenConns(1)
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS call_events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        call_sid TEXT NOT NULL,
        event TEXT NOT NULL,
        detail TEXT,
        created_at INTEGER NOT NULL
    );`); err != nil {
		logger.L.Warn("sqlite table creation failed; using in-memory call log", "error", err)
		db.Close()
		return l
	}
	logger.L.Info("sqlite call log initialized", "path", path)
	l.db = db
	return l
}

// Persistent reports whether events reach SQLite.
func (l *Log) Persistent() bool { return l.db != nil }

// Record stores an event. It never fails the caller: write errors are logged
// and the in-memory copy is always kept.
func (l *Log) Record(callSID string, event Event, detail string) {
	e := Entry{CallSID: callSID, Event: event, Detail: detail, CreatedAt: l.now().UTC()}

	if l.db != nil {
		res, err := l.db.Exec(`INSERT INTO call_events (call_sid, event, detail, created_at) VALUES (?,?,?,?);`,
			e.CallSID, string(e.Event), e.Detail, e.CreatedAt.UnixNano())
		if err != nil {
			logger.L.Error("failed to store call event in sqlite; falling back to memory", "error", err)
		} else if id, err := res.LastInsertId(); err == nil {
			e.ID = id
		}
	}

	l.mu.Lock()
	if e.ID == 0 {
		l.nextID++
		e.ID = l.nextID
	}
	l.entries = append(l.entries, e)
	if len(l.entries) > maxMemoryEntries {
		l.entries = append([]Entry(nil), l.entries[len(l.entries)-maxMemoryEntries:]...)
	}
	l.mu.Unlock()
}

// Recent returns up to limit events, newest first.
func (l *Log) Recent(limit int) []Entry {
	if limit <= 0 {
		limit = 50
	}
	if l.db != nil {
		out, err := l.recentFromDB(limit)
		if err == nil {
			return out
		}
		logger.L.Warn("sqlite read failed; serving call log from memory", "error", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, 0, min(limit, len(l.entries)))
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// ForCall returns every event of one call in chronological order.
func (l *Log) ForCall(callSID string) []Entry {
	if l.db != nil {
		rows, err := l.db.Query(`SELECT id, call_sid, event, detail, created_at FROM call_events WHERE call_sid = ? ORDER BY id ASC;`, callSID)
		if err == nil {
			defer rows.Close()
			if out, err := scanEntries(rows); err == nil {
				return out
			}
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if e.CallSID == callSID {
			out = append(out, e)
		}
	}
	return out
}

// Close closes the database, if any.
func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Log) recentFromDB(limit int) ([]Entry, error) {
	rows, err := l.db.Query(`SELECT id, call_sid, event, detail, created_at FROM call_events ORDER BY id DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	out := []Entry{}
	for rows.Next() {
		var (
			e      Entry
			event  string
			detail sql.NullString
			nanos  int64
		)
		if err := rows.Scan(&e.ID, &e.CallSID, &event, &detail, &nanos); err != nil {
			return nil, err
		}
		e.Event = Event(event)
		e.Detail = detail.String
		e.CreatedAt = time.Unix(0, nanos).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
