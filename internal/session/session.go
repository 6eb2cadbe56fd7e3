package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/comigor/darshini/internal/dialogue"
	"github.com/qmuntal/stateless"
)

// Call states
const (
	StateListening  = "Listening"
	StateResponding = "Responding"
	StateClosed     = "Closed" // terminal: swept or removed
)

// Call triggers
const (
	triggerGreet     = "Greet"
	triggerSilence   = "Silence"
	triggerUtterance = "Utterance"
	triggerReplied   = "Replied"
	triggerClose     = "Close"
)

// CallSession is the conversation state of one call.
// mu serializes every event for the call; history is only touched while it is held.
type CallSession struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	history    *dialogue.History
	fsm        *stateless.StateMachine
	lastActive atomic.Int64
}

func newCallSession(id string, history *dialogue.History, now time.Time) *CallSession {
	s := &CallSession{
		ID:        id,
		CreatedAt: now,
		history:   history,
		fsm:       stateless.NewStateMachine(StateListening),
	}

	// Listening: waiting for the recognizer to post speech.
	s.fsm.Configure(StateListening).
		PermitReentry(triggerGreet).
		PermitReentry(triggerSilence).
		Permit(triggerUtterance, StateResponding).
		Permit(triggerClose, StateClosed)

	// Responding: the dialogue engine is producing a reply.
	s.fsm.Configure(StateResponding).
		Permit(triggerReplied, StateListening).
		Permit(triggerClose, StateClosed)

	// Closed accepts nothing; any event maps to ErrSessionNotFound.
	s.fsm.Configure(StateClosed)

	s.touch(now)
	return s
}

// State returns the current call state.
func (s *CallSession) State() string {
	st, _ := s.fsm.MustState().(string)
	return st
}

// LastActive returns the time of the last event handled for the call.
func (s *CallSession) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *CallSession) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

// fire must be called with mu held.
func (s *CallSession) fire(trigger string) error {
	if err := s.fsm.Fire(trigger); err != nil {
		if s.State() == StateClosed {
			return ErrSessionNotFound
		}
		return fmt.Errorf("call %s: %w", s.ID, err)
	}
	return nil
}

// HistoryLen returns the number of recorded turns. It waits for any in-flight event.
func (s *CallSession) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len()
}

// Turns returns a copy of the recorded turns. It waits for any in-flight event.
func (s *CallSession) Turns() []dialogue.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Turns()
}
