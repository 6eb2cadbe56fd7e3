package dialogue

import (
	"errors"
	"fmt"
)

// DefaultMaxTurns bounds a history when no explicit cap is configured.
const DefaultMaxTurns = 21

// ErrSystemTurnPosition is returned when a system turn is appended anywhere but index 0.
var ErrSystemTurnPosition = errors.New("system turn must be the first and only system turn")

// Role attributes a turn to one side of the conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Turn is one immutable entry in a conversation.
type Turn struct {
	Role    Role
	Content string
}

// History is the ordered, capped sequence of turns for one call.
// It is not safe for concurrent use; the owning session serializes access.
type History struct {
	turns    []Turn
	maxTurns int
}

// NewHistory returns an empty history capped at maxTurns (DefaultMaxTurns when < 2).
func NewHistory(maxTurns int) *History {
	if maxTurns < 2 {
		maxTurns = DefaultMaxTurns
	}
	return &History{maxTurns: maxTurns}
}

// Len returns the number of turns currently held.
func (h *History) Len() int { return len(h.turns) }

// Empty reports whether no turn has been recorded yet.
func (h *History) Empty() bool { return len(h.turns) == 0 }

// MaxTurns returns the cap.
func (h *History) MaxTurns() int { return h.maxTurns }

// Turns returns a copy of the turns in order.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Append records a turn and re-applies the cap.
func (h *History) Append(role Role, content string) error {
	if !role.valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	if role == RoleSystem && len(h.turns) > 0 {
		return ErrSystemTurnPosition
	}
	h.turns = append(h.turns, Turn{Role: role, Content: content})
	h.truncate()
	return nil
}

// truncate keeps turn 0 plus the most recent maxTurns-1 turns.
func (h *History) truncate() {
	if len(h.turns) <= h.maxTurns {
		return
	}
	kept := make([]Turn, 0, h.maxTurns)
	kept = append(kept, h.turns[0])
	kept = append(kept, h.turns[len(h.turns)-(h.maxTurns-1):]...)
	h.turns = kept
}
