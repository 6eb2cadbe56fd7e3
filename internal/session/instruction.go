package session

import "errors"

var (
	// ErrSessionNotFound is reported for speech on a call that has no live session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEmptyUtterance is reported when the recognizer produced no usable text.
	ErrEmptyUtterance = errors.New("empty utterance")
)

// Kind is the closed set of things the voice layer can be told to do next.
type Kind string

const (
	KindListen          Kind = "listen"
	KindSpeakThenListen Kind = "speak-then-listen"
	KindSpeakThenHangup Kind = "speak-then-hangup"
)

// ErrorCode tags instructions produced by a recoverable protocol error.
type ErrorCode string

const (
	CodeNone            ErrorCode = ""
	CodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	CodeEmptyUtterance  ErrorCode = "EMPTY_UTTERANCE"
)

// Err maps the code back to its sentinel error, nil for CodeNone.
func (c ErrorCode) Err() error {
	switch c {
	case CodeSessionNotFound:
		return ErrSessionNotFound
	case CodeEmptyUtterance:
		return ErrEmptyUtterance
	}
	return nil
}

// Instruction is the next step for the voice layer.
type Instruction struct {
	Kind Kind
	Text string
	Code ErrorCode
}

// KeepsCallAlive reports whether the instruction ends in listening again.
func (i Instruction) KeepsCallAlive() bool {
	return i.Kind != KindSpeakThenHangup
}
