package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/comigor/darshini/internal/calllog"
	"github.com/comigor/darshini/internal/config"
	"github.com/comigor/darshini/internal/dialogue"
	"github.com/comigor/darshini/internal/logger"
)

// Responder is the dialogue engine as seen by the controller; it is easy to mock in tests.
type Responder interface {
	Respond(ctx context.Context, utterance string, h *dialogue.History) dialogue.Reply
	NewHistory() *dialogue.History
}

// Recorder receives call lifecycle events.
type Recorder interface {
	Record(callSID string, event calllog.Event, detail string)
}

type nopRecorder struct{}

func (nopRecorder) Record(string, calllog.Event, string) {}

// Controller maps telephony events onto sessions and decides what the voice layer does next.
// Every method returns an Instruction; no failure reachable from a live call escapes as an error.
type Controller struct {
	table    *Table
	engine   Responder
	voice    config.VoiceConfig
	recorder Recorder
	now      func() time.Time
}

// NewController wires the controller. A nil recorder discards events.
func NewController(table *Table, engine Responder, appCfg config.Config, recorder Recorder) *Controller {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Controller{
		table:    table,
		engine:   engine,
		voice:    appCfg.Voice,
		recorder: recorder,
		now:      time.Now,
	}
}

// CallStarted opens (or re-enters) the session for callSID and asks the caller to speak.
func (c *Controller) CallStarted(ctx context.Context, callSID string) Instruction {
	log := logger.FromContext(ctx)
	if callSID == "" {
		log.Warn("call started without a call identifier")
		return c.sessionNotFound()
	}

	// A session swept between lookup and lock is closed; retry once with a fresh one.
	for attempt := 0; attempt < 2; attempt++ {
		s, created := c.table.GetOrCreate(callSID, c.engine.NewHistory)

		s.mu.Lock()
		err := s.fire(triggerGreet)
		if err == nil {
			s.touch(c.now())
		}
		s.mu.Unlock()

		if errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err != nil {
			log.Error("greet transition rejected", "error", err)
		}
		if created {
			log.Info("new conversation started")
			c.recorder.Record(callSID, calllog.EventStarted, "")
		} else {
			log.Info("call re-entered existing conversation")
		}
		return Instruction{Kind: KindListen, Text: c.voice.Greeting}
	}

	log.Error("could not open a session for the call")
	return c.sessionNotFound()
}

// SpeechRecognized handles one recognizer result for callSID.
func (c *Controller) SpeechRecognized(ctx context.Context, callSID, speech string) Instruction {
	log := logger.FromContext(ctx)

	s, ok := c.table.Get(callSID)
	if !ok {
		log.Warn("speech received for an unknown call")
		c.recorder.Record(callSID, calllog.EventSessionMissing, "")
		return c.sessionNotFound()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(speech) == "" {
		if err := s.fire(triggerSilence); err != nil {
			return c.rejected(ctx, callSID, err)
		}
		s.touch(c.now())
		log.Info("nothing heard; prompting again")
		c.recorder.Record(callSID, calllog.EventSilence, "")
		return Instruction{Kind: KindSpeakThenListen, Text: c.voice.NotHeard, Code: CodeEmptyUtterance}
	}

	if err := s.fire(triggerUtterance); err != nil {
		return c.rejected(ctx, callSID, err)
	}
	s.touch(c.now())
	log.Debug("caller said", "speech", speech)

	reply := c.engine.Respond(ctx, speech, s.history)

	if err := s.fire(triggerReplied); err != nil {
		log.Error("replied transition rejected", "error", err)
	}
	s.touch(c.now())

	switch reply.Outcome {
	case dialogue.OutcomeFailed:
		log.Warn("dialogue engine fell back after failure", "error", reply.Err)
		c.recorder.Record(callSID, calllog.EventReplyFailed, reply.Outcome.String())
	default:
		c.recorder.Record(callSID, calllog.EventUtterance, reply.Outcome.String())
	}
	return Instruction{Kind: KindSpeakThenListen, Text: reply.Text}
}

// rejected maps a refused transition to an instruction the caller can hear.
func (c *Controller) rejected(ctx context.Context, callSID string, err error) Instruction {
	if errors.Is(err, ErrSessionNotFound) {
		logger.FromContext(ctx).Warn("speech received for a closed session")
		c.recorder.Record(callSID, calllog.EventSessionMissing, "closed")
		return c.sessionNotFound()
	}
	logger.FromContext(ctx).Error("call transition rejected", "error", err)
	return Instruction{Kind: KindSpeakThenListen, Text: c.voice.NotHeard, Code: CodeEmptyUtterance}
}

func (c *Controller) sessionNotFound() Instruction {
	return Instruction{Kind: KindSpeakThenHangup, Text: c.voice.SessionError, Code: CodeSessionNotFound}
}

// Expire records that the sweeper dropped an idle call.
func (c *Controller) Expire(callSID string) {
	c.recorder.Record(callSID, calllog.EventExpired, "idle")
}

// Sessions exposes the session table for the admin surface.
func (c *Controller) Sessions() []SessionInfo {
	return c.table.Snapshot()
}
