package dialogue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/comigor/darshini/internal/config"
	"github.com/comigor/darshini/internal/llm"
	"github.com/comigor/darshini/internal/logger"
)

var (
	// ErrCompletionFailed wraps any failure opening or consuming the completion stream.
	ErrCompletionFailed = errors.New("completion service failure")
	// ErrEmptyCompletion marks a stream that finished without usable text.
	ErrEmptyCompletion = errors.New("completion produced no text")
)

// Outcome classifies how a reply was produced.
type Outcome int

const (
	OutcomeAnswered Outcome = iota // model text
	OutcomeEmpty                   // stream finished without text; fallback spoken and recorded
	OutcomeFailed                  // stream failed; fallback spoken, not recorded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnswered:
		return "answered"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Reply is the result of one Respond call. Text is always speakable;
// Err is set for OutcomeEmpty and OutcomeFailed.
type Reply struct {
	Text    string
	Outcome Outcome
	Err     error
}

// Engine turns one caller utterance into one assistant utterance.
type Engine struct {
	llmClient    llm.Client
	systemPrompt string
	maxTurns     int
	timeout      time.Duration
	emptyReply   string
	errorReply   string
}

// New creates a dialogue engine. The knowledge base is appended to the persona
// once, here, and reused as the system turn of every new history.
func New(llmClient llm.Client, appCfg config.Config, knowledgeBase string) *Engine {
	persona := appCfg.Assistant.Persona
	if strings.TrimSpace(persona) == "" {
		persona = DefaultPersona
	}
	return &Engine{
		llmClient:    llmClient,
		systemPrompt: SystemPrompt(persona, knowledgeBase),
		maxTurns:     appCfg.Assistant.MaxHistory,
		timeout:      appCfg.LLM.Timeout,
		emptyReply:   appCfg.Assistant.EmptyReply,
		errorReply:   appCfg.Assistant.ErrorReply,
	}
}

// NewHistory returns an empty history capped at the configured length.
func (e *Engine) NewHistory() *History {
	return NewHistory(e.maxTurns)
}

// SystemPrompt returns the content injected as turn 0 of every new history.
func (e *Engine) SystemPrompt() string { return e.systemPrompt }

// Respond appends the utterance to h, streams a completion over the whole
// history and records the assistant reply.
//
// On stream failure the user turn stays recorded, no assistant turn is
// appended and the error fallback is returned. An empty stream records the
// empty-reply fallback as the assistant turn.
func (e *Engine) Respond(ctx context.Context, utterance string, h *History) Reply {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(utterance) == "" {
		return Reply{Text: e.errorReply, Outcome: OutcomeFailed, Err: errors.New("utterance is empty")}
	}

	if h.Empty() {
		if err := h.Append(RoleSystem, e.systemPrompt); err != nil {
			return Reply{Text: e.errorReply, Outcome: OutcomeFailed, Err: err}
		}
	}
	if err := h.Append(RoleUser, utterance); err != nil {
		return Reply{Text: e.errorReply, Outcome: OutcomeFailed, Err: err}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	text, fragments, err := e.complete(ctx, h.Turns())
	if err != nil {
		log.Error("completion failed", "error", err, "elapsed", time.Since(start))
		return Reply{Text: e.errorReply, Outcome: OutcomeFailed, Err: fmt.Errorf("%w: %w", ErrCompletionFailed, err)}
	}

	reply := Reply{Text: text, Outcome: OutcomeAnswered}
	if strings.TrimSpace(text) == "" {
		log.Warn("completion produced no text", "fragments", fragments)
		reply = Reply{Text: e.emptyReply, Outcome: OutcomeEmpty, Err: ErrEmptyCompletion}
	}
	if err := h.Append(RoleAssistant, reply.Text); err != nil {
		log.Error("failed to record assistant turn", "error", err)
	}

	log.Debug("completion done", "outcome", reply.Outcome.String(), "fragments", fragments, "turns", h.Len(), "elapsed", time.Since(start), "reply", reply.Text)
	return reply
}

// complete consumes the stream, concatenating every present text delta.
func (e *Engine) complete(ctx context.Context, turns []Turn) (string, int, error) {
	messages := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, llm.Message{Role: string(t.Role), Content: t.Content})
	}

	stream, err := e.llmClient.Stream(ctx, messages)
	if err != nil {
		return "", 0, err
	}
	defer stream.Close()

	var b strings.Builder
	fragments := 0
	for {
		if err := ctx.Err(); err != nil {
			return "", fragments, err
		}
		f, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return b.String(), fragments, nil
		}
		if err != nil {
			return "", fragments, err
		}
		fragments++
		if f.Text != nil {
			b.WriteString(*f.Text)
		}
	}
}
