package llm

import "context"

// Message is one role-tagged entry of the prompt sent to the completion service.
type Message struct {
	Role    string
	Content string
}

// Fragment is one incremental piece of a streamed completion.
// Text is nil when the chunk carried no textual delta (role-only chunks,
// empty choices, finish markers).
type Fragment struct {
	Text         *string
	FinishReason string
}

// Stream yields fragments until Recv returns io.EOF.
type Stream interface {
	Recv() (Fragment, error)
	Close() error
}

// Client is the minimal streaming surface the dialogue engine needs; it is easy to mock in tests.
type Client interface {
	Stream(ctx context.Context, messages []Message) (Stream, error)
}
