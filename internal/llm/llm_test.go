package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/comigor/darshini/internal/config"
	"github.com/stretchr/testify/require"
)

func chunk(content string, finish string) string {
	delta := map[string]any{}
	if content != "" {
		delta["content"] = content
	}
	choice := map[string]any{"index": 0, "delta": delta}
	if finish != "" {
		choice["finish_reason"] = finish
	}
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion.chunk",
		"created": 1,
		"model":   "llama-test",
		"choices": []any{choice},
	})
	return string(b)
}

func sseServer(t *testing.T, events []string, gotBody *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if gotBody != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(gotBody))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, e := range events {
			fmt.Fprintf(w, "data: %s\n\n", e)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func drain(t *testing.T, s Stream) (string, int) {
	t.Helper()
	var b strings.Builder
	empty := 0
	for {
		f, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return b.String(), empty
		}
		require.NoError(t, err)
		if f.Text == nil {
			empty++
			continue
		}
		b.WriteString(*f.Text)
	}
}

func TestOpenAIClient_Stream(t *testing.T) {
	var body map[string]any
	srv := sseServer(t, []string{
		chunk("", ""),
		chunk("राम", ""),
		`{"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"llama-test","choices":[]}`,
		chunk("घाट", ""),
		chunk("", "stop"),
	}, &body)
	defer srv.Close()

	c := NewClient(config.LLMConfig{BaseURL: srv.URL + "/v1", APIKey: "test-key", Model: "llama-test"})
	s, err := c.Stream(context.Background(), []Message{
		{Role: "system", Content: "persona"},
		{Role: "user", Content: "Where is the medical camp?"},
	})
	require.NoError(t, err)
	defer s.Close()

	text, empty := drain(t, s)
	require.Equal(t, "रामघाट", text)
	require.Equal(t, 3, empty)

	require.Equal(t, "llama-test", body["model"])
	require.Equal(t, true, body["stream"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
}

func TestOpenAIClient_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"upstream down","type":"server_error"}}`)
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{BaseURL: srv.URL + "/v1", APIKey: "test-key", Model: "llama-test"})
	_, err := c.Stream(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
}
