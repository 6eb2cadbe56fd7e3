package voice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comigor/darshini/internal/config"
	"github.com/comigor/darshini/internal/session"
)

func renderer() *Renderer {
	return NewRenderer(config.VoiceConfig{Language: "hi-IN", Voice: "Polly.Aditi", SpeechTimeout: "auto"})
}

func TestRender_Listen(t *testing.T) {
	out, err := renderer().Render(session.Instruction{Kind: session.KindListen, Text: "नमस्ते"})
	require.NoError(t, err)

	require.Contains(t, out, "<Response>")
	require.Contains(t, out, "<Gather")
	require.Contains(t, out, `input="speech"`)
	require.Contains(t, out, `action="/voice/handle-speech"`)
	require.Contains(t, out, `speechTimeout="auto"`)
	require.Contains(t, out, `language="hi-IN"`)
	require.Contains(t, out, `voice="Polly.Aditi"`)
	require.Contains(t, out, ">नमस्ते</Say>")
	require.Contains(t, out, ">/voice/incoming</Redirect>")
	require.NotContains(t, out, "<Hangup")

	require.Less(t, strings.Index(out, "<Say"), strings.Index(out, "</Gather>"))
	require.Less(t, strings.Index(out, "</Gather>"), strings.Index(out, "<Redirect"))
}

func TestRender_SpeakThenListen(t *testing.T) {
	out, err := renderer().Render(session.Instruction{Kind: session.KindSpeakThenListen, Text: "रामकुंड के पास"})
	require.NoError(t, err)

	require.Contains(t, out, ">रामकुंड के पास</Say>")
	require.Contains(t, out, ">/voice/handle-speech</Redirect>")
	require.Less(t, strings.Index(out, "</Gather>"), strings.Index(out, "<Redirect"))
}

func TestRender_SpeakThenHangup(t *testing.T) {
	out, err := renderer().Render(session.Instruction{
		Kind: session.KindSpeakThenHangup,
		Text: "session problem",
		Code: session.CodeSessionNotFound,
	})
	require.NoError(t, err)

	require.Contains(t, out, ">session problem</Say>")
	require.Contains(t, out, "<Hangup")
	require.NotContains(t, out, "<Gather")
	require.NotContains(t, out, "<Redirect")
	require.Less(t, strings.Index(out, "<Say"), strings.Index(out, "<Hangup"))
}

func TestRender_EscapesText(t *testing.T) {
	out, err := renderer().Render(session.Instruction{Kind: session.KindSpeakThenListen, Text: "Gate 3 & <Gate 4>"})
	require.NoError(t, err)
	require.NotContains(t, out, "<Gate 4>")
	require.Contains(t, out, "&amp;")
}

func TestRender_UnknownKind(t *testing.T) {
	_, err := renderer().Render(session.Instruction{Kind: "dance"})
	require.Error(t, err)
}
