// Package voice renders session instructions into TwiML.
package voice

import (
	"fmt"
	"net/http"

	"github.com/twilio/twilio-go/twiml"

	"github.com/comigor/darshini/internal/config"
	"github.com/comigor/darshini/internal/session"
)

// Webhook paths the voice layer posts back to.
const (
	IncomingPath = "/voice/incoming"
	SpeechPath   = "/voice/handle-speech"
)

// Renderer turns an Instruction into a TwiML document.
type Renderer struct {
	language      string
	voice         string
	speechTimeout string
}

// NewRenderer creates a renderer speaking and listening in the configured locale.
func NewRenderer(cfg config.VoiceConfig) *Renderer {
	return &Renderer{
		language:      cfg.Language,
		voice:         cfg.Voice,
		speechTimeout: cfg.SpeechTimeout,
	}
}

// Render returns the TwiML for instr.
func (r *Renderer) Render(instr session.Instruction) (string, error) {
	var verbs []twiml.Element

	switch instr.Kind {
	case session.KindListen:
		// If the gather yields nothing, start over from the greeting.
		verbs = []twiml.Element{
			r.gather(instr.Text),
			&twiml.VoiceRedirect{Url: IncomingPath, Method: http.MethodPost},
		}
	case session.KindSpeakThenListen:
		// Silence falls through to the speech handler with no SpeechResult.
		verbs = []twiml.Element{
			r.gather(instr.Text),
			&twiml.VoiceRedirect{Url: SpeechPath, Method: http.MethodPost},
		}
	case session.KindSpeakThenHangup:
		verbs = []twiml.Element{
			r.say(instr.Text),
			&twiml.VoiceHangup{},
		}
	default:
		return "", fmt.Errorf("unknown instruction kind %q", instr.Kind)
	}

	return twiml.Voice(verbs)
}

func (r *Renderer) gather(text string) *twiml.VoiceGather {
	g := &twiml.VoiceGather{
		Input:         "speech",
		Action:        SpeechPath,
		Method:        http.MethodPost,
		SpeechTimeout: r.speechTimeout,
		Language:      r.language,
	}
	if text != "" {
		g.InnerElements = []twiml.Element{r.say(text)}
	}
	return g
}

func (r *Renderer) say(text string) *twiml.VoiceSay {
	return &twiml.VoiceSay{Message: text, Voice: r.voice, Language: r.language}
}
