package config

import (
	"time"

	"github.com/spf13/viper"
)

// Hindi defaults for everything the caller hears outside of model replies.
const (
	defaultGreeting     = "नमस्ते, आपका स्वागत है आज मैं आपकी कैसे सहायता कर सकती हूं?"
	defaultNotHeard     = "मुझे कुछ सुनाई नहीं दिया। कृपया दोहराएं।"
	defaultSessionError = "मुझे खेद है, हमारे सत्र में कोई समस्या थी। कृपया वापस कॉल करें।"
	defaultEmptyReply   = "मुझे खेद है, मैंने उचित उत्तर नहीं दिया। कृपया फिर से कोशिश करें।"
	defaultErrorReply   = "मुझे खेद है, मुझे एक त्रुटि का सामना करना पड़ा और अभी मैं जवाब नहीं दे सकती।"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.timeout", 20*time.Second)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("assistant.knowledge_base_path", "knowledge_base.txt")
	v.SetDefault("assistant.max_history", 21)
	v.SetDefault("assistant.empty_reply", defaultEmptyReply)
	v.SetDefault("assistant.error_reply", defaultErrorReply)

	v.SetDefault("voice.language", "hi-IN")
	v.SetDefault("voice.voice", "Polly.Aditi")
	v.SetDefault("voice.speech_timeout", "auto")
	v.SetDefault("voice.greeting", defaultGreeting)
	v.SetDefault("voice.not_heard", defaultNotHeard)
	v.SetDefault("voice.session_error", defaultSessionError)

	v.SetDefault("session.idle_timeout", 30*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)

	v.SetDefault("calllog.path", "calls.db")

	v.SetDefault("log.level", "info")
}
