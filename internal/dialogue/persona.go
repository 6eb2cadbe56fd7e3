package dialogue

import (
	_ "embed"
	"os"
	"strings"

	"github.com/comigor/darshini/internal/logger"
)

// DefaultPersona is the Kumbh Mela helpline persona, spoken in Hindi.
//
//go:embed persona_hi.txt
var DefaultPersona string

// LoadKnowledgeBase reads the static knowledge base once at startup.
// A missing or unreadable file yields an empty knowledge base, never an error.
func LoadKnowledgeBase(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		logger.L.Warn("knowledge base unavailable; assistant will have limited knowledge", "path", path, "error", err)
		return ""
	}
	logger.L.Info("knowledge base loaded", "path", path, "bytes", len(b))
	return string(b)
}

// SystemPrompt joins the persona and the knowledge base into the content of the system turn.
func SystemPrompt(persona, knowledgeBase string) string {
	persona = strings.TrimSpace(persona)
	knowledgeBase = strings.TrimSpace(knowledgeBase)
	if knowledgeBase == "" {
		return persona
	}
	return persona + "\n\n" + knowledgeBase
}
