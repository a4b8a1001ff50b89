package generate

import (
	"context"

	"github.com/hyperjump/jidai/pkg/utils"
)

// EchoBackend answers from the passage itself. It needs no model and is deterministic,
// which makes it the default for offline runs.
type EchoBackend struct{}

// Name returns "echo".
func (EchoBackend) Name() string { return "echo" }

// Generate returns the lead sentences of the passage.
func (EchoBackend) Generate(_ context.Context, p Prompt) (string, error) {
	lead := utils.LeadSentences(p.Passage, 2, 400)
	if lead == "" {
		return "", nil
	}
	return "Background: " + lead, nil
}
