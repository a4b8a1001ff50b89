package generate

import (
	"errors"
	"strings"
	"unicode"
)

// ErrNoInputs is returned when a passage leaves no tokens for the model.
var ErrNoInputs = errors.New("no model inputs")

// reservedTokens accounts for the separators between question and passage.
const reservedTokens = 2

// Inputs are the model inputs built from a question and passage.
type Inputs struct {
	Question       string
	Passage        string
	PassageTokens  int
	TruncatedWords int
}

// Encoder builds model inputs, keeping question plus passage within a word-token budget.
// Words stand in for model tokens; remote backends apply their own tokenizer.
type Encoder struct {
	maxTokens int
}

// NewEncoder returns an Encoder with a budget of maxTokens (256 when not positive).
func NewEncoder(maxTokens int) *Encoder {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &Encoder{maxTokens: maxTokens}
}

// Encode truncates passage so that question and passage fit the budget.
// Returns ErrNoInputs when no passage token survives.
func (e *Encoder) Encode(question, passage string) (Inputs, error) {
	qWords := SplitWords(question)
	pWords := SplitWords(passage)
	budget := e.maxTokens - len(qWords) - reservedTokens
	if budget <= 0 || len(pWords) == 0 {
		return Inputs{}, ErrNoInputs
	}
	kept := TruncateWords(pWords, budget)
	return Inputs{
		Question:       strings.Join(qWords, " "),
		Passage:        strings.Join(kept, " "),
		PassageTokens:  len(kept),
		TruncatedWords: len(pWords) - len(kept),
	}, nil
}

// SplitWords splits text on Unicode whitespace and returns non-empty words.
func SplitWords(text string) []string {
	return strings.FieldsFunc(text, unicode.IsSpace)
}

// TruncateWords returns up to maxWords words from the slice.
func TruncateWords(words []string, maxWords int) []string {
	if len(words) <= maxWords {
		return words
	}
	return words[:maxWords]
}
