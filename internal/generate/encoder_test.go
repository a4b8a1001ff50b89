package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder_Encode(t *testing.T) {
	e := NewEncoder(10)
	in, err := e.Encode("why now", "one two three four five six seven eight")
	require.NoError(t, err)
	assert.Equal(t, "why now", in.Question)
	assert.Equal(t, "one two three four five six", in.Passage)
	assert.Equal(t, 6, in.PassageTokens)
	assert.Equal(t, 2, in.TruncatedWords)
}

func TestEncoder_NoPassageTokens(t *testing.T) {
	e := NewEncoder(10)
	_, err := e.Encode("why", "   ")
	assert.ErrorIs(t, err, ErrNoInputs)

	_, err = NewEncoder(3).Encode("a long question", "passage")
	assert.ErrorIs(t, err, ErrNoInputs)
}

func TestNewEncoder_DefaultBudget(t *testing.T) {
	assert.Equal(t, 256, NewEncoder(0).maxTokens)
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitWords("  a  b\n\tc  "))
	assert.Empty(t, SplitWords(""))
}
