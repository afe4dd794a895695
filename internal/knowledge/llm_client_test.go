package knowledge

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/campushub/backend-go/internal/errors"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("[Context 1]\nsome chunk\n", "What programs are offered?")

	assert.Contains(t, prompt, "CONTEXT:\n[Context 1]\nsome chunk\n")
	assert.Contains(t, prompt, "QUESTION: What programs are offered?")
	assert.Contains(t, prompt, "ONLY the exact information from the CONTEXT")
	assert.True(t, strings.HasSuffix(prompt, "ANSWER:"))
}

func TestLLMClientWithoutKeyNotReady(t *testing.T) {
	client := NewLLMClient("", "gpt-4o-mini", "")

	assert.False(t, client.Ready())
	_, err := client.Generate(context.Background(), "prompt", 512, 0.3)
	assert.True(t, apperrors.IsExternalModel(err))
}
