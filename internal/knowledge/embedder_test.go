package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/campushub/backend-go/internal/errors"
)

func TestNewOpenAIEmbedderWithoutKeyIsNoop(t *testing.T) {
	embedder := NewOpenAIEmbedder("", "text-embedding-3-small", "")

	assert.False(t, embedder.Ready())
	_, err := embedder.Embed(context.Background(), "hello")
	assert.True(t, apperrors.IsExternalModel(err))
}

func TestNewOpenAIEmbedderKnownModelDimensions(t *testing.T) {
	assert.Equal(t, 1536, NewOpenAIEmbedder("key", "text-embedding-3-small", "").Dimensions())
	assert.Equal(t, 3072, NewOpenAIEmbedder("key", "text-embedding-3-large", "").Dimensions())
	assert.Equal(t, 1536, NewOpenAIEmbedder("key", "text-embedding-ada-002", "").Dimensions())
	// 未知模型回退到1536
	assert.Equal(t, 1536, NewOpenAIEmbedder("key", "custom-model", "").Dimensions())
}

func TestOpenAIEmbedderRejectsEmptyText(t *testing.T) {
	embedder := NewOpenAIEmbedder("key", "", "")

	_, err := embedder.EmbedBatch(context.Background(), []string{"ok", "   "})
	assert.True(t, apperrors.IsValidation(err))
}

func TestOpenAIEmbedderEmptyBatch(t *testing.T) {
	embedder := NewOpenAIEmbedder("key", "", "")

	vectors, err := embedder.EmbedBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vectors)
}
