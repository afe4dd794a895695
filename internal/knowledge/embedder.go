package knowledge

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	apperrors "github.com/campushub/backend-go/internal/errors"
)

// Embedder 定义文本向量化接口。摄取与查询必须使用同一实现与模型，
// 否则向量空间不一致，检索结果无意义
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch 批量向量化，输出顺序与输入一致
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Ready() bool
}

// NoopEmbedder 默认占位实现
type NoopEmbedder struct{}

func (n *NoopEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, apperrors.NewExternalModel("embedding provider not configured", nil)
}

func (n *NoopEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, apperrors.NewExternalModel("embedding provider not configured", nil)
}

func (n *NoopEmbedder) Dimensions() int {
	return 0
}

func (n *NoopEmbedder) Ready() bool {
	return false
}

var embeddingDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// OpenAIEmbedder 使用OpenAI Embedding API
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewOpenAIEmbedder 创建OpenAI嵌入向量生成器
func NewOpenAIEmbedder(apiKey, model, baseURL string) Embedder {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return &NoopEmbedder{}
	}
	if model == "" {
		model = "text-embedding-3-small"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	dims, ok := embeddingDimensions[model]
	if !ok {
		dims = 1536
	}

	return &OpenAIEmbedder{
		client:     client,
		model:      model,
		dimensions: dims,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch 单次API调用完成整批向量化
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, apperrors.NewValidation("text is empty")
		}
	}
	if e.client == nil {
		return nil, apperrors.NewExternalModel("openai client not initialized", nil)
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, apperrors.NewExternalModel("embedding request failed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, apperrors.NewExternalModel("embedding response incomplete", nil)
	}

	// 响应顺序按Index字段恢复，与输入保持一致
	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, apperrors.NewExternalModel("embedding response index out of range", nil)
		}
		embedding := make([]float32, len(item.Embedding))
		copy(embedding, item.Embedding)
		vectors[item.Index] = embedding
	}
	for _, v := range vectors {
		if v == nil {
			return nil, apperrors.NewExternalModel("embedding response missing item", nil)
		}
	}
	return vectors, nil
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *OpenAIEmbedder) Ready() bool {
	return e.client != nil
}
