package knowledge

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	apperrors "github.com/campushub/backend-go/internal/errors"
)

// Generator 文本生成能力的抽象：从提示词到文本的不透明函数
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
	Ready() bool
}

// LLMClient 基于OpenAI兼容Chat Completions接口的生成客户端
type LLMClient struct {
	client *openai.Client
	model  string
}

// NewLLMClient 创建生成客户端
func NewLLMClient(apiKey, model, baseURL string) *LLMClient {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return &LLMClient{}
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &LLMClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// Generate 单次阻塞调用，失败不重试
func (c *LLMClient) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if c.client == nil {
		return "", apperrors.NewExternalModel("llm provider not configured", nil)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
	})
	if err != nil {
		return "", apperrors.NewExternalModel("chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewExternalModel("chat completion response empty", nil)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *LLMClient) Ready() bool {
	return c.client != nil
}

// BuildPrompt 构造生成提示词：仅允许依据上下文作答，
// 上下文缺少答案时要求模型明确说明
func BuildPrompt(context, question string) string {
	return fmt.Sprintf(`You are a precise information assistant for UET (University of Engineering and Technology).

CONTEXT:
%s

QUESTION: %s

INSTRUCTIONS:
- Answer using ONLY the exact information from the CONTEXT above
- Quote specific details from the context when possible
- If the context doesn't contain the answer, say "The provided context does not contain this information."
- Do NOT make up names, numbers, or any other details
- Be concise and accurate

ANSWER:`, context, question)
}
