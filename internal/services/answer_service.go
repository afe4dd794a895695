package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/backend-go/internal/cache"
	"github.com/campushub/backend-go/internal/guardrail"
	"github.com/campushub/backend-go/internal/knowledge"
	"github.com/campushub/backend-go/internal/metrics"
)

// 固定文案：无上下文与兜底错误。拒答文案来自配置
const (
	NoContextMessage = "I couldn't find relevant information in the department documents to answer your question."
	ErrorMessage     = "An error occurred while processing your question. Please try again."
)

// Answer 问答结果，每次请求构造一次，结构始终完整
type Answer struct {
	Text      string         `json:"answer"`
	Citations []string       `json:"citations"`
	Sources   []Source       `json:"sources"`
	Metadata  AnswerMetadata `json:"metadata"`
}

// Source 检索来源记录
type Source struct {
	ChunkID        int     `json:"chunk_id"`
	Source         string  `json:"source"`
	RelevanceScore float64 `json:"relevance_score"`
}

// AnswerMetadata 答案元信息
type AnswerMetadata struct {
	GuardrailTriggered bool   `json:"guardrail_triggered"`
	RetrievalCount     int    `json:"retrieval_count"`
	Question           string `json:"question"`
	TopK               int    `json:"top_k,omitempty"`
	Error              string `json:"error,omitempty"`
}

// AskOptions 单次问答参数，零值使用服务默认值
type AskOptions struct {
	TopK        int
	MaxTokens   int
	Temperature float64
}

// AnswerService 问答编排服务。每个请求独立走完
// 判定→检索→提示词→生成→组装 的状态机；服务阶段的任何错误
// 都在此边界捕获并降级为结构完整的答案，不会让服务循环崩溃
type AnswerService struct {
	validator   *guardrail.ScopeValidator
	retriever   *knowledge.Retriever
	generator   knowledge.Generator
	answerCache *cache.AnswerCache

	guardrailMessage string
	defaultTopK      int
	defaultMaxTokens int
	defaultTemp      float64
	log              *zap.Logger
}

// NewAnswerService 创建问答服务
func NewAnswerService(
	validator *guardrail.ScopeValidator,
	retriever *knowledge.Retriever,
	generator knowledge.Generator,
	answerCache *cache.AnswerCache,
	guardrailMessage string,
	defaultTopK, defaultMaxTokens int,
	defaultTemperature float64,
	log *zap.Logger,
) *AnswerService {
	if guardrailMessage == "" {
		guardrailMessage = "I only answer department information."
	}
	if defaultTopK <= 0 {
		defaultTopK = 3
	}
	if defaultMaxTokens <= 0 {
		defaultMaxTokens = 512
	}
	if defaultTemperature <= 0 {
		defaultTemperature = 0.3
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AnswerService{
		validator:        validator,
		retriever:        retriever,
		generator:        generator,
		answerCache:      answerCache,
		guardrailMessage: guardrailMessage,
		defaultTopK:      defaultTopK,
		defaultMaxTokens: defaultMaxTokens,
		defaultTemp:      defaultTemperature,
		log:              log,
	}
}

// Ask 处理单个问题。预期分支（拒答、无上下文、生成失败）
// 不返回错误，始终返回结构完整的Answer
func (s *AnswerService) Ask(ctx context.Context, question string, opts AskOptions) *Answer {
	topK := opts.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.defaultMaxTokens
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = s.defaultTemp
	}

	s.log.Info("processing question", zap.String("question", question), zap.Int("top_k", topK))

	// 域内判定，拒绝时不做任何检索
	classification := s.validator.Classify(question)
	if !classification.Accepted {
		s.log.Info("question rejected by guardrail", zap.String("reason", classification.Reason))
		metrics.QuestionsTotal.WithLabelValues("refused").Inc()
		return &Answer{
			Text:      s.guardrailMessage,
			Citations: []string{},
			Sources:   []Source{},
			Metadata: AnswerMetadata{
				GuardrailTriggered: true,
				Question:           question,
			},
		}
	}

	// 缓存命中直接返回
	cacheKey := cache.Key(question, topK)
	if s.answerCache != nil && s.answerCache.Enabled() {
		if data, ok := s.answerCache.Get(ctx, cacheKey); ok {
			var cached Answer
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.CacheHits.Inc()
				s.log.Debug("answer cache hit", zap.String("question", question))
				return &cached
			}
		}
	}

	retrievalStart := time.Now()
	results, err := s.retriever.Retrieve(ctx, question, topK)
	metrics.RetrievalDuration.Observe(time.Since(retrievalStart).Seconds())
	if err != nil {
		return s.errorAnswer(question, err)
	}

	if len(results) == 0 {
		s.log.Warn("no relevant context retrieved", zap.String("question", question))
		metrics.QuestionsTotal.WithLabelValues("no_context").Inc()
		return &Answer{
			Text:      NoContextMessage,
			Citations: []string{},
			Sources:   []Source{},
			Metadata: AnswerMetadata{
				GuardrailTriggered: false,
				RetrievalCount:     0,
				Question:           question,
			},
		}
	}

	prompt := knowledge.BuildPrompt(knowledge.FormatContext(results), question)

	generationStart := time.Now()
	text, err := s.generator.Generate(ctx, prompt, maxTokens, temperature)
	metrics.GenerationDuration.Observe(time.Since(generationStart).Seconds())
	if err != nil {
		return s.errorAnswer(question, err)
	}

	answer := s.assemble(question, text, results, topK)
	metrics.QuestionsTotal.WithLabelValues("success").Inc()

	if s.answerCache != nil && s.answerCache.Enabled() {
		if data, err := json.Marshal(answer); err == nil {
			s.answerCache.Set(ctx, cacheKey, data)
		}
	}

	s.log.Info("answer generated",
		zap.String("question", question),
		zap.Int("citations", len(answer.Citations)))
	return answer
}

// AskBatch 批量处理，单个问题的失败不影响其他问题
func (s *AnswerService) AskBatch(ctx context.Context, questions []string, opts AskOptions) []*Answer {
	s.log.Info("processing question batch", zap.Int("count", len(questions)))

	answers := make([]*Answer, 0, len(questions))
	for _, question := range questions {
		answers = append(answers, s.Ask(ctx, question, opts))
	}
	return answers
}

// errorAnswer 服务阶段错误的降级出口：记录完整错误并返回兜底答案
func (s *AnswerService) errorAnswer(question string, err error) *Answer {
	s.log.Error("error generating answer",
		zap.String("question", question),
		zap.Error(err))
	metrics.QuestionsTotal.WithLabelValues("error").Inc()

	return &Answer{
		Text:      ErrorMessage,
		Citations: []string{},
		Sources:   []Source{},
		Metadata: AnswerMetadata{
			Question: question,
			Error:    err.Error(),
		},
	}
}

// assemble 组装终态答案：引用为检索顺序的原文，来源附归一化相关度
func (s *AnswerService) assemble(question, text string, results []knowledge.SearchResult, topK int) *Answer {
	citations := make([]string, 0, len(results))
	sources := make([]Source, 0, len(results))

	for _, result := range results {
		citations = append(citations, result.Text)

		source := "unknown"
		if v, ok := result.Metadata["source"].(string); ok && v != "" {
			source = v
		}

		relevance := 0.0
		if result.Distance != 0 {
			relevance = 1 - result.Distance
			if relevance < 0 {
				relevance = 0
			}
			if relevance > 1 {
				relevance = 1
			}
		}

		sources = append(sources, Source{
			ChunkID:        chunkIDFrom(result.Metadata),
			Source:         source,
			RelevanceScore: relevance,
		})
	}

	return &Answer{
		Text:      text,
		Citations: citations,
		Sources:   sources,
		Metadata: AnswerMetadata{
			GuardrailTriggered: false,
			RetrievalCount:     len(results),
			Question:           question,
			TopK:               topK,
		},
	}
}

// chunkIDFrom 元数据缺失chunk_id时默认0；
// JSON反序列化会把数值还原为float64，这里统一收敛
func chunkIDFrom(metadata map[string]interface{}) int {
	switch v := metadata["chunk_id"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
