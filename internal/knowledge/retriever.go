package knowledge

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/campushub/backend-go/internal/errors"
)

// expansionGroup 查询扩展触发词组，按固定顺序检查，
// 命中多组时全部追加
type expansionGroup struct {
	triggers  []string
	expansion string
}

var expansionGroups = []expansionGroup{
	{[]string{"admission", "requirement", "eligibility"}, "eligibility criteria admission requirements"},
	{[]string{"faculty", "professor", "staff"}, "faculty members professors"},
	{[]string{"program", "degree"}, "offered programs degrees"},
}

// filterIntent 问题意图到元数据过滤条件的映射，至多派生一个条件
type filterIntent struct {
	triggers []string
	field    string
}

var filterIntents = []filterIntent{
	{[]string{"admission", "requirement", "eligibility", "criteria"}, "has_eligibility"},
	{[]string{"faculty", "professor", "staff", "dean", "chairman"}, "has_faculty"},
	{[]string{"program", "degree", "offered"}, "has_programs"},
}

// Retriever 组合查询扩展、可选过滤、向量化与向量检索。
// 查询向量必须由与摄取时相同的Embedder生成
type Retriever struct {
	embedder            Embedder
	store               VectorStore
	topK                int
	applyMetadataFilter bool
	log                 *zap.Logger
}

// NewRetriever 创建检索器
func NewRetriever(embedder Embedder, store VectorStore, topK int, applyMetadataFilter bool, log *zap.Logger) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Retriever{
		embedder:            embedder,
		store:               store,
		topK:                topK,
		applyMetadataFilter: applyMetadataFilter,
		log:                 log,
	}
}

// Retrieve 返回按距离升序的检索结果
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]SearchResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, apperrors.NewValidation("question is empty")
	}
	k := topK
	if k <= 0 {
		k = r.topK
	}

	expanded := ExpandQuery(question)
	if expanded != question {
		r.log.Debug("query expanded",
			zap.String("question", question),
			zap.String("expanded", expanded))
	}

	var filter map[string]interface{}
	if r.applyMetadataFilter {
		filter = MetadataFilterFor(question)
		if filter != nil {
			r.log.Debug("applying metadata filter", zap.Any("filter", filter))
		}
	}

	// 用扩展后的文本计算查询向量，与摄取侧保持同一向量空间
	embedding, err := r.embedder.Embed(ctx, expanded)
	if err != nil {
		return nil, err
	}

	results, err := r.store.Query(ctx, embedding, k, filter)
	if err != nil {
		return nil, err
	}

	r.log.Info("retrieval complete",
		zap.String("question", question),
		zap.Int("top_k", k),
		zap.Int("results", len(results)))
	return results, nil
}

// RetrieveAndFormat 检索并返回格式化上下文
func (r *Retriever) RetrieveAndFormat(ctx context.Context, question string, topK int) (string, []SearchResult, error) {
	results, err := r.Retrieve(ctx, question, topK)
	if err != nil {
		return "", nil, err
	}
	return FormatContext(results), results, nil
}

// ExpandQuery 追加同义检索词改善召回，原问题在前，扩展按触发组顺序在后
func ExpandQuery(question string) string {
	lower := strings.ToLower(question)

	var expansions []string
	for _, group := range expansionGroups {
		for _, trigger := range group.triggers {
			if strings.Contains(lower, trigger) {
				expansions = append(expansions, group.expansion)
				break
			}
		}
	}

	if len(expansions) == 0 {
		return question
	}
	return question + " " + strings.Join(expansions, " ")
}

// MetadataFilterFor 按问题意图派生至多一个过滤条件，无命中返回nil
func MetadataFilterFor(question string) map[string]interface{} {
	lower := strings.ToLower(question)

	for _, intent := range filterIntents {
		for _, trigger := range intent.triggers {
			if strings.Contains(lower, trigger) {
				return map[string]interface{}{intent.field: true}
			}
		}
	}
	return nil
}

// FormatContext 拼接 "[Context i]\n{text}\n" 块，空结果返回空串
func FormatContext(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	parts := make([]string, 0, len(results))
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("[Context %d]\n%s\n", i+1, result.Text))
	}
	return strings.Join(parts, "\n")
}
