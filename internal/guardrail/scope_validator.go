package guardrail

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Classification 域内判定结果
type Classification struct {
	Accepted bool
	Score    float64
	Reason   string
}

var wordPattern = regexp.MustCompile(`\w+`)

// ScopeValidator 启发式域内问题判定器。对小写问题做关键词子串匹配，
// score = 命中的关键词数 / 问题词数；score达到阈值或命中≥2个关键词
// 即接受。纯确定性打分，便于单元测试，不保证分类准确率
type ScopeValidator struct {
	mu        sync.RWMutex
	keywords  []string
	threshold float64
	log       *zap.Logger
}

// NewScopeValidator 创建判定器，keywords会统一转为小写
func NewScopeValidator(keywords []string, threshold float64, log *zap.Logger) *ScopeValidator {
	if threshold <= 0 {
		threshold = 0.15
	}
	if log == nil {
		log = zap.NewNop()
	}

	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}

	v := &ScopeValidator{
		keywords:  lowered,
		threshold: threshold,
		log:       log,
	}
	log.Info("scope validator initialized",
		zap.Int("keywords", len(lowered)),
		zap.Float64("threshold", threshold))
	return v
}

// Classify 判定问题是否属于域内。空白输入在分词前直接拒绝
func (v *ScopeValidator) Classify(question string) Classification {
	if strings.TrimSpace(question) == "" {
		v.log.Warn("empty question provided")
		return Classification{Accepted: false, Score: 0, Reason: "Empty question"}
	}

	lower := strings.ToLower(question)
	words := wordPattern.FindAllString(lower, -1)
	if len(words) == 0 {
		return Classification{Accepted: false, Score: 0, Reason: "No valid words in question"}
	}

	v.mu.RLock()
	var matches []string
	for _, keyword := range v.keywords {
		if strings.Contains(lower, keyword) {
			matches = append(matches, keyword)
		}
	}
	threshold := v.threshold
	v.mu.RUnlock()

	score := float64(len(matches)) / float64(len(words))
	accepted := score >= threshold || len(matches) >= 2

	reason := "No keyword matches"
	if len(matches) > 0 {
		preview := matches
		if len(preview) > 5 {
			preview = preview[:5]
		}
		reason = fmt.Sprintf("Matched %d keywords: %v", len(matches), preview)
	}

	v.log.Info("question classified",
		zap.Bool("accepted", accepted),
		zap.Float64("score", score),
		zap.String("reason", reason))

	return Classification{Accepted: accepted, Score: score, Reason: reason}
}

// AddKeywords 运行时扩充关键词，不影响其他组件
func (v *ScopeValidator) AddKeywords(newKeywords []string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	added := 0
	for _, kw := range newKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			v.keywords = append(v.keywords, kw)
			added++
		}
	}
	v.log.Info("keywords extended",
		zap.Int("added", added),
		zap.Int("total", len(v.keywords)))
}

// KeywordCount 当前关键词数量
func (v *ScopeValidator) KeywordCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.keywords)
}
