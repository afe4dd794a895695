package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 问答请求的终态：success / refused / no_context / error
var QuestionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "campusqa_questions_total",
		Help: "Questions processed, labelled by terminal outcome",
	},
	[]string{"outcome"},
)

// RetrievalDuration 向量检索耗时
var RetrievalDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "campusqa_retrieval_seconds",
		Help:    "Time spent in vector retrieval per question",
		Buckets: prometheus.DefBuckets,
	},
)

// GenerationDuration 生成耗时
var GenerationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "campusqa_generation_seconds",
		Help:    "Time spent in answer generation per question",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	},
)

// IndexedChunks 启动时索引中的块数
var IndexedChunks = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "campusqa_indexed_chunks",
		Help: "Number of chunks in the vector index",
	},
)

// CacheHits 答案缓存命中数
var CacheHits = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "campusqa_answer_cache_hits_total",
		Help: "Answer cache hits",
	},
)
