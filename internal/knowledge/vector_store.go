package knowledge

import (
	"context"
	"math"
	"sort"
)

// SearchResult 向量检索结果，按余弦距离升序（0=完全相同）
type SearchResult struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
	Distance float64
}

// VectorStore 向量存储抽象。同一集合内所有向量维度一致，
// 维度由首次写入确立，后续不一致的写入返回 DIMENSION_MISMATCH。
// Query/Count 支持并发读；Add/Reset 与读操作按约定在时间上互斥
// （摄取阶段与服务阶段分离），实现内部不做跨阶段加锁保证
type VectorStore interface {
	// Add 按id追加或覆盖条目
	Add(ctx context.Context, ids []string, vectors [][]float32, metadatas []map[string]interface{}, texts []string) error
	// Query 返回至多k条结果，filter为元数据精确匹配的合取条件，
	// 过滤在排序之前生效
	Query(ctx context.Context, vector []float32, k int, filter map[string]interface{}) ([]SearchResult, error)
	// Reset 清空集合，幂等
	Reset(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	Ready() bool
}

// matchesFilter 判断条目元数据是否满足全部精确匹配条件
func matchesFilter(metadata map[string]interface{}, filter map[string]interface{}) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// cosineDistance 计算余弦距离 1-cos(a,b)，范数为0时返回1
func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// sortResultsByDistance 距离升序排序，稳定以保证可重复的结果顺序
func sortResultsByDistance(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
}
