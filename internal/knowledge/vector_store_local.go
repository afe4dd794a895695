package knowledge

import (
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/campushub/backend-go/internal/errors"
)

// localEntry 集合中的一个条目
type localEntry struct {
	ID       string
	Vector   []float32
	Metadata map[string]interface{}
	Text     string
}

// localSnapshot 落盘格式
type localSnapshot struct {
	Dimension int
	Entries   []localEntry
}

// LocalVectorStore 嵌入式持久化向量存储：集合以gob快照形式
// 保存在配置目录下，进程重启后重新打开同一目录/集合可见相同数据。
// 读操作并发安全；写操作与读操作按摄取/服务阶段分离
type LocalVectorStore struct {
	mu         sync.RWMutex
	dir        string
	collection string
	dimension  int
	entries    map[string]localEntry
	order      []string // 插入顺序，保证快照与遍历稳定
}

// NewLocalVectorStore 打开（或创建）指定目录下的集合
func NewLocalVectorStore(dir, collection string) (*LocalVectorStore, error) {
	if collection == "" {
		collection = "default"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewStoreIO("failed to create vector store directory", err)
	}

	s := &LocalVectorStore{
		dir:        dir,
		collection: collection,
		entries:    make(map[string]localEntry),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalVectorStore) snapshotPath() string {
	return filepath.Join(s.dir, s.collection+".gob")
}

func (s *LocalVectorStore) load() error {
	file, err := os.Open(s.snapshotPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperrors.NewStoreIO("failed to open vector store snapshot", err)
	}
	defer file.Close()

	var snapshot localSnapshot
	if err := gob.NewDecoder(file).Decode(&snapshot); err != nil {
		return apperrors.NewStoreIO("failed to decode vector store snapshot", err)
	}

	s.dimension = snapshot.Dimension
	for _, entry := range snapshot.Entries {
		s.entries[entry.ID] = entry
		s.order = append(s.order, entry.ID)
	}
	return nil
}

// persist 先写临时文件再原子替换，避免中断留下损坏快照
func (s *LocalVectorStore) persist() error {
	snapshot := localSnapshot{
		Dimension: s.dimension,
		Entries:   make([]localEntry, 0, len(s.order)),
	}
	for _, id := range s.order {
		snapshot.Entries = append(snapshot.Entries, s.entries[id])
	}

	tmpPath := s.snapshotPath() + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return apperrors.NewStoreIO("failed to create vector store snapshot", err)
	}
	if err := gob.NewEncoder(file).Encode(&snapshot); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return apperrors.NewStoreIO("failed to encode vector store snapshot", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return apperrors.NewStoreIO("failed to close vector store snapshot", err)
	}
	if err := os.Rename(tmpPath, s.snapshotPath()); err != nil {
		os.Remove(tmpPath)
		return apperrors.NewStoreIO("failed to replace vector store snapshot", err)
	}
	return nil
}

// Add 按id插入或覆盖。首个向量确立集合维度，
// 之后任何维度不一致的向量都是致命的摄取错误
func (s *LocalVectorStore) Add(ctx context.Context, ids []string, vectors [][]float32, metadatas []map[string]interface{}, texts []string) error {
	if len(ids) != len(vectors) || len(ids) != len(texts) {
		return apperrors.NewValidation("ids, vectors and texts must have equal length")
	}
	if metadatas != nil && len(metadatas) != len(ids) {
		return apperrors.NewValidation("metadatas length does not match ids")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, vector := range vectors {
		if len(vector) == 0 {
			return apperrors.NewValidation("vector is empty")
		}
		if s.dimension == 0 {
			s.dimension = len(vector)
		}
		if len(vector) != s.dimension {
			return apperrors.NewDimensionMismatch(s.dimension, len(vector))
		}

		var metadata map[string]interface{}
		if metadatas != nil {
			metadata = metadatas[i]
		}
		if metadata == nil {
			metadata = make(map[string]interface{})
		}

		id := ids[i]
		if _, exists := s.entries[id]; !exists {
			s.order = append(s.order, id)
		}
		s.entries[id] = localEntry{
			ID:       id,
			Vector:   vector,
			Metadata: metadata,
			Text:     texts[i],
		}
	}

	return s.persist()
}

// Query 先应用元数据过滤，再按余弦距离升序返回至多k条
func (s *LocalVectorStore) Query(ctx context.Context, vector []float32, k int, filter map[string]interface{}) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(vector) == 0 {
		return nil, apperrors.NewValidation("query vector is empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dimension != 0 && len(vector) != s.dimension {
		return nil, apperrors.NewDimensionMismatch(s.dimension, len(vector))
	}

	results := make([]SearchResult, 0, len(s.order))
	for _, id := range s.order {
		entry := s.entries[id]
		if len(filter) > 0 && !matchesFilter(entry.Metadata, filter) {
			continue
		}
		results = append(results, SearchResult{
			ID:       entry.ID,
			Text:     entry.Text,
			Metadata: entry.Metadata,
			Distance: cosineDistance(vector, entry.Vector),
		})
	}

	sortResultsByDistance(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Reset 清空集合并落盘，对空集合重复调用同样成功
func (s *LocalVectorStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]localEntry)
	s.order = nil
	s.dimension = 0
	return s.persist()
}

func (s *LocalVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *LocalVectorStore) Ready() bool {
	return s.entries != nil
}
