package knowledge

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/campushub/backend-go/internal/errors"
)

// chunkRecord qa_chunks表记录，向量与元数据以JSON文本存储
type chunkRecord struct {
	ID         string `gorm:"primaryKey;size:64"`
	Collection string `gorm:"primaryKey;size:128"`
	ChunkText  string `gorm:"type:text"`
	Embedding  string `gorm:"type:text"`
	Metadata   string `gorm:"type:text"`
}

func (chunkRecord) TableName() string { return "qa_chunks" }

// collectionRecord 记录集合的已确立维度
type collectionRecord struct {
	Name      string `gorm:"primaryKey;size:128"`
	Dimension int
}

func (collectionRecord) TableName() string { return "qa_collections" }

// DatabaseVectorStore 基于PostgreSQL的退化向量存储：
// 候选行载入内存后在Go侧计算余弦距离并排序
type DatabaseVectorStore struct {
	db         *gorm.DB
	collection string
}

// NewDatabaseVectorStore 创建数据库向量存储并迁移表结构
func NewDatabaseVectorStore(db *gorm.DB, collection string) (*DatabaseVectorStore, error) {
	if db == nil {
		return nil, apperrors.NewStoreIO("database handle is nil", nil)
	}
	if collection == "" {
		collection = "default"
	}
	if err := db.AutoMigrate(&chunkRecord{}, &collectionRecord{}); err != nil {
		return nil, apperrors.NewStoreIO("failed to migrate vector store tables", err)
	}
	return &DatabaseVectorStore{db: db, collection: collection}, nil
}

func (s *DatabaseVectorStore) Add(ctx context.Context, ids []string, vectors [][]float32, metadatas []map[string]interface{}, texts []string) error {
	if len(ids) != len(vectors) || len(ids) != len(texts) {
		return apperrors.NewValidation("ids, vectors and texts must have equal length")
	}
	if metadatas != nil && len(metadatas) != len(ids) {
		return apperrors.NewValidation("metadatas length does not match ids")
	}
	if len(ids) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var coll collectionRecord
		err := tx.Where("name = ?", s.collection).First(&coll).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			coll = collectionRecord{Name: s.collection, Dimension: len(vectors[0])}
			if err := tx.Create(&coll).Error; err != nil {
				return apperrors.NewStoreIO("failed to register collection", err)
			}
		case err != nil:
			return apperrors.NewStoreIO("failed to read collection record", err)
		}

		records := make([]chunkRecord, 0, len(ids))
		for i, vector := range vectors {
			if len(vector) != coll.Dimension {
				return apperrors.NewDimensionMismatch(coll.Dimension, len(vector))
			}

			embeddingJSON, err := json.Marshal(vector)
			if err != nil {
				return apperrors.NewStoreIO("failed to encode embedding", err)
			}
			var metadataJSON []byte
			if metadatas != nil && metadatas[i] != nil {
				metadataJSON, err = json.Marshal(metadatas[i])
				if err != nil {
					return apperrors.NewStoreIO("failed to encode metadata", err)
				}
			}

			records = append(records, chunkRecord{
				ID:         ids[i],
				Collection: s.collection,
				ChunkText:  texts[i],
				Embedding:  string(embeddingJSON),
				Metadata:   string(metadataJSON),
			})
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}, {Name: "collection"}},
			UpdateAll: true,
		}).Create(&records).Error; err != nil {
			return apperrors.NewStoreIO("failed to upsert chunks", err)
		}
		return nil
	})
}

func (s *DatabaseVectorStore) Query(ctx context.Context, vector []float32, k int, filter map[string]interface{}) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(vector) == 0 {
		return nil, apperrors.NewValidation("query vector is empty")
	}

	var rows []chunkRecord
	err := s.db.WithContext(ctx).
		Where("collection = ?", s.collection).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.NewStoreIO("vector search failed", err)
	}

	results := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		var embedding []float32
		if err := json.Unmarshal([]byte(row.Embedding), &embedding); err != nil {
			continue
		}
		metadata := make(map[string]interface{})
		if row.Metadata != "" {
			_ = json.Unmarshal([]byte(row.Metadata), &metadata)
		}
		if len(filter) > 0 && !matchesFilter(metadata, filter) {
			continue
		}
		results = append(results, SearchResult{
			ID:       row.ID,
			Text:     row.ChunkText,
			Metadata: metadata,
			Distance: cosineDistance(vector, embedding),
		})
	}

	sortResultsByDistance(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *DatabaseVectorStore) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ?", s.collection).Delete(&chunkRecord{}).Error; err != nil {
			return apperrors.NewStoreIO("failed to delete chunks", err)
		}
		if err := tx.Where("name = ?", s.collection).Delete(&collectionRecord{}).Error; err != nil {
			return apperrors.NewStoreIO("failed to delete collection record", err)
		}
		return nil
	})
}

func (s *DatabaseVectorStore) Count(ctx context.Context) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&chunkRecord{}).
		Where("collection = ?", s.collection).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.NewStoreIO("failed to count chunks", err)
	}
	return int(count), nil
}

func (s *DatabaseVectorStore) Ready() bool {
	return s.db != nil
}
