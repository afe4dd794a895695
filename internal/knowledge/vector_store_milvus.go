package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	apperrors "github.com/campushub/backend-go/internal/errors"
)

// MilvusOptions Milvus客户端配置
type MilvusOptions struct {
	Address    string
	Username   string
	Password   string
	Collection string
	VectorSize int
	Database   string
	UseTLS     bool
	Timeout    time.Duration
}

// milvusVectorStore Milvus向量存储。元数据标记作为标量字段入库，
// 过滤条件翻译为布尔表达式在检索前生效
type milvusVectorStore struct {
	milvusClient client.Client
	collection   string
	vectorSize   int
}

// 元数据中进入Milvus标量字段的布尔标记
var milvusBoolFields = []string{"has_eligibility", "has_programs", "has_faculty", "has_introduction"}

// NewMilvusVectorStore 创建Milvus向量存储
func NewMilvusVectorStore(opts MilvusOptions) (VectorStore, error) {
	if opts.Address == "" {
		opts.Address = "localhost:19530"
	}
	if opts.Collection == "" {
		opts.Collection = "qa_chunks"
	}
	if opts.VectorSize == 0 {
		opts.VectorSize = 1536
	}
	if opts.Database == "" {
		opts.Database = "default"
	}

	milvusClient, err := client.NewClient(
		context.Background(),
		client.Config{
			Address:       opts.Address,
			DBName:        opts.Database,
			Username:      opts.Username,
			Password:      opts.Password,
			EnableTLSAuth: opts.UseTLS,
		},
	)
	if err != nil {
		return nil, apperrors.NewStoreIO("failed to create milvus client", err)
	}

	return &milvusVectorStore{
		milvusClient: milvusClient,
		collection:   opts.Collection,
		vectorSize:   opts.VectorSize,
	}, nil
}

func (s *milvusVectorStore) ensureCollection(ctx context.Context) error {
	hasCollection, err := s.milvusClient.HasCollection(ctx, s.collection)
	if err != nil {
		return apperrors.NewStoreIO("failed to check collection", err)
	}
	if hasCollection {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: s.collection,
		Description:    "document chunk vectors",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:       "content",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "65535"},
			},
			{
				Name:     "chunk_index",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:       "source",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "256"},
			},
			{
				Name:       "department",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "256"},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", s.vectorSize),
				},
			},
		},
	}
	for _, name := range milvusBoolFields {
		schema.Fields = append(schema.Fields, &entity.Field{
			Name:     name,
			DataType: entity.FieldTypeBool,
		})
	}

	if err := s.milvusClient.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return apperrors.NewStoreIO("failed to create collection", err)
	}

	// 余弦HNSW索引，失败时退回IVF_FLAT
	var index entity.Index
	if hnsw, indexErr := entity.NewIndexHNSW(entity.COSINE, 8, 64); indexErr == nil {
		index = hnsw
	} else {
		ivf, ivfErr := entity.NewIndexIvfFlat(entity.COSINE, 128)
		if ivfErr != nil {
			return apperrors.NewStoreIO("failed to create index", ivfErr)
		}
		index = ivf
	}
	if err := s.milvusClient.CreateIndex(ctx, s.collection, "vector", index, false); err != nil {
		return apperrors.NewStoreIO("failed to create vector index", err)
	}

	return nil
}

func (s *milvusVectorStore) Add(ctx context.Context, ids []string, vectors [][]float32, metadatas []map[string]interface{}, texts []string) error {
	if len(ids) != len(vectors) || len(ids) != len(texts) {
		return apperrors.NewValidation("ids, vectors and texts must have equal length")
	}
	if metadatas != nil && len(metadatas) != len(ids) {
		return apperrors.NewValidation("metadatas length does not match ids")
	}
	if len(ids) == 0 {
		return nil
	}

	for _, vector := range vectors {
		if len(vector) != s.vectorSize {
			return apperrors.NewDimensionMismatch(s.vectorSize, len(vector))
		}
	}

	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	chunkIndexes := make([]int64, len(ids))
	sources := make([]string, len(ids))
	departments := make([]string, len(ids))
	boolColumns := make(map[string][]bool, len(milvusBoolFields))
	for _, name := range milvusBoolFields {
		boolColumns[name] = make([]bool, len(ids))
	}

	for i := range ids {
		var metadata map[string]interface{}
		if metadatas != nil {
			metadata = metadatas[i]
		}
		chunkIndexes[i] = metadataInt64(metadata, "chunk_index")
		sources[i] = metadataString(metadata, "source")
		departments[i] = metadataString(metadata, "department")
		for _, name := range milvusBoolFields {
			if v, ok := metadata[name].(bool); ok {
				boolColumns[name][i] = v
			}
		}
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnVarChar("content", texts),
		entity.NewColumnInt64("chunk_index", chunkIndexes),
		entity.NewColumnVarChar("source", sources),
		entity.NewColumnVarChar("department", departments),
		entity.NewColumnFloatVector("vector", s.vectorSize, vectors),
	}
	for _, name := range milvusBoolFields {
		columns = append(columns, entity.NewColumnBool(name, boolColumns[name]))
	}

	if _, err := s.milvusClient.Insert(ctx, s.collection, "", columns...); err != nil {
		return apperrors.NewStoreIO("milvus insert failed", err)
	}
	if err := s.milvusClient.Flush(ctx, s.collection, false); err != nil {
		return apperrors.NewStoreIO("milvus flush failed", err)
	}
	return nil
}

// filterExpr 把精确匹配合取条件翻译为Milvus布尔表达式
func filterExpr(filter map[string]interface{}) string {
	if len(filter) == 0 {
		return ""
	}
	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		switch v := filter[key].(type) {
		case bool:
			parts = append(parts, fmt.Sprintf("%s == %t", key, v))
		case string:
			parts = append(parts, fmt.Sprintf("%s == %s", key, strconv.Quote(v)))
		case int:
			parts = append(parts, fmt.Sprintf("%s == %d", key, v))
		case int64:
			parts = append(parts, fmt.Sprintf("%s == %d", key, v))
		}
	}
	return strings.Join(parts, " and ")
}

func (s *milvusVectorStore) Query(ctx context.Context, vector []float32, k int, filter map[string]interface{}) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(vector) != s.vectorSize {
		return nil, apperrors.NewDimensionMismatch(s.vectorSize, len(vector))
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	if err := s.milvusClient.LoadCollection(ctx, s.collection, false); err != nil {
		return nil, apperrors.NewStoreIO("failed to load collection", err)
	}

	outputFields := append([]string{"content", "chunk_index", "source", "department"}, milvusBoolFields...)
	sp, _ := entity.NewIndexHNSWSearchParam(64)
	searchResults, err := s.milvusClient.Search(
		ctx,
		s.collection,
		[]string{},
		filterExpr(filter),
		outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		"vector",
		entity.COSINE,
		k,
		sp,
	)
	if err != nil {
		return nil, apperrors.NewStoreIO("milvus search failed", err)
	}
	if len(searchResults) == 0 {
		return []SearchResult{}, nil
	}
	result := searchResults[0]
	if result.Err != nil {
		return nil, apperrors.NewStoreIO("milvus search error", result.Err)
	}
	if result.ResultCount == 0 {
		return []SearchResult{}, nil
	}

	var ids []string
	if idCol, ok := result.IDs.(*entity.ColumnVarChar); ok {
		ids = idCol.Data()
	}

	contents := make([]string, 0)
	chunkIndexes := make([]int64, 0)
	sources := make([]string, 0)
	departments := make([]string, 0)
	boolData := make(map[string][]bool)
	for _, field := range result.Fields {
		switch col := field.(type) {
		case *entity.ColumnVarChar:
			switch field.Name() {
			case "content":
				contents = col.Data()
			case "source":
				sources = col.Data()
			case "department":
				departments = col.Data()
			}
		case *entity.ColumnInt64:
			if field.Name() == "chunk_index" {
				chunkIndexes = col.Data()
			}
		case *entity.ColumnBool:
			boolData[field.Name()] = col.Data()
		}
	}

	results := make([]SearchResult, 0, result.ResultCount)
	for i := 0; i < result.ResultCount; i++ {
		metadata := make(map[string]interface{})
		if i < len(chunkIndexes) {
			metadata["chunk_index"] = int(chunkIndexes[i])
			metadata["chunk_id"] = int(chunkIndexes[i])
		}
		if i < len(sources) && sources[i] != "" {
			metadata["source"] = sources[i]
		}
		if i < len(departments) && departments[i] != "" {
			metadata["department"] = departments[i]
		}
		for name, data := range boolData {
			if i < len(data) {
				metadata[name] = data[i]
			}
		}

		id := ""
		if i < len(ids) {
			id = ids[i]
		}
		content := ""
		if i < len(contents) {
			content = contents[i]
		}

		// Milvus余弦度量返回相似度得分，转换为距离
		distance := 1.0
		if i < len(result.Scores) {
			distance = 1 - float64(result.Scores[i])
		}

		results = append(results, SearchResult{
			ID:       id,
			Text:     content,
			Metadata: metadata,
			Distance: distance,
		})
	}

	sortResultsByDistance(results)
	return results, nil
}

// Reset 删除集合；集合不存在时视为成功
func (s *milvusVectorStore) Reset(ctx context.Context) error {
	hasCollection, err := s.milvusClient.HasCollection(ctx, s.collection)
	if err != nil {
		return apperrors.NewStoreIO("failed to check collection", err)
	}
	if !hasCollection {
		return nil
	}
	if err := s.milvusClient.DropCollection(ctx, s.collection); err != nil {
		return apperrors.NewStoreIO("failed to drop collection", err)
	}
	return nil
}

func (s *milvusVectorStore) Count(ctx context.Context) (int, error) {
	hasCollection, err := s.milvusClient.HasCollection(ctx, s.collection)
	if err != nil {
		return 0, apperrors.NewStoreIO("failed to check collection", err)
	}
	if !hasCollection {
		return 0, nil
	}
	stats, err := s.milvusClient.GetCollectionStatistics(ctx, s.collection)
	if err != nil {
		return 0, apperrors.NewStoreIO("failed to read collection statistics", err)
	}
	count, err := strconv.Atoi(stats["row_count"])
	if err != nil {
		return 0, apperrors.NewStoreIO("unexpected row_count value", err)
	}
	return count, nil
}

func (s *milvusVectorStore) Ready() bool {
	if s.milvusClient == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.milvusClient.ListCollections(ctx)
	return err == nil
}

func metadataInt64(metadata map[string]interface{}, key string) int64 {
	switch v := metadata[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func metadataString(metadata map[string]interface{}, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}
