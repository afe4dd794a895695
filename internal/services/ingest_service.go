package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/campushub/backend-go/internal/errors"
	"github.com/campushub/backend-go/internal/knowledge"
	"github.com/campushub/backend-go/internal/metrics"
)

// IngestStats 入库结果统计
type IngestStats struct {
	Files       int
	Chunks      int
	Dimension   int
	TotalChunks int
}

// IngestService 文档入库流水线：解析→清洗→分块→嵌入→写入向量库。
// 与查询侧共用同一个Embedder实例，保证嵌入空间一致
type IngestService struct {
	parser    *knowledge.FileParserManager
	cleaner   *knowledge.TextCleaner
	chunker   *knowledge.Chunker
	embedder  knowledge.Embedder
	store     knowledge.VectorStore
	chunkMode string
	log       *zap.Logger
}

// NewIngestService 创建入库服务
func NewIngestService(
	parser *knowledge.FileParserManager,
	cleaner *knowledge.TextCleaner,
	chunker *knowledge.Chunker,
	embedder knowledge.Embedder,
	store knowledge.VectorStore,
	chunkMode string,
	log *zap.Logger,
) *IngestService {
	if chunkMode == "" {
		chunkMode = "sections"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &IngestService{
		parser:    parser,
		cleaner:   cleaner,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		chunkMode: chunkMode,
		log:       log,
	}
}

// IngestFiles 依次入库多个文件。reset为真时先清空集合。
// 块ID在一次调用内全局递增，跨文件不会互相覆盖。
// 入库阶段的错误是致命的，直接返回给调用方
func (s *IngestService) IngestFiles(ctx context.Context, paths []string, reset bool) (*IngestStats, error) {
	if len(paths) == 0 {
		return nil, apperrors.NewValidation("no input files provided")
	}

	if reset {
		s.log.Info("resetting vector store before ingest")
		if err := s.store.Reset(ctx); err != nil {
			return nil, err
		}
	}

	stats := &IngestStats{}
	nextChunkID := 0

	for _, path := range paths {
		count, err := s.ingestOne(ctx, path, &nextChunkID)
		if err != nil {
			return nil, err
		}
		stats.Files++
		stats.Chunks += count
	}

	stats.Dimension = s.embedder.Dimensions()
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalChunks = total
	metrics.IndexedChunks.Set(float64(total))

	s.log.Info("ingest completed",
		zap.Int("files", stats.Files),
		zap.Int("chunks", stats.Chunks),
		zap.Int("total_chunks", total))
	return stats, nil
}

// IngestDir 入库目录下所有受支持的文件，按文件名排序保证块ID稳定
func (s *IngestService) IngestDir(ctx context.Context, dir string, reset bool) (*IngestStats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.NewStoreIO("failed to read document directory", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if s.parser.Supported(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, apperrors.NewValidation(fmt.Sprintf("no supported documents under %s", dir))
	}
	return s.IngestFiles(ctx, paths, reset)
}

func (s *IngestService) ingestOne(ctx context.Context, path string, nextChunkID *int) (int, error) {
	s.log.Info("ingesting document", zap.String("path", path))

	raw, err := s.parser.ParsePath(path)
	if err != nil {
		return 0, err
	}

	cleaned := s.cleaner.Clean(raw)
	chunks := s.chunker.Split(cleaned, s.chunkMode)
	if len(chunks) == 0 {
		s.log.Warn("document produced no chunks", zap.String("path", path))
		return 0, nil
	}

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}

	source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ids := make([]string, 0, len(chunks))
	metadatas := make([]map[string]interface{}, 0, len(chunks))
	for _, chunk := range chunks {
		id := *nextChunkID
		*nextChunkID++

		metadata := s.chunker.ExtractMetadata(chunk.Text)
		metadata["chunk_id"] = id
		metadata["chunk_index"] = chunk.Index
		metadata["source"] = source

		ids = append(ids, fmt.Sprintf("chunk_%d", id))
		metadatas = append(metadatas, metadata)
	}

	if err := s.store.Add(ctx, ids, vectors, metadatas, texts); err != nil {
		return 0, err
	}

	s.log.Info("document ingested",
		zap.String("path", path),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}
