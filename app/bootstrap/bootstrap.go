package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/beego/beego/v2/server/web"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/campushub/backend-go/app/controllers"
	"github.com/campushub/backend-go/app/router"
	"github.com/campushub/backend-go/internal/cache"
	"github.com/campushub/backend-go/internal/config"
	"github.com/campushub/backend-go/internal/database"
	"github.com/campushub/backend-go/internal/guardrail"
	"github.com/campushub/backend-go/internal/knowledge"
	"github.com/campushub/backend-go/internal/logger"
	"github.com/campushub/backend-go/internal/metrics"
	"github.com/campushub/backend-go/internal/services"
)

// App 持有全部已装配组件，Shutdown时统一释放
type App struct {
	Config *config.Config

	Embedder  knowledge.Embedder
	Store     knowledge.VectorStore
	Generator knowledge.Generator
	Validator *guardrail.ScopeValidator

	AnswerService *services.AnswerService
	IngestService *services.IngestService

	db          *gorm.DB
	answerCache *cache.AnswerCache
	log         *zap.Logger
}

// Init 装配整个应用：配置→日志→嵌入→向量库→判定→检索→生成→服务。
// 全部显式构造，组件间依赖一目了然
func Init() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitLogger(cfg.Server.Env, os.Getenv("LOG_LEVEL")); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.GetLogger()

	embedder := knowledge.NewOpenAIEmbedder(
		cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.BaseURL)

	app := &App{Config: cfg, Embedder: embedder, log: log}

	store, db, err := buildVectorStore(cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store
	app.db = db

	app.Validator = guardrail.NewScopeValidator(
		cfg.Guardrail.Keywords, cfg.Guardrail.Threshold, logger.Named("guardrail"))

	retriever := knowledge.NewRetriever(
		embedder, store,
		cfg.Retrieval.TopK, cfg.Retrieval.ApplyMetadataFilter,
		logger.Named("retriever"))

	app.Generator = knowledge.NewLLMClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)

	if cfg.Cache.Enabled {
		app.answerCache = cache.NewAnswerCache(
			cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB,
			time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	}

	app.AnswerService = services.NewAnswerService(
		app.Validator, retriever, app.Generator, app.answerCache,
		cfg.Guardrail.Message,
		cfg.Retrieval.TopK, cfg.LLM.MaxTokens, cfg.LLM.Temperature,
		logger.Named("answer"))

	app.IngestService = services.NewIngestService(
		knowledge.NewFileParserManager(),
		knowledge.NewTextCleaner(),
		knowledge.NewChunker(cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap),
		embedder, store,
		cfg.Knowledge.ChunkMode,
		logger.Named("ingest"))

	// 启动时上报索引规模，存储不可达只记日志
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if count, err := store.Count(ctx); err == nil {
		metrics.IndexedChunks.Set(float64(count))
		log.Info("vector store ready", zap.Int("indexed_chunks", count))
	} else {
		log.Warn("vector store count unavailable", zap.Error(err))
	}

	return app, nil
}

// buildVectorStore 按配置选择向量存储实现
func buildVectorStore(cfg *config.Config) (knowledge.VectorStore, *gorm.DB, error) {
	vs := cfg.VectorStore
	switch vs.Provider {
	case "local", "":
		store, err := knowledge.NewLocalVectorStore(vs.Path, vs.Collection)
		if err != nil {
			return nil, nil, fmt.Errorf("open local vector store: %w", err)
		}
		return store, nil, nil

	case "database":
		db, err := database.Open(vs.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		store, err := knowledge.NewDatabaseVectorStore(db, vs.Collection)
		if err != nil {
			return nil, nil, fmt.Errorf("init database vector store: %w", err)
		}
		return store, db, nil

	case "milvus":
		store, err := knowledge.NewMilvusVectorStore(knowledge.MilvusOptions{
			Address:    vs.Milvus.Address,
			Username:   vs.Milvus.Username,
			Password:   vs.Milvus.Password,
			Collection: vs.Collection,
			VectorSize: vs.Milvus.VectorSize,
			Database:   vs.Milvus.Database,
			UseTLS:     vs.Milvus.UseTLS,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect milvus: %w", err)
		}
		return store, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown vector store provider: %s", vs.Provider)
}

// RunServer 注册路由并阻塞运行HTTP服务
func (a *App) RunServer() {
	web.BConfig.CopyRequestBody = true
	web.BConfig.RunMode = web.DEV
	if a.Config.Server.Env == "production" {
		web.BConfig.RunMode = web.PROD
	}

	controllers.Setup(a.AnswerService, a.Validator, a.Embedder, a.Store, a.Generator)
	router.Init()

	a.log.Info("server starting", zap.String("port", a.Config.Server.Port))
	web.Run(":" + a.Config.Server.Port)
}

// Shutdown 释放外部连接
func (a *App) Shutdown() {
	if a.answerCache != nil {
		if err := a.answerCache.Close(); err != nil {
			a.log.Warn("close answer cache", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.log.Warn("close database", zap.Error(err))
		}
	}
	logger.Sync()
}
