package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/campushub/backend-go/app/bootstrap"
	"github.com/campushub/backend-go/internal/logger"
)

func main() {
	var (
		dir   = flag.String("dir", "", "directory of documents to ingest")
		reset = flag.Bool("reset", false, "wipe the collection before ingesting")
	)
	flag.Parse()

	files := flag.Args()
	if *dir == "" && len(files) == 0 {
		log.Fatal("usage: ingest [-reset] [-dir documents/] [file ...]")
	}

	app, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer app.Shutdown()

	ctx := context.Background()

	if *dir != "" {
		stats, err := app.IngestService.IngestDir(ctx, *dir, *reset)
		if err != nil {
			logger.Fatal("directory ingest failed", zap.String("dir", *dir), zap.Error(err))
		}
		logger.Info("directory ingested",
			zap.Int("files", stats.Files),
			zap.Int("chunks", stats.Chunks),
			zap.Int("total_chunks", stats.TotalChunks))
		// 文件参数与目录不混用
		os.Exit(0)
	}

	stats, err := app.IngestService.IngestFiles(ctx, files, *reset)
	if err != nil {
		logger.Fatal("ingest failed", zap.Error(err))
	}
	logger.Info("ingest finished",
		zap.Int("files", stats.Files),
		zap.Int("chunks", stats.Chunks),
		zap.Int("total_chunks", stats.TotalChunks))
}
