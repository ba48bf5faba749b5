// Command export aggregates every saved annotated record into a single JSON
// array file, the same operation the API exposes as a download.
package main

import (
	"flag"
	"log"
	"os"

	"annoforge/internal/config"
	"annoforge/internal/logger"
	"annoforge/internal/repository"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	out := flag.String("out", "data.json", "output file for the aggregated records")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	recordRepository := repository.NewFileRecordRepository(cfg.Data.Dir)
	data, err := recordRepository.ExportAll()
	if err != nil {
		appLogger.Fatal("Failed to aggregate records", zap.Error(err))
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		appLogger.Fatal("Failed to write export file", zap.Error(err), zap.String("out", *out))
	}
	appLogger.Info("Export written",
		zap.String("out", *out),
		zap.Int("bytes", len(data)),
	)
}
