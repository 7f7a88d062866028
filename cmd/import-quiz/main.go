package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/stemsi/smartquiz-backend/internal/cache"
	"github.com/stemsi/smartquiz-backend/internal/config"
	"github.com/stemsi/smartquiz-backend/internal/database"
	"github.com/stemsi/smartquiz-backend/internal/logger"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stemsi/smartquiz-backend/internal/repository"
	"github.com/stemsi/smartquiz-backend/internal/service"
	"github.com/stemsi/smartquiz-backend/internal/validator"
)

func main() {
	var (
		title string
		path  string
	)
	flag.StringVar(&title, "title", "", "Quiz title")
	flag.StringVar(&path, "file", "-", "Generated quiz document, - for stdin")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	raw, err := readDocument(path, cfg.MaxImportBytes)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to read quiz document")
	}

	req := model.ImportQuizRequest{Title: strings.TrimSpace(title), Document: raw}
	if fields := validator.Struct(&req); fields != nil {
		for field, msg := range fields {
			fmt.Printf("  %s: %s\n", field, msg)
		}
		log.Fatal().Msg("Invalid import request")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	quizRepo := repository.NewQuizRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	statsRepo := repository.NewStatisticsRepository(pool)

	// Redis is optional here; without it no cached bank needs dropping.
	var banks *service.BankService
	if rdb, err := database.NewRedisClient(ctx, cfg, log); err == nil {
		defer rdb.Close()
		banks = service.NewBankService(quizRepo, questionRepo, cache.NewBankCache(rdb, cfg.BankCacheTTL), log)
	} else {
		log.Warn().Err(err).Msg("Redis unavailable, skipping cache")
	}

	quizService := service.NewQuizService(quizRepo, questionRepo, statsRepo, banks, log)
	detail, err := quizService.Import(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	fmt.Printf("Imported %q as %s\n", detail.Title, detail.ID)
	for _, t := range model.Tiers {
		fmt.Printf("  %-6s %d\n", t, detail.TierCounts[t])
	}
}

func readDocument(path string, limit int64) (string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("document exceeds %d bytes", limit)
	}
	return string(data), nil
}
