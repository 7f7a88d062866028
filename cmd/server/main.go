package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/smartquiz-backend/internal/cache"
	"github.com/stemsi/smartquiz-backend/internal/config"
	"github.com/stemsi/smartquiz-backend/internal/database"
	"github.com/stemsi/smartquiz-backend/internal/handler"
	"github.com/stemsi/smartquiz-backend/internal/logger"
	"github.com/stemsi/smartquiz-backend/internal/oracle"
	"github.com/stemsi/smartquiz-backend/internal/quiz"
	"github.com/stemsi/smartquiz-backend/internal/repository"
	"github.com/stemsi/smartquiz-backend/internal/router"
	"github.com/stemsi/smartquiz-backend/internal/service"
	"github.com/stemsi/smartquiz-backend/internal/validator"
	"github.com/stemsi/smartquiz-backend/internal/worker"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("oracle", cfg.OracleURL).
		Msg("Starting SmartQuiz Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	quizRepo := repository.NewQuizRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	statsRepo := repository.NewStatisticsRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	bankService := service.NewBankService(quizRepo, questionRepo, cache.NewBankCache(rdb, cfg.BankCacheTTL), log)
	quizService := service.NewQuizService(quizRepo, questionRepo, statsRepo, bankService, log)
	resultService := service.NewResultService(resultRepo, statsRepo, worker.NewStatsQueue(rdb), service.RetryPolicy{
		MaxAttempts: cfg.PersistMaxAttempts,
		BaseDelay:   cfg.PersistBackoff,
		Multiplier:  cfg.PersistBackoffMultiplier,
	}, log)

	// Sessions outlive the request that started them; ctx is cancelled only
	// after the HTTP server has stopped.
	sessionService := service.NewSessionService(
		ctx,
		bankService,
		oracle.NewClient(cfg.OracleURL, cfg.OracleTimeout, log),
		resultService,
		cache.NewSessionMarker(rdb, cfg.SessionRetention+time.Duration(cfg.QuestionCount*cfg.SecondsPerQuestion)*time.Second),
		quiz.Options{
			Settings: quiz.Settings{
				QuestionCount:      cfg.QuestionCount,
				SecondsPerQuestion: cfg.SecondsPerQuestion,
			},
			OracleTimeout: cfg.OracleTimeout,
			Log:           log,
		},
		cfg.SessionRetention,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Quiz:    handler.NewQuizHandler(quizService, cfg.MaxImportBytes),
		Session: handler.NewSessionHandler(sessionService),
		Me:      handler.NewMeHandler(sessionService, resultService),
		WS:      handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		System:  handler.NewSystemHandler(rdb, sessionService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workers, workerCtx := errgroup.WithContext(workerCtx)

	statsWorker := worker.NewStatsWorker(statsRepo, rdb, log)
	workers.Go(func() error {
		statsWorker.Start(workerCtx)
		return nil
	})
	workers.Go(func() error {
		sessionService.RunJanitor(workerCtx, time.Minute)
		return nil
	})

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, rdb, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Abandon sessions still in flight and release their markers.
	sessionService.Close(shutdownCtx)
	cancel()

	// 3. Stop background workers; the stats worker flushes its batch.
	workerCancel()
	if err := workers.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
