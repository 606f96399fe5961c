package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/xavierca1/quiz-funnel/internal/config"
	"github.com/xavierca1/quiz-funnel/internal/infra/database"
	"github.com/xavierca1/quiz-funnel/internal/infra/http/handlers"
	"github.com/xavierca1/quiz-funnel/internal/infra/idempotency"
	"github.com/xavierca1/quiz-funnel/internal/infra/integration/hotmart"
	"github.com/xavierca1/quiz-funnel/internal/infra/integration/meta"
	"github.com/xavierca1/quiz-funnel/internal/infra/mail"
	"github.com/xavierca1/quiz-funnel/internal/infra/queue"
	"github.com/xavierca1/quiz-funnel/internal/infra/worker"
	"github.com/xavierca1/quiz-funnel/internal/usecase"
)

func main() {
	godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Banco
	db, err := database.NewDBConnection(cfg.Database)
	if err != nil {
		zap.L().Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		zap.L().Fatal("Migration failed", zap.Error(err))
	}

	// 2. Repositórios
	leadRepo := database.NewLeadRepository(db)
	purchaseRepo := database.NewPurchaseRepository(db)

	// 3. Integrações
	metaClient := meta.NewClient(cfg.Meta, nil)
	if err := cfg.Meta.Validate(); err != nil {
		zap.L().Warn("Meta Conversions API not configured, events will fail until credentials are set", zap.Error(err))
	}
	verifier := hotmart.NewVerifier(cfg.Hotmart.WebhookSecret, cfg.Hotmart.InsecureSkipVerify)

	// 4. Infra opcional: fila, dedup e alerta
	var (
		rabbitMQ *queue.RabbitMQ
		producer queue.QueueProducerInterface
	)
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err = queue.NewRabbitMQ(cfg.RabbitMQ.URL)
		if err != nil {
			zap.L().Warn("RabbitMQ unavailable, retries will rely on the sweeper", zap.Error(err))
			rabbitMQ = nil
		} else {
			defer rabbitMQ.Close()
			producer = queue.NewProducer(rabbitMQ.Ch)
		}
	}

	var (
		claimer *idempotency.RedisClaimer
		dedup   usecase.DeliveryDeduplicator
		redisHC handlers.RedisPinger
	)
	if cfg.Redis.Addr != "" {
		rdb := idempotency.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		claimer = idempotency.NewRedisClaimer(rdb, cfg.Redis.DedupTTL)
		if err := claimer.Ping(ctx); err != nil {
			zap.L().Warn("Redis unreachable, dedup falls back to the database constraint", zap.Error(err))
		}
		dedup = claimer
		redisHC = claimer
	}

	var alert usecase.AlertNotifier
	if cfg.Mail.Enabled() {
		alert = mail.NewAlertSender(cfg.Mail)
	}

	// 5. UseCases
	attributor := usecase.NewPurchaseAttributor(purchaseRepo, metaClient, producer, alert, cfg.Meta, cfg.Attribution.MaxAttempts)
	submitQuizUC := usecase.NewSubmitQuizUseCase(leadRepo, metaClient, cfg.Meta)
	processWebhookUC := usecase.NewProcessWebhookUseCase(leadRepo, purchaseRepo, attributor, dedup)
	retryUC := usecase.NewRetryAttributionUseCase(leadRepo, purchaseRepo, attributor)

	// 6. Workers
	if rabbitMQ != nil {
		retryWorker := queue.NewWorker(rabbitMQ.Ch, retryUC)
		go func() {
			if err := retryWorker.Start(ctx, queue.QueueName); err != nil {
				zap.L().Error("Attribution retry worker exited", zap.Error(err))
			}
		}()
	}

	sweeper := worker.NewAttributionSweeper(purchaseRepo, producer, retryUC, cfg.Attribution)
	go sweeper.Start(ctx)

	// 7. Handlers e rotas
	router := newRouter(cfg, routes{
		quiz:     handlers.NewQuizHandler(submitQuizUC),
		webhook:  handlers.NewWebhookHandler(verifier, processWebhookUC),
		metaTest: handlers.NewMetaTestHandler(metaClient),
		health:   handlers.NewHealthHandler(db, rabbitConn(rabbitMQ), redisHC),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("Quiz funnel server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Graceful shutdown failed", zap.Error(err))
	}
}
