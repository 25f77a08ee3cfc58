package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/pulsecrm/backend/api/handler"
	"github.com/pulsecrm/backend/internal/config"
	"github.com/pulsecrm/backend/internal/infrastructure/monitor"
	pgInfra "github.com/pulsecrm/backend/internal/infrastructure/postgres"
	"github.com/pulsecrm/backend/internal/infrastructure/queue"
	redisInfra "github.com/pulsecrm/backend/internal/infrastructure/redis"
	"github.com/pulsecrm/backend/internal/infrastructure/textgen"
	"github.com/pulsecrm/backend/internal/infrastructure/vendor"
	"github.com/pulsecrm/backend/internal/middleware"
	"github.com/pulsecrm/backend/internal/router"
	"github.com/pulsecrm/backend/internal/services"
	"github.com/pulsecrm/backend/internal/services/lifecycle"
	"github.com/pulsecrm/backend/pkg/httpcontext"
	"github.com/pulsecrm/backend/pkg/logger"
	"github.com/pulsecrm/backend/repository/postgres"
	redisRepo "github.com/pulsecrm/backend/repository/redis"
	authUC "github.com/pulsecrm/backend/usecase/auth"
	campaignUC "github.com/pulsecrm/backend/usecase/campaign"
	customerUC "github.com/pulsecrm/backend/usecase/customer"
	segmentUC "github.com/pulsecrm/backend/usecase/segment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	deliveryQueue, err := queue.Open(cfg.Queue.Path, "deliveries")
	if err != nil {
		zapLogger.Fatal("failed to open delivery queue", zap.Error(err))
	}
	manager.Register("delivery_queue", func(ctx context.Context) error {
		return deliveryQueue.Close()
	})

	mon := monitor.New(pool, redisClient, deliveryQueue, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	segmentRepo := postgres.NewSegmentRepository(pool)
	campaignRepo := postgres.NewCampaignRepository(pool)
	deliveryRepo := postgres.NewDeliveryRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, 24*time.Hour)

	var sender vendor.Sender
	if cfg.Vendor.URL != "" {
		sender = vendor.NewClient(cfg.Vendor.URL, cfg.Vendor.APIKey, cfg.Vendor.Timeout, zapLogger)
	} else {
		sender = vendor.NewSimulator(cfg.Vendor.SuccessRate, time.Now().UnixNano(), zapLogger)
	}

	var generator textgen.Generator
	if cfg.TextGen.URL != "" {
		generator = textgen.NewClient(cfg.TextGen.URL, cfg.TextGen.APIKey, cfg.TextGen.Timeout, zapLogger)
	}

	worker := services.NewDeliveryWorker(
		deliveryQueue,
		mon,
		sender,
		campaignRepo,
		deliveryRepo,
		zapLogger,
		services.WorkerConfig{
			Interval:   cfg.Queue.DrainInterval,
			BatchSize:  cfg.Queue.BatchSize,
			MaxRetries: cfg.Queue.MaxRetry,
		},
	)
	worker.Start()
	manager.Register("delivery_worker", func(ctx context.Context) error {
		worker.Stop(ctx)
		return nil
	})

	deliveryBridge := services.NewDeliveryBridge(worker)

	var translator *segmentUC.Translator
	if generator != nil {
		translator = segmentUC.NewTranslator(generator, cfg.TextGen.Timeout, zapLogger)
	}

	authUseCase := authUC.New(userRepo, sessionRepo, zapLogger)
	customerUseCase := customerUC.New(customerRepo, orderRepo, zapLogger)
	segmentUseCase := segmentUC.New(segmentRepo, customerRepo, translator, zapLogger)
	campaignUseCase := campaignUC.New(
		campaignRepo,
		segmentRepo,
		customerRepo,
		deliveryRepo,
		deliveryBridge,
		generator,
		cfg.TextGen.Timeout,
		zapLogger,
	)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:     apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, cfg.JWT.Secret, time.Hour),
		Customer: apiHandler.NewCustomerHandler(customerUseCase, ctxAdapter, zapLogger),
		Segment:  apiHandler.NewSegmentHandler(segmentUseCase, ctxAdapter, zapLogger),
		Campaign: apiHandler.NewCampaignHandler(campaignUseCase, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
