package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/application/aggregation"
	appinvoice "github.com/restorecommerce/invoicing-srv-sub000/internal/application/invoice"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/cache"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/config"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/event"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/logger"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/notification"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/persistence"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/printing"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/resourceclient"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/storage"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/telemetry"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/interfaces/http/handler"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting invoicing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := telemetry.RegisterGormTracing(db.DB, cfg.Telemetry.Enabled, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	counterRepo := persistence.NewGormCounterRepository(db.DB)

	// Counter cache
	counterCache, err := cache.NewRedisCounterCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		_ = counterCache.Close()
	}()

	// Object storage for rendering artifacts
	store, err := storage.NewS3ObjectStorage(&storage.S3Config{
		Endpoint:     cfg.Storage.Endpoint,
		Region:       cfg.Storage.Region,
		AccessKey:    cfg.Storage.AccessKey,
		SecretKey:    cfg.Storage.SecretKey,
		UsePathStyle: cfg.Storage.UsePathStyle,
	}, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		for _, bucket := range []string{cfg.Storage.HTMLBucket, cfg.Storage.PDFBucket} {
			if err := store.EnsureBucket(ctx, bucket); err != nil {
				log.Warn("Failed to ensure storage bucket",
					zap.String("bucket", bucket), zap.Error(err))
			}
		}
		cancel()
	}

	// PDF renderer
	renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Renderer.Timeout,
		RemoteURL:      cfg.Renderer.RemoteURL,
		NoSandbox:      cfg.Renderer.NoSandbox,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() {
		_ = renderer.Close()
	}()

	// Resource service clients
	registry := resourceclient.NewRegistry(registryConfig(cfg), log)
	defer registry.Shutdown()

	// Domain event bus
	bus := event.NewInMemoryEventBus(log)
	_ = bus.Start(context.Background())
	defer func() {
		_ = bus.Stop(context.Background())
	}()

	// Application services
	aggregator := aggregation.NewAggregator(registry, log)
	defaults := appinvoice.Defaults{
		NumberPattern:   cfg.Invoice.NumberPattern,
		NumberStart:     cfg.Invoice.NumberStart,
		NumberIncrement: cfg.Invoice.NumberIncrement,
		HTMLBucket:      cfg.Storage.HTMLBucket,
		PDFBucket:       cfg.Storage.PDFBucket,
		DisableHTML:     cfg.Storage.DisableHTML,
		EmailProvider:   cfg.Invoice.EmailProvider,
		EmailSubject:    cfg.Invoice.EmailSubject,
		EmailCC:         cfg.Invoice.EmailCC,
		Puppeteer: printing.PuppeteerOptions{
			Format:          cfg.Renderer.Format,
			Landscape:       cfg.Renderer.Landscape,
			PrintBackground: true,
			MarginMM: printing.Margins{
				Top:    cfg.Renderer.MarginMM,
				Right:  cfg.Renderer.MarginMM,
				Bottom: cfg.Renderer.MarginMM,
				Left:   cfg.Renderer.MarginMM,
			},
		},
	}

	allocator := appinvoice.NewNumberAllocator(aggregator, counterRepo, counterCache, defaults, log)
	graphBuilder := appinvoice.NewGraphBuilder(aggregator, log)
	mailer := notification.NewSMTPSender(notification.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, log)

	saga := appinvoice.NewRenderSaga(invoiceRepo, graphBuilder, allocator, aggregator,
		nil, bus, store, renderer, mailer, defaults, log)

	// Render transport: requests out, correlated responses back in
	transport := event.NewKafkaRenderTransport(event.KafkaConfig{
		Brokers:       cfg.Kafka.Brokers,
		RequestTopic:  cfg.Kafka.RequestTopic,
		ResponseTopic: cfg.Kafka.ResponseTopic,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	}, saga, log)
	saga.SetTransport(transport)
	defer func() {
		_ = transport.Close()
	}()

	consumeCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	go func() {
		if err := transport.Run(consumeCtx); err != nil && consumeCtx.Err() == nil {
			log.Error("Render response consumer stopped", zap.Error(err))
		}
	}()

	// HTTP surface
	engine := router.Setup(log, router.Handlers{
		System:  handler.NewSystemHandler(db.Ping),
		Invoice: handler.NewInvoiceHandler(invoiceRepo, saga),
	}, router.Options{
		ServiceName:    cfg.App.Name,
		TracingEnabled: cfg.Telemetry.Enabled,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	stopConsumer()

	log.Info("Server exited gracefully")
}

// registryConfig binds configured endpoints to the full service names
// the registry is keyed by. Endpoints are configured per entity type.
func registryConfig(cfg *config.Config) resourceclient.RegistryConfig {
	services := make(map[string]resourceclient.ServiceConfig)
	for _, svc := range appinvoice.Services() {
		if endpoint, ok := cfg.Resources.Endpoints[svc.Entity]; ok && endpoint != "" {
			services[svc.Name] = resourceclient.ServiceConfig{
				Endpoint: endpoint,
				Timeout:  cfg.Resources.Timeout,
			}
		}
	}
	return resourceclient.RegistryConfig{Services: services}
}
