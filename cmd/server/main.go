package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appchat "github.com/playhub/backend/internal/application/chat"
	appidentity "github.com/playhub/backend/internal/application/identity"
	appnotification "github.com/playhub/backend/internal/application/notification"
	"github.com/playhub/backend/internal/application/profile"
	appstore "github.com/playhub/backend/internal/application/store"
	appstream "github.com/playhub/backend/internal/application/stream"
	"github.com/playhub/backend/internal/application/upload"
	"github.com/playhub/backend/internal/domain/chat"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/store"
	"github.com/playhub/backend/internal/infrastructure/auth"
	"github.com/playhub/backend/internal/infrastructure/cache"
	"github.com/playhub/backend/internal/infrastructure/config"
	"github.com/playhub/backend/internal/infrastructure/event"
	"github.com/playhub/backend/internal/infrastructure/logger"
	"github.com/playhub/backend/internal/infrastructure/payment"
	"github.com/playhub/backend/internal/infrastructure/persistence"
	"github.com/playhub/backend/internal/infrastructure/persistence/mongodb"
	"github.com/playhub/backend/internal/infrastructure/scheduler"
	"github.com/playhub/backend/internal/infrastructure/storage"
	"github.com/playhub/backend/internal/infrastructure/telemetry"
	"github.com/playhub/backend/internal/interfaces/http/handler"
	"github.com/playhub/backend/internal/interfaces/http/middleware"
	"github.com/playhub/backend/internal/interfaces/http/router"
	"github.com/playhub/backend/internal/interfaces/realtime"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/playhub/backend/docs"
)

//	@title			PlayHub API
//	@version		1.0
//	@description	Social gaming platform: profiles, store, live streams, chat and notifications

//	@contact.name	API Support
//	@contact.url	https://github.com/playhub/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const eventHandlerIdempotencyTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	ctx := context.Background()

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
		Profiling:         cfg.Telemetry.ProfilingEnabled,
	}

	// OTLP log export tees into the console core
	logsCfg := telemetryCfg
	logsCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled
	logProvider, err := telemetry.NewLoggerProvider(ctx, logsCfg)
	if err != nil {
		panic("Failed to initialize log exporter: " + err.Error())
	}
	var logOpts []logger.Option
	if logProvider.IsEnabled() {
		level, levelErr := zapcore.ParseLevel(cfg.Log.Level)
		if levelErr != nil {
			level = zapcore.InfoLevel
		}
		logOpts = append(logOpts, logger.WithCore(logProvider.Core(level)))
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, logOpts...)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()
	defer func() {
		if err := logProvider.Shutdown(context.Background(), log); err != nil {
			log.Warn("Error flushing log exporter", zap.Error(err))
		}
	}()

	log.Info("Starting PlayHub",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", cfg.App.Version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Warn("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		ProfileTypes:    cfg.Telemetry.ProfilingTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		_ = profiler.Stop()
	}()

	metrics := telemetry.NewMetrics()

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Redis is optional; every store it backs has an in-memory fallback
	var redisClient redis.UniversalClient
	var redisPinger handler.Pinger
	if cfg.Redis.Host != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory stores", zap.Error(err))
		} else {
			redisClient = client
			redisPinger = handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
			defer func() {
				if err := client.Close(); err != nil {
					log.Warn("Error closing Redis client", zap.Error(err))
				}
			}()
			log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
		}
	}
	stores := cache.NewFactory(redisClient, cache.WithLogger(log))

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	followRepo := persistence.NewGormFollowRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	streamRepo := persistence.NewGormStreamRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	var conversationRepo chat.ConversationRepository = persistence.NewGormConversationRepository(db.DB)
	var messageRepo chat.MessageRepository = persistence.NewGormMessageRepository(db.DB)
	if cfg.Chat.Store == "mongo" {
		client, err := mongodb.Connect(ctx, cfg.Chat, log)
		if err != nil {
			log.Fatal("Failed to connect to chat store", zap.Error(err))
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warn("Error disconnecting MongoDB", zap.Error(err))
			}
		}()
		mdb := client.Database(cfg.Chat.MongoDatabase)
		if err := mongodb.EnsureIndexes(ctx, mdb); err != nil {
			log.Fatal("Failed to create chat indexes", zap.Error(err))
		}
		conversationRepo = mongodb.NewConversationRepository(mdb)
		messageRepo = mongodb.NewMessageRepository(mdb)
	}

	// Object storage and payments
	var objects upload.ObjectStorage = storage.NewStubObjectStorage(cfg.Storage.PublicBaseURL)
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn("Media bucket is not reachable yet", zap.Error(err))
		}
		objects = s3
	} else {
		log.Warn("Object storage disabled, upload URLs are not signed")
	}
	uploads := upload.NewService(objects, cfg.Storage.PresignExpiration, cfg.Storage.MaxUploadSize)

	var gateway store.PaymentGateway = payment.NewStubGateway()
	if cfg.Payment.Enabled {
		stripeGateway, err := payment.NewStripeGateway(cfg.Payment, log)
		if err != nil {
			log.Fatal("Failed to initialize payment gateway", zap.Error(err))
		}
		gateway = stripeGateway
	} else {
		log.Warn("Payments disabled, orders are marked paid at checkout")
	}

	// Event bus; handlers run off the request goroutine
	eventBus := event.NewInMemoryEventBus(log, event.WithAsyncDispatch(1024, 4))

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := stores.TokenBlacklist()
	authService := appidentity.NewAuthService(userRepo, jwtService, blacklist, eventBus, log)
	userService := appidentity.NewUserService(userRepo, jwtService, blacklist, eventBus, log)
	profileService := profile.NewService(userRepo, followRepo, uploads, eventBus, log)
	productService := appstore.NewProductService(productRepo, uploads, log)
	cartService := appstore.NewCartService(cartRepo, productRepo, log)
	checkoutService := appstore.NewCheckoutService(appstore.CheckoutDeps{
		Scope:          txScope,
		CartRepo:       cartRepo,
		ProductRepo:    productRepo,
		OrderRepo:      orderRepo,
		Gateway:        gateway,
		Idempotency:    stores.IdempotencyStore("checkout:"),
		IdempotencyTTL: cfg.Store.IdempotencyTTL,
		Events:         eventBus,
		Metrics:        metrics,
		Logger:         log,
	})
	orderService := appstore.NewOrderService(appstore.OrderDeps{
		Scope:          txScope,
		OrderRepo:      orderRepo,
		Gateway:        gateway,
		Idempotency:    stores.IdempotencyStore("webhook:"),
		IdempotencyTTL: cfg.Store.IdempotencyTTL,
		Events:         eventBus,
		Metrics:        metrics,
		Logger:         log,
	})
	streamService := appstream.NewService(streamRepo, stores.ViewerTracker(), uploads, eventBus, metrics, log)
	chatService := appchat.NewService(conversationRepo, messageRepo, userRepo, eventBus, log)

	hub := realtime.NewHub(chatService,
		realtime.WithLogger(log),
		realtime.WithMetrics(metrics),
		realtime.WithOptions(realtime.OptionsFromConfig(cfg.Realtime)),
	)

	notificationService := appnotification.NewService(notificationRepo, log).
		WithPusher(hub).
		WithMetrics(metrics)

	// Event subscriptions: the hub relays chat events live, notification
	// handlers persist and push. Redelivered events are dropped by id.
	eventBus.Subscribe(hub)
	handlerIdempotency := stores.IdempotencyStore("events:")
	notificationHandlers := map[string]shared.EventHandler{
		"notify_follow":  appnotification.NewFollowHandler(notificationService, userRepo, log),
		"notify_message": appnotification.NewMessageHandler(notificationService, userRepo, hub, log),
		"notify_order":   appnotification.NewOrderHandler(notificationService, log),
		"notify_stream":  appnotification.NewStreamLiveHandler(notificationService, userRepo, followRepo, log),
	}
	for name, h := range notificationHandlers {
		eventBus.Subscribe(event.NewIdempotentHandler(name, h, handlerIdempotency, eventHandlerIdempotencyTTL, log))
	}
	log.Info("Event handlers registered",
		zap.Strings("realtime_events", hub.EventTypes()),
		zap.Int("notification_handlers", len(notificationHandlers)),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Background jobs
	if cfg.Scheduler.Enabled {
		jobs := scheduler.New(scheduler.Config{JobTimeout: cfg.Scheduler.JobTimeout}, metrics, log)
		registrations := []struct {
			schedule string
			job      scheduler.Job
		}{
			{cfg.Scheduler.OrderExpirySchedule, scheduler.NewOrderExpiryJob(orderService, cfg.Store.PendingOrderTTL, log)},
			{cfg.Scheduler.StreamCloseSchedule, scheduler.NewStaleStreamJob(streamService, cfg.Stream.MaxDuration, log)},
			{cfg.Scheduler.NotificationSchedule, scheduler.NewNotificationPurgeJob(notificationService, cfg.Scheduler.NotificationRetention, log)},
		}
		for _, r := range registrations {
			if err := jobs.Register(r.schedule, r.job); err != nil {
				log.Fatal("Failed to register job", zap.String("job", r.job.Name()), zap.Error(err))
			}
		}
		jobs.Start()
		defer func() {
			if err := jobs.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
		log.Info("Scheduler started", zap.Int("jobs", len(registrations)))
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	dbPinger := handler.PingFunc(db.Ping)
	engine := router.New(router.Config{
		APIVersion:       "v1",
		ServiceName:      cfg.Telemetry.ServiceName,
		TracingEnabled:   tracerProvider.IsEnabled(),
		ProfilingEnabled: profiler.IsEnabled(),
		HTTP:             cfg.HTTP,
		Swagger:          cfg.Swagger,
	}, router.Deps{
		Logger:  log,
		Metrics: metrics,
		JWT: middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: blacklist,
			Logger:         log,
		},
	}, router.Handlers{
		Auth:         handler.NewAuthHandler(authService, cfg.Cookie),
		User:         handler.NewUserHandler(profileService, userService),
		Product:      handler.NewProductHandler(productService),
		Cart:         handler.NewCartHandler(cartService, checkoutService),
		Order:        handler.NewOrderHandler(orderService),
		Stream:       handler.NewStreamHandler(streamService),
		Chat:         handler.NewChatHandler(chatService),
		Notification: handler.NewNotificationHandler(notificationService),
		Socket:       handler.NewSocketHandler(hub),
		System:       handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, dbPinger, redisPinger),
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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// hijacked websocket connections are not tracked by srv.Shutdown
	hub.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
