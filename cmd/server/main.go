package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guardian-server/internal/config"
	"guardian-server/internal/database"
	"guardian-server/internal/handler"
	"guardian-server/internal/messaging"
	"guardian-server/internal/realtime"
	"guardian-server/internal/service"
	"guardian-server/migrations"
	"guardian-server/pkg/migration"
	"guardian-server/shared/authutils"
	sharedLogger "guardian-server/shared/logger"
	sharedMiddleware "guardian-server/shared/middleware"

	rateli "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

const serviceName = "guardian-server"

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	logCfg := sharedLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		Service:  serviceName,
	}
	logger, err := sharedLogger.New(logCfg)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Logger initialized successfully", zap.String("logLevel", cfg.LogLevel), zap.String("encoding", cfg.LogEncoding))

	// Хаб и мигратор пишут через zerolog
	zl := sharedLogger.NewZerolog(logCfg, os.Stdout)

	// --- External Connections ---
	pgPool, err := setupPostgres(cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	if cfg.MigrationsOnStart {
		migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		migrator := migration.NewMigrator(migration.Config{MigrationsFS: migrations.FS}, pgPool, zl)
		err = migrator.Up(migrateCtx)
		migrateCancel()
		if err != nil {
			zap.L().Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	redisClient, err := setupRedis(cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	mqConn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
	if err != nil {
		zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mqConn.Close()

	// --- Dependency Injection ---
	txManager := database.NewPgTxManager(pgPool, logger)
	tokenRepo := database.NewPgGuardianTokenRepository(logger)
	itemRepo := database.NewPgTrashItemRepository(logger)
	playerRepo := database.NewPgPlayerRepository(logger)
	actionRepo := database.NewPgActionRepository(logger)
	leaderboardCache := database.NewRedisLeaderboardCache(redisClient, logger)
	sessionRepo := database.NewRedisSessionRepository(redisClient, logger)

	publisher, err := messaging.NewRabbitMQGuardianEventPublisher(mqConn, logger)
	if err != nil {
		zap.L().Fatal("Failed to create guardian event publisher", zap.Error(err))
	}
	defer publisher.Close()

	remediationSvc := service.NewRemediationService(txManager, tokenRepo, itemRepo, playerRepo, publisher, logger)
	leaderboardSvc := service.NewLeaderboardService(pgPool, playerRepo, leaderboardCache, cfg.LeaderboardCacheTTL, logger)
	actionSvc := service.NewActionService(pgPool, txManager, actionRepo, playerRepo, logger)
	catalogSvc := service.NewCatalogService(pgPool, txManager, itemRepo, tokenRepo, logger)
	authSvc := service.NewAuthService(pgPool, playerRepo, sessionRepo, service.AuthConfig{
		JWTSecret:      cfg.JWTSecret,
		PasswordPepper: cfg.PasswordPepper,
		AccessTokenTTL: cfg.AccessTokenTTL,
	}, logger)

	verifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, logger)
	if err != nil {
		zap.L().Fatal("Failed to create JWT verifier", zap.Error(err))
	}

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	hub := realtime.NewHub(zl)
	go hub.Run(hubCtx)
	wsHandler := realtime.NewHandler(hub, cfg.GetAllowedOrigins(), zl)

	completionHandler := service.NewCompletionEventHandler(leaderboardSvc, catalogSvc, hub, cfg.MinOpenGuardianTokens, logger)
	consumer, err := messaging.NewGuardianEventConsumer(mqConn, completionHandler, logger)
	if err != nil {
		zap.L().Fatal("Failed to create guardian event consumer", zap.Error(err))
	}

	ensureCtx, ensureCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := catalogSvc.EnsureOpenTokens(ensureCtx, cfg.MinOpenGuardianTokens); err != nil {
		zap.L().Error("Failed to ensure open guardian tokens on startup", zap.Error(err))
	}
	ensureCancel()

	// --- Rate Limiter ---
	rateLimitStore := rateli.RedisStore(&rateli.RedisOptions{
		RedisClient: redisClient,
		Rate:        cfg.AuthRateLimitWindow,
		Limit:       cfg.AuthRateLimit,
	})
	rateLimitMiddleware := rateli.RateLimiter(rateLimitStore, &rateli.Options{
		ErrorHandler: func(c *gin.Context, info rateli.Info) {
			zap.L().Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			c.String(http.StatusTooManyRequests, "Too many requests. Try again in "+time.Until(info.ResetTime).String())
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})

	if err := handler.RegisterValidators(); err != nil {
		zap.L().Fatal("Failed to register request validators", zap.Error(err))
	}
	guardianHandler := handler.NewGuardianHandler(remediationSvc, leaderboardSvc, actionSvc, authSvc, catalogSvc, logger)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(sharedMiddleware.GinZapLogger(logger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	allowedOrigins := cfg.GetAllowedOrigins()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(sharedMiddleware.Session(verifier.VerifyToken, sessionRepo.GetPlayerIDBySession, logger))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)
	router.GET("/ws/guardian", gin.WrapF(wsHandler.ServeWS))

	guardianHandler.RegisterRoutes(router, rateLimitMiddleware)

	// Метрики подключаем после регистрации роутов
	p.Use(router)

	// --- Background Workers ---
	go func() {
		zap.L().Info("Starting GuardianEventConsumer...")
		if err := consumer.StartConsuming(); err != nil {
			zap.L().Error("GuardianEventConsumer stopped with error", zap.Error(err))
		} else {
			zap.L().Info("GuardianEventConsumer stopped gracefully.")
		}
	}()

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	if err := consumer.Stop(); err != nil {
		zap.L().Error("Error stopping GuardianEventConsumer", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}
	hubCancel()

	zap.L().Info("Server exiting")
}

// setupPostgres initializes the PostgreSQL connection pool with retry logic.
func setupPostgres(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	var lastErr error
	maxRetries := 50
	retryDelay := 3 * time.Second

	zap.L().Info("Attempting to connect to PostgreSQL", zap.Int("max_retries", maxRetries), zap.Duration("retry_delay", retryDelay))

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		connectCtx, connectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
		connectCancel()
		if err != nil {
			lastErr = err
			zap.L().Warn("Postgres connection pool creation failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
			time.Sleep(retryDelay)
			continue
		}

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = pool.Ping(pingCtx)
		pingCancel()
		if err == nil {
			zap.L().Info("Successfully connected and pinged PostgreSQL", zap.Int("attempt", attempt))
			return pool, nil
		}

		pool.Close()
		lastErr = err
		zap.L().Warn("Postgres ping failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(retryDelay)
	}

	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", maxRetries, lastErr)
}

// setupRedis initializes the Redis client with retry logic.
func setupRedis(cfg *config.Config) (*redis.Client, error) {
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	var lastErr error
	maxRetries := 50
	retryDelay := 3 * time.Second

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		client := redis.NewClient(redisOpts)

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := client.Ping(pingCtx).Result()
		pingCancel()
		if err == nil {
			zap.L().Info("Successfully connected and pinged Redis", zap.Int("attempt", attempt), zap.String("address", redisOpts.Addr))
			return client, nil
		}

		_ = client.Close()
		lastErr = err
		zap.L().Warn("Redis ping failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(retryDelay)
	}

	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками.
func connectRabbitMQ(rawURL string, logger *zap.Logger) (*amqp091.Connection, error) {
	var err error
	maxRetries := 50
	retryDelay := 5 * time.Second
	logger.Info("Attempting to connect to RabbitMQ", zap.String("url", maskURL(rawURL)), zap.Int("max_retries", maxRetries))

	for i := 0; i < maxRetries; i++ {
		var conn *amqp091.Connection
		conn, err = amqp091.Dial(rawURL)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ", zap.Int("attempt", i+1))
			go func() {
				notifyClose := conn.NotifyClose(make(chan *amqp091.Error, 1))
				if closeErr := <-notifyClose; closeErr != nil {
					logger.Error("RabbitMQ connection closed unexpectedly", zap.Error(closeErr))
				}
			}()
			return conn, nil
		}
		logger.Warn("RabbitMQ connection failed, retrying...", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

func maskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url"
	}
	return u.Redacted()
}
