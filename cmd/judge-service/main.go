package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codejudge/internal/common/auth"
	"codejudge/internal/common/cache"
	"codejudge/internal/common/db"
	commonmw "codejudge/internal/common/http/middleware"
	"codejudge/internal/common/mq"
	"codejudge/internal/common/storage"
	"codejudge/internal/judge/controller"
	"codejudge/internal/judge/repository"
	"codejudge/internal/judge/sandbox"
	"codejudge/internal/judge/sandbox/cleanup"
	"codejudge/internal/judge/sandbox/config"
	"codejudge/internal/judge/sandbox/engine"
	"codejudge/internal/judge/sandbox/job"
	"codejudge/internal/judge/sandbox/runner"
	"codejudge/internal/judge/service"
	"codejudge/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/judge_service.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()

	mysqlDB, err := db.NewMySQLWithConfig(&appCfg.Database)
	if err != nil {
		logger.Error(ctx, "init database failed", zap.Error(err))
		return
	}
	defer func() {
		_ = mysqlDB.Close()
	}()
	dbProvider := db.NewManager(mysqlDB)

	redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
	if err != nil {
		logger.Error(ctx, "init redis failed", zap.Error(err))
		return
	}
	defer func() {
		_ = redisCache.Close()
	}()

	producer, err := mq.NewKafkaProducer(appCfg.Kafka.toMQConfig())
	if err != nil {
		logger.Error(ctx, "init kafka producer failed", zap.Error(err))
		return
	}
	defer func() {
		_ = producer.Close()
	}()

	archive, err := buildSourceArchive(ctx, appCfg)
	if err != nil {
		logger.Error(ctx, "init source archive failed", zap.Error(err))
		return
	}
	if archive != nil {
		defer archive.Close()
	}

	layout := job.NewLayout(appCfg.Execution.WorkRoot)
	if err := layout.Ensure(); err != nil {
		logger.Error(ctx, "init work root failed", zap.Error(err))
		return
	}

	languages, err := config.NewLocalRepository(appCfg.Language.Languages)
	if err != nil {
		logger.Error(ctx, "load languages failed", zap.Error(err))
		return
	}

	eng, err := engine.NewEngine(appCfg.Execution.toEngineConfig())
	if err != nil {
		logger.Error(ctx, "init process engine failed", zap.Error(err))
		return
	}
	runners := runner.NewRegistry(eng, runner.Config{MaxOutputBytes: appCfg.Execution.MaxOutputBytes})
	supervisor := sandbox.NewSupervisor(runners, cleanup.NewCoordinator(), sandbox.Config{
		CompileTimeout: appCfg.Execution.CompileTimeout,
	})
	supervisor.SetObserver(sandbox.LogObserver{})

	statusPublisher := repository.NewMQStatusEventPublisher(producer, appCfg.Status.FinalTopic)
	svcCfg := service.Config{
		Executor:       supervisor,
		Materializer:   job.NewMaterializer(layout),
		Languages:      languages,
		Problems:       repository.NewProblemRepository(dbProvider, redisCache, appCfg.ProblemCache.TTL, appCfg.ProblemCache.EmptyTTL),
		Submissions:    repository.NewSubmissionRepository(dbProvider, redisCache),
		Status:         repository.NewStatusRepository(redisCache, appCfg.Status.TTL, statusPublisher),
		RunTimeout:     appCfg.Execution.RunTimeout,
		AcquireTimeout: appCfg.Worker.AcquireTimeout,
		StatusTimeout:  appCfg.Status.Timeout,
		MaxCodeBytes:   appCfg.Execution.MaxCodeBytes,
		MaxInputBytes:  appCfg.Execution.MaxInputBytes,
		WorkerPoolSize: appCfg.Worker.PoolSize,
	}
	if archive != nil {
		svcCfg.Archive = archive
	}
	judgeSvc, err := service.NewService(svcCfg)
	if err != nil {
		logger.Error(ctx, "init judge service failed", zap.Error(err))
		return
	}

	var authenticator commonmw.Authenticator
	if appCfg.Auth.JWTSecret != "" {
		blacklist := auth.NewTokenBlacklist(redisCache, appCfg.Auth.BlacklistRedisTimeout, appCfg.Auth.BlacklistLocalSize, appCfg.Auth.BlacklistLocalTTL)
		authenticator = auth.NewAuthenticator(appCfg.Auth.JWTSecret, appCfg.Auth.JWTIssuer, blacklist)
	}
	authMW := commonmw.AuthMiddleware(authenticator, commonmw.AuthPolicy{Mode: appCfg.Auth.Mode})

	httpServer := buildHTTPServer(appCfg.Server, controller.NewJudgeController(judgeSvc), authMW)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(ctx, "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "judge http server started",
			zap.String("addr", appCfg.Server.Addr),
			zap.String("work_root", layout.Root),
			zap.Int("pool_size", appCfg.Worker.PoolSize),
		)
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error(ctx, "http server shutdown failed", zap.Error(err))
	}
}

// buildSourceArchive returns nil when no MinIO endpoint is configured.
func buildSourceArchive(ctx context.Context, cfg *AppConfig) (*repository.SourceArchive, error) {
	if cfg.MinIO.Endpoint == "" {
		logger.Warn(ctx, "minio endpoint not configured, source archive disabled")
		return nil, nil
	}
	objStorage, err := storage.NewMinIOStorage(cfg.MinIO)
	if err != nil {
		return nil, err
	}
	if err := objStorage.EnsureBucket(ctx, cfg.Source.Bucket); err != nil {
		return nil, err
	}
	return repository.NewSourceArchive(objStorage, cfg.Source.Bucket, cfg.Source.Prefix)
}

func buildHTTPServer(cfg ServerConfig, judgeController *controller.JudgeController, authMW gin.HandlerFunc) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(requestLogger())

	api := router.Group("/api/v1/judge")
	judgeController.RegisterRoutes(api, authMW)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
