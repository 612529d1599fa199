package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TIANLI0/FloorKit/config"
	"github.com/TIANLI0/FloorKit/floor"
	"github.com/TIANLI0/FloorKit/handler"
	"github.com/TIANLI0/FloorKit/middleware"
	"github.com/TIANLI0/FloorKit/service"
	"github.com/TIANLI0/FloorKit/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	BuildID   = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := utils.InitLogger(cfg.Server.Mode, cfg.Server.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utils.Logger.Error("server exited with error", zap.Error(err))
		utils.Sync()
		os.Exit(1)
	}
}

// run 组装依赖并启动 HTTP 服务，ctx 结束时优雅退出
func run(ctx context.Context, cfg *config.Config) error {
	utils.Logger.Info("starting FloorKit server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("git_branch", GitBranch))

	opts, err := cfg.Floor.Options()
	if err != nil {
		return fmt.Errorf("invalid floor options: %w", err)
	}

	// Redis 不可用时只记录告警，检测照常进行
	redisService := service.NewRedisService(&cfg.Redis)
	defer redisService.Close()
	if err := redisService.Ping(ctx); err != nil {
		utils.Logger.Warn("redis connection failed, cache disabled", zap.Error(err))
	} else {
		utils.Logger.Info("redis connected successfully", zap.String("addr", cfg.Redis.Addr))
	}

	// 模型在第一次请求时加载
	classifier := service.NewONNXClassifier(cfg.Model)
	defer func() {
		if err := classifier.Close(); err != nil {
			utils.Logger.Warn("failed to close classifier", zap.Error(err))
		}
	}()

	pipeline, err := floor.NewPipeline(classifier, opts)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	floorService := service.NewFloorService(&cfg.Pipeline, pipeline)
	floorHandler := handler.NewFloorHandler(cfg, redisService, floorService)

	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      newRouter(floorHandler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Logger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("model", cfg.Model.Path),
			zap.Int("max_concurrent", cfg.Pipeline.MaxConcurrent))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utils.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(floorHandler *handler.FloorHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	// 健康检查和版本信息
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": Version,
		})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"build_id":   BuildID,
			"git_commit": GitCommit,
			"git_branch": GitBranch,
		})
	})

	// API路由
	api := r.Group("/api/v1")
	{
		api.POST("/floor", floorHandler.Detect)
		api.GET("/floor/:md5", floorHandler.GetByMD5)
	}
	return r
}
