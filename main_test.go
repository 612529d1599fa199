package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TIANLI0/FloorKit/config"
	"github.com/TIANLI0/FloorKit/floor"
	"github.com/TIANLI0/FloorKit/handler"
	"github.com/TIANLI0/FloorKit/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterHealthAndVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Redis:    config.RedisConfig{Addr: "127.0.0.1:1", TTL: time.Minute},
		Pipeline: config.PipelineConfig{MaxConcurrent: 1, QueueTimeout: 1},
	}
	pipeline, err := floor.NewPipeline(service.NewONNXClassifier(cfg.Model), floor.DefaultOptions())
	require.NoError(t, err)
	redisService := service.NewRedisService(&cfg.Redis)
	defer redisService.Close()

	r := newRouter(handler.NewFloorHandler(cfg, redisService, service.NewFloorService(&cfg.Pipeline, pipeline)))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, Version, health["version"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "git_commit")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/floor", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRunRejectsInvalidFloorOptions(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)
	cfg.Floor.FusionMode = "xor"
	err = run(context.Background(), cfg)
	assert.ErrorIs(t, err, floor.ErrConfiguration)
}

func TestRunStopsWhenContextDone(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)
	cfg.Server.Port = "127.0.0.1:0"
	cfg.Server.Mode = gin.TestMode
	cfg.Redis.Addr = "127.0.0.1:1"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, run(ctx, cfg))
}
