package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/TIANLI0/FloorKit/config"
	"github.com/TIANLI0/FloorKit/model"
	"github.com/TIANLI0/FloorKit/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const floorKeyPrefix = "floor:"

type RedisService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisService(cfg *config.RedisConfig) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisService{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// GetFloorResult 从缓存获取地板检测结果，未命中返回 nil, nil
func (s *RedisService) GetFloorResult(ctx context.Context, key string) (*model.FloorResult, error) {
	data, err := s.client.Get(ctx, floorKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 缓存未命中
		}
		return nil, err
	}

	var result model.FloorResult
	if err := json.Unmarshal(data, &result); err != nil {
		utils.Logger.Error("failed to unmarshal floor result",
			zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return &result, nil
}

// SetFloorResult 设置地板检测结果到缓存
func (s *RedisService) SetFloorResult(ctx context.Context, key string, result *model.FloorResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, floorKeyPrefix+key, data, s.ttl).Err()
}

func (s *RedisService) Close() error {
	return s.client.Close()
}
